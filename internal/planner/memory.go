package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/tour-seat-planner/internal/model"
)

// MemoryBackend is an in-process implementation of every gateway the
// Store needs.  It backs tests and local runs without MySQL.
type MemoryBackend struct {
	mu       sync.Mutex
	plans    map[string]model.TripPlan
	states   map[string]model.PlanState
	saves    map[string]int
	layouts  map[string]memoryLayout
	packages map[string]model.Money
}

type memoryLayout struct {
	layout  *model.BusLayout
	pricing model.SeatPricing
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		plans:    make(map[string]model.TripPlan),
		states:   make(map[string]model.PlanState),
		saves:    make(map[string]int),
		layouts:  make(map[string]memoryLayout),
		packages: make(map[string]model.Money),
	}
}

func (m *MemoryBackend) CreatePlan(_ context.Context, plan model.TripPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[plan.ID] = plan
	return nil
}

func (m *MemoryBackend) GetPlan(_ context.Context, planID string) (model.TripPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return model.TripPlan{}, fmt.Errorf("trip plan %s: %w", planID, model.ErrNotFound)
	}
	return p, nil
}

func (m *MemoryBackend) ListByOwner(_ context.Context, ownerID string) ([]model.TripPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TripPlan
	for _, p := range m.plans {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryBackend) UpdateBudget(_ context.Context, planID string, budget *model.Money) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[planID]
	if !ok {
		return fmt.Errorf("trip plan %s: %w", planID, model.ErrNotFound)
	}
	p.Budget = budget
	m.plans[planID] = p
	return nil
}

func (m *MemoryBackend) Save(_ context.Context, planID string, state model.PlanState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[planID] = state
	m.saves[planID]++
	return nil
}

func (m *MemoryBackend) Load(_ context.Context, planID string) (model.PlanState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[planID], nil
}

// Saved returns the last saved state of planID and how many saves
// reached the backend.
func (m *MemoryBackend) Saved(planID string) (model.PlanState, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[planID], m.saves[planID]
}

// PutLayout publishes a layout for serviceID.
func (m *MemoryBackend) PutLayout(serviceID string, layout *model.BusLayout, pricing model.SeatPricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts[serviceID] = memoryLayout{layout: layout, pricing: pricing}
}

func (m *MemoryBackend) GetLayout(_ context.Context, serviceID string) (*model.BusLayout, model.SeatPricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.layouts[serviceID]
	if !ok {
		return nil, model.SeatPricing{}, fmt.Errorf("layout %s: %w", serviceID, model.ErrNotFound)
	}
	return l.layout, l.pricing, nil
}

// PutPackage sets the catalog price of a service package.
func (m *MemoryBackend) PutPackage(serviceID, packageName string, price model.Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[serviceID+"/"+packageName] = price
}

func (m *MemoryBackend) GetPackagePrice(_ context.Context, serviceID, packageName string) (model.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[serviceID+"/"+packageName]
	if !ok {
		return 0, fmt.Errorf("package %s/%s: %w", serviceID, packageName, model.ErrNotFound)
	}
	return p, nil
}

// Deps returns Deps wired entirely to m.
func (m *MemoryBackend) Deps() Deps {
	return Deps{Gateway: m, Directory: m, Catalog: m, Layouts: m}
}
