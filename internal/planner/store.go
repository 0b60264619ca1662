// Package planner owns the live state of every open trip plan.  A Store
// keeps exactly one cart and one timeline per plan ID; HTTP handlers and
// the budget tracker read and mutate plans through it and observe changes
// by subscribing instead of holding copies of their own.
package planner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/cart"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/pricing"
	"github.com/iliyamo/tour-seat-planner/internal/timeline"
)

// DefaultPersistTimeout bounds a single background save.
const DefaultPersistTimeout = 5 * time.Second

// Deps wires a Store to its collaborators.  Gateway, Directory, Catalog
// and Layouts are required; Publisher, Logger and OnPersistError are
// optional.
type Deps struct {
	Gateway        PersistenceGateway
	Directory      PlanDirectory
	Catalog        CatalogGateway
	Layouts        LayoutSource
	Publisher      EventPublisher
	Logger         *zap.Logger
	Engine         pricing.Engine
	StrictStock    bool
	PersistTimeout time.Duration
	OnPersistError func(*PersistenceError)
}

// PlanSnapshot is what subscribers receive after every mutation.  Version
// increases by one per mutation of the plan, so a subscriber can drop a
// snapshot older than one it has already seen.
type PlanSnapshot struct {
	PlanID   string            `json:"plan_id"`
	Version  uint64            `json:"version"`
	Plan     model.TripPlan    `json:"plan"`
	Cart     model.CartState   `json:"cart"`
	Totals   cart.Totals       `json:"cart_totals"`
	Days     []model.DayBucket `json:"days"`
	Timeline timeline.Summary  `json:"timeline_summary"`
}

// State returns the persisted form of the snapshot.
func (p PlanSnapshot) State() model.PlanState {
	st := model.PlanState{Cart: p.Cart}
	for _, d := range p.Days {
		st.Timeline = append(st.Timeline, d.Items...)
	}
	return st
}

// NewPlan holds the client supplied fields of a plan being created.
type NewPlan struct {
	Name        string       `json:"name"`
	Destination string       `json:"destination"`
	Travelers   int          `json:"travelers"`
	Budget      *model.Money `json:"budget_cents,omitempty"`
}

type entry struct {
	mu       sync.Mutex
	plan     model.TripPlan
	cart     *cart.Aggregator
	timeline *timeline.Aggregator
	version  uint64
	latest   PlanSnapshot
	subs     map[uint64]func(PlanSnapshot)
	nextSub  uint64

	saveMu       sync.Mutex
	savedVersion uint64
}

func (e *entry) snapshotLocked() PlanSnapshot {
	return PlanSnapshot{
		PlanID:   e.plan.ID,
		Version:  e.version,
		Plan:     e.plan,
		Cart:     e.cart.Snapshot(),
		Totals:   e.cart.Totals(),
		Days:     e.timeline.DaysSlice(),
		Timeline: e.timeline.Summary(),
	}
}

// Store is the single owner of trip plan state.  Create one with New and
// release it with Close.
type Store struct {
	deps Deps
	log  *zap.Logger

	mu       sync.Mutex
	closed   bool
	plans    map[string]*entry
	active   map[string]string
	sessions map[string]*SeatSession

	wg sync.WaitGroup
}

// New returns an empty Store.
func New(deps Deps) *Store {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.PersistTimeout <= 0 {
		deps.PersistTimeout = DefaultPersistTimeout
	}
	return &Store{
		deps:     deps,
		log:      deps.Logger.Named("planner"),
		plans:    make(map[string]*entry),
		active:   make(map[string]string),
		sessions: make(map[string]*SeatSession),
	}
}

// Close rejects further mutations and waits for pending saves and event
// publications, or for ctx to expire.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreatePlan registers a new empty plan owned by ownerID.
func (s *Store) CreatePlan(ctx context.Context, ownerID string, in NewPlan) (model.TripPlan, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case ownerID == "":
		return model.TripPlan{}, fmt.Errorf("%w: owner is required", ErrInvalidPlan)
	case in.Name == "":
		return model.TripPlan{}, fmt.Errorf("%w: name is required", ErrInvalidPlan)
	case in.Travelers < 1:
		return model.TripPlan{}, fmt.Errorf("%w: travelers must be at least 1", ErrInvalidPlan)
	case in.Budget != nil && *in.Budget < 0:
		return model.TripPlan{}, fmt.Errorf("%w: budget cannot be negative", ErrInvalidPlan)
	}
	if s.isClosed() {
		return model.TripPlan{}, ErrStoreClosed
	}
	plan := model.TripPlan{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Destination: strings.TrimSpace(in.Destination),
		Travelers:   in.Travelers,
		Budget:      in.Budget,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := s.deps.Directory.CreatePlan(ctx, plan); err != nil {
		return model.TripPlan{}, fmt.Errorf("create plan: %w", err)
	}
	e := s.newEntry(plan)
	s.mu.Lock()
	s.plans[plan.ID] = e
	s.mu.Unlock()
	s.log.Info("plan created", zap.String("plan_id", plan.ID), zap.String("owner_id", ownerID))
	return plan, nil
}

// Open loads planID into memory if needed and returns its snapshot.
func (s *Store) Open(ctx context.Context, planID string) (PlanSnapshot, error) {
	return s.Snapshot(ctx, planID)
}

// Plan returns the metadata of planID.
func (s *Store) Plan(ctx context.Context, planID string) (model.TripPlan, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return model.TripPlan{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan, nil
}

// PlansByOwner lists every plan of ownerID from the directory.
func (s *Store) PlansByOwner(ctx context.Context, ownerID string) ([]model.TripPlan, error) {
	plans, err := s.deps.Directory.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Authorize returns planID if it is owned by ownerID.
func (s *Store) Authorize(ctx context.Context, ownerID, planID string) (model.TripPlan, error) {
	plan, err := s.Plan(ctx, planID)
	if err != nil {
		return model.TripPlan{}, err
	}
	if plan.OwnerID != ownerID {
		return model.TripPlan{}, ErrForbidden
	}
	return plan, nil
}

// SetBudget changes or clears (nil) the budget of planID.
func (s *Store) SetBudget(ctx context.Context, planID string, budget *model.Money) (model.TripPlan, error) {
	if budget != nil && *budget < 0 {
		return model.TripPlan{}, fmt.Errorf("%w: budget cannot be negative", ErrInvalidPlan)
	}
	var out model.TripPlan
	err := s.mutate(ctx, planID, func(e *entry) error {
		if err := s.deps.Directory.UpdateBudget(ctx, planID, budget); err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if budget == nil {
			e.plan.Budget = nil
		} else {
			b := *budget
			e.plan.Budget = &b
		}
		out = e.plan
		return nil
	})
	return out, err
}

// SetActive makes planID the active plan of ownerID.
func (s *Store) SetActive(ctx context.Context, ownerID, planID string) (model.TripPlan, error) {
	plan, err := s.Authorize(ctx, ownerID, planID)
	if err != nil {
		return model.TripPlan{}, err
	}
	s.mu.Lock()
	s.active[ownerID] = planID
	s.mu.Unlock()
	return plan, nil
}

// Active returns the active plan of ownerID.
func (s *Store) Active(ctx context.Context, ownerID string) (model.TripPlan, error) {
	s.mu.Lock()
	planID, ok := s.active[ownerID]
	s.mu.Unlock()
	if !ok {
		return model.TripPlan{}, ErrNoActivePlan
	}
	return s.Plan(ctx, planID)
}

// Snapshot returns the current state of planID.
func (s *Store) Snapshot(ctx context.Context, planID string) (PlanSnapshot, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return PlanSnapshot{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(), nil
}

// Subscribe calls fn with a fresh snapshot after every mutation of
// planID.  fn runs on the mutating goroutine and must not block; it may
// call back into the Store.  The returned function unsubscribes.
func (s *Store) Subscribe(ctx context.Context, planID string, fn func(PlanSnapshot)) (func(), error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}, nil
}

// Cart operations.

func (s *Store) AddCartItem(ctx context.Context, planID string, item model.CartLineItem) (model.CartLineItem, cart.Totals, error) {
	var (
		added  model.CartLineItem
		totals cart.Totals
	)
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		added, totals, err = e.cart.AddItem(item)
		return err
	})
	return added, totals, err
}

func (s *Store) RemoveCartItem(ctx context.Context, planID, itemID string) (cart.Totals, error) {
	var totals cart.Totals
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		totals, err = e.cart.RemoveItem(itemID)
		return err
	})
	return totals, err
}

func (s *Store) UpdateCartQuantity(ctx context.Context, planID, itemID string, qty int) (cart.Totals, error) {
	var totals cart.Totals
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		totals, err = e.cart.UpdateQuantity(itemID, qty)
		return err
	})
	return totals, err
}

func (s *Store) UpdateCartPaymentOption(ctx context.Context, planID, itemID string, option model.PaymentOption) (cart.Totals, error) {
	var totals cart.Totals
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		totals, err = e.cart.UpdatePaymentOption(itemID, option)
		return err
	})
	return totals, err
}

func (s *Store) SetCartAdjustments(ctx context.Context, planID string, taxes, discount model.Money) (cart.Totals, error) {
	var totals cart.Totals
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		totals, err = e.cart.SetAdjustments(taxes, discount)
		return err
	})
	return totals, err
}

// CartTotals returns the cart totals of planID.
func (s *Store) CartTotals(ctx context.Context, planID string) (cart.Totals, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return cart.Totals{}, err
	}
	return e.cart.Totals(), nil
}

// CartItems returns the cart lines of planID.
func (s *Store) CartItems(ctx context.Context, planID string) ([]model.CartLineItem, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return nil, err
	}
	return e.cart.Items(), nil
}

// Timeline operations.

func (s *Store) AddTimelineItem(ctx context.Context, planID string, item model.TimelineLineItem) (model.TimelineLineItem, timeline.Summary, error) {
	var (
		added model.TimelineLineItem
		sum   timeline.Summary
	)
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		added, sum, err = e.timeline.AddItem(item)
		return err
	})
	return added, sum, err
}

func (s *Store) UpdateTimelineItem(ctx context.Context, planID string, item model.TimelineLineItem) (model.TimelineLineItem, timeline.Summary, error) {
	var (
		updated model.TimelineLineItem
		sum     timeline.Summary
	)
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		updated, sum, err = e.timeline.UpdateItem(item)
		return err
	})
	return updated, sum, err
}

func (s *Store) RemoveTimelineItem(ctx context.Context, planID, itemID string) (timeline.Summary, error) {
	var sum timeline.Summary
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		sum, err = e.timeline.RemoveItem(itemID)
		return err
	})
	return sum, err
}

// MarkTimelineItem updates the paid and confirmed flags of one item as a
// single mutation.  A nil flag is left as it is.
func (s *Store) MarkTimelineItem(ctx context.Context, planID, itemID string, paid, confirmed *bool) (model.TimelineLineItem, error) {
	var it model.TimelineLineItem
	err := s.mutate(ctx, planID, func(e *entry) (err error) {
		it, err = e.timeline.Mark(itemID, paid, confirmed)
		return err
	})
	return it, err
}

// Days returns the itinerary of planID grouped by day.
func (s *Store) Days(ctx context.Context, planID string) ([]model.DayBucket, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return nil, err
	}
	return e.timeline.DaysSlice(), nil
}

// TimelineSummary returns the itinerary totals of planID.
func (s *Store) TimelineSummary(ctx context.Context, planID string) (timeline.Summary, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return timeline.Summary{}, err
	}
	return e.timeline.Summary(), nil
}

// PlanTotals returns the cart totals and timeline summary of planID read
// under the plan lock, so both reflect the same version.
func (s *Store) PlanTotals(ctx context.Context, planID string) (cart.Totals, timeline.Summary, error) {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return cart.Totals{}, timeline.Summary{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.Totals(), e.timeline.Summary(), nil
}

func (s *Store) newEntry(plan model.TripPlan) *entry {
	var opts []cart.Option
	if s.deps.StrictStock {
		opts = append(opts, cart.WithStrictStock())
	}
	return &entry{
		plan:     plan,
		cart:     cart.New(plan.ID, opts...),
		timeline: timeline.New(plan.ID),
		subs:     make(map[uint64]func(PlanSnapshot)),
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// entry returns the in-memory state of planID, hydrating it from the
// directory and the gateway on first use.
func (s *Store) entry(ctx context.Context, planID string) (*entry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if e, ok := s.plans[planID]; ok {
		s.mu.Unlock()
		return e, nil
	}
	s.mu.Unlock()

	plan, err := s.deps.Directory.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan %s: %w", planID, err)
	}
	state, err := s.deps.Gateway.Load(ctx, planID)
	if err != nil {
		return nil, &PersistenceError{PlanID: planID, Op: "load", Err: err}
	}
	e := s.newEntry(plan)
	if err := e.cart.Restore(state.Cart); err != nil {
		return nil, &PersistenceError{PlanID: planID, Op: "load", Err: err}
	}
	if err := e.timeline.Restore(state.Timeline); err != nil {
		return nil, &PersistenceError{PlanID: planID, Op: "load", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.plans[planID]; ok {
		return existing, nil
	}
	s.plans[planID] = e
	s.log.Debug("plan hydrated", zap.String("plan_id", planID),
		zap.Int("cart_items", e.cart.Len()), zap.Int("timeline_items", e.timeline.Summary().TotalItems))
	return e, nil
}

// track registers background work so Close can wait for it.  It fails
// once the store is closed.
func (s *Store) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

// mutate applies fn to planID under the plan lock, notifies subscribers
// and schedules a save.  A failing fn leaves the version untouched.
func (s *Store) mutate(ctx context.Context, planID string, fn func(e *entry) error) error {
	e, err := s.entry(ctx, planID)
	if err != nil {
		return err
	}
	if !s.track() {
		return ErrStoreClosed
	}

	e.mu.Lock()
	if err := fn(e); err != nil {
		e.mu.Unlock()
		s.wg.Done()
		return err
	}
	e.version++
	snap := e.snapshotLocked()
	e.latest = snap
	subs := slices.Collect(maps.Values(e.subs))
	e.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	go s.save(e)
	return nil
}

// save writes the newest snapshot of e unless a newer or equal version
// has already been written.  Concurrent saves of one plan are serialized
// so an older state can never overwrite a newer one.
func (s *Store) save(e *entry) {
	defer s.wg.Done()
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	snap := e.latest
	e.mu.Unlock()
	if snap.Version <= e.savedVersion {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.PersistTimeout)
	defer cancel()
	if err := s.deps.Gateway.Save(ctx, snap.PlanID, snap.State()); err != nil {
		perr := &PersistenceError{PlanID: snap.PlanID, Op: "save", Err: err}
		s.log.Error("plan save failed", zap.String("plan_id", snap.PlanID),
			zap.Uint64("version", snap.Version), zap.Error(err))
		if s.deps.OnPersistError != nil {
			s.deps.OnPersistError(perr)
		}
		return
	}
	e.savedVersion = snap.Version
}
