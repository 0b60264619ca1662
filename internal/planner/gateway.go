package planner

import (
	"context"

	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/queue"
)

// PersistenceGateway saves and loads the cart and timeline of a plan.
// Load returns an empty state, not an error, for a plan that was never
// saved.
type PersistenceGateway interface {
	Save(ctx context.Context, planID string, state model.PlanState) error
	Load(ctx context.Context, planID string) (model.PlanState, error)
}

// CatalogGateway prices service packages.
type CatalogGateway interface {
	GetPackagePrice(ctx context.Context, serviceID, packageName string) (model.Money, error)
}

// PlanDirectory stores plan metadata.  Lookups of unknown plans return an
// error wrapping model.ErrNotFound.
type PlanDirectory interface {
	CreatePlan(ctx context.Context, plan model.TripPlan) error
	GetPlan(ctx context.Context, planID string) (model.TripPlan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.TripPlan, error)
	UpdateBudget(ctx context.Context, planID string, budget *model.Money) error
}

// LayoutSource returns the published bus layout and seat pricing of a
// tour service.  Unknown services return an error wrapping
// model.ErrNotFound.
type LayoutSource interface {
	GetLayout(ctx context.Context, serviceID string) (*model.BusLayout, model.SeatPricing, error)
}

// EventPublisher receives seat confirmations.  Delivery is best effort.
type EventPublisher interface {
	PublishSeatsConfirmed(ctx context.Context, event queue.SeatsConfirmedEvent) error
}
