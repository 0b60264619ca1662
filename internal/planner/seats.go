package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-seat-planner/internal/cart"
	"github.com/iliyamo/tour-seat-planner/internal/model"
	"github.com/iliyamo/tour-seat-planner/internal/queue"
	"github.com/iliyamo/tour-seat-planner/internal/seating"
	"github.com/iliyamo/tour-seat-planner/internal/timeline"
)

// SeatRequest describes the tour package a seat session is choosing
// seats for.  A zero ScheduledDate sends the confirmed seats to the cart;
// otherwise they land on the timeline on that day.
type SeatRequest struct {
	ServiceID     string     `json:"service_id"`
	PackageType   string     `json:"package_type"`
	Name          string     `json:"name,omitempty"`
	Passengers    int        `json:"passengers,omitempty"` // defaults to the plan's travelers
	ScheduledDate model.Date `json:"scheduled_date,omitempty"`
	ScheduledTime *string    `json:"scheduled_time,omitempty"`
}

// SeatSession is a seat selection bound to a plan.
type SeatSession struct {
	*seating.Session
	PlanID  string
	OwnerID string
	Request SeatRequest
}

// SeatsConfirmed is the outcome of ConfirmSeats.  Exactly one of CartItem
// and TimelineItem is set.
type SeatsConfirmed struct {
	SessionID       string                  `json:"session_id"`
	Confirmation    seating.Confirmation    `json:"confirmation"`
	BasePrice       model.Money             `json:"base_price_cents"`
	CartItem        *model.CartLineItem     `json:"cart_item,omitempty"`
	CartTotals      *cart.Totals            `json:"cart_totals,omitempty"`
	TimelineItem    *model.TimelineLineItem `json:"timeline_item,omitempty"`
	TimelineSummary *timeline.Summary       `json:"timeline_summary,omitempty"`
}

// StartSeatSession opens a seat selection for planID using the layout
// published for req.ServiceID.
func (s *Store) StartSeatSession(ctx context.Context, planID string, req SeatRequest) (*SeatSession, error) {
	if req.ServiceID == "" || req.PackageType == "" {
		return nil, fmt.Errorf("%w: service_id and package_type are required", model.ErrInvalidLineItem)
	}
	if req.ScheduledTime != nil {
		if _, err := time.Parse("15:04", *req.ScheduledTime); err != nil {
			return nil, fmt.Errorf("%w: scheduled time %q is not HH:MM", model.ErrInvalidLineItem, *req.ScheduledTime)
		}
	}
	plan, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if req.Passengers == 0 {
		req.Passengers = plan.Travelers
	}
	layout, seatPricing, err := s.deps.Layouts.GetLayout(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrLayoutNotFound
		}
		return nil, fmt.Errorf("load layout %s: %w", req.ServiceID, err)
	}
	sess, err := seating.NewSession(uuid.NewString(), layout, seatPricing, s.deps.Engine, req.Passengers)
	if err != nil {
		return nil, err
	}
	ss := &SeatSession{Session: sess, PlanID: planID, OwnerID: plan.OwnerID, Request: req}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.sessions[sess.ID()] = ss
	return ss, nil
}

// Session returns an open seat session.
func (s *Store) Session(sessionID string) (*SeatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ss, nil
}

// CancelSeatSession cancels and forgets a session.
func (s *Store) CancelSeatSession(sessionID string) error {
	ss, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	if err := ss.Cancel(); err != nil {
		return err
	}
	s.dropSession(sessionID)
	return nil
}

// ConfirmSeats confirms a Complete session and records exactly one line
// item carrying the package base price plus the seat surcharge.  The
// package is priced before the session is closed, so a catalog failure
// leaves the session open for a retry.
func (s *Store) ConfirmSeats(ctx context.Context, sessionID string) (SeatsConfirmed, error) {
	ss, err := s.Session(sessionID)
	if err != nil {
		return SeatsConfirmed{}, err
	}
	req := ss.Request
	base, err := s.deps.Catalog.GetPackagePrice(ctx, req.ServiceID, req.PackageType)
	if err != nil {
		return SeatsConfirmed{}, fmt.Errorf("price package %s/%s: %w", req.ServiceID, req.PackageType, err)
	}
	if base < 0 {
		return SeatsConfirmed{}, fmt.Errorf("%w: package %s/%s has a negative price", model.ErrInvalidLineItem, req.ServiceID, req.PackageType)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s %s", req.ServiceID, req.PackageType)
	}
	out := SeatsConfirmed{SessionID: sessionID, BasePrice: base}
	err = s.mutate(ctx, ss.PlanID, func(e *entry) error {
		// the session only closes once its line item is recorded
		conf, err := ss.ConfirmWith(func(conf seating.Confirmation) error {
			price := base + conf.TotalSurcharge
			if req.ScheduledDate.IsZero() {
				item := model.CartLineItem{
					Kind:          model.KindTour,
					ServiceID:     req.ServiceID,
					PackageType:   req.PackageType,
					Name:          name,
					UnitPrice:     price,
					Quantity:      1,
					PaymentOption: model.PaymentCash,
					Tour: &model.TourInfo{
						DepartureID:   req.ServiceID,
						Seats:         conf.Seats(),
						SeatSurcharge: conf.TotalSurcharge,
					},
				}
				if err := item.Validate(); err != nil {
					return err
				}
				added, totals, err := e.cart.AddItem(item)
				if err != nil {
					return err
				}
				out.CartItem, out.CartTotals = &added, &totals
				return nil
			}

			item := model.TimelineLineItem{
				ServiceType:   "tour",
				Name:          fmt.Sprintf("%s (%s)", name, seatList(conf.Seats())),
				Price:         price,
				ScheduledDate: req.ScheduledDate,
				ScheduledTime: req.ScheduledTime,
			}
			if err := item.Validate(); err != nil {
				return err
			}
			added, sum, err := e.timeline.AddItem(item)
			if err != nil {
				return err
			}
			out.TimelineItem, out.TimelineSummary = &added, &sum
			return nil
		})
		if err != nil {
			return err
		}
		out.Confirmation = conf
		return nil
	})
	if err != nil {
		return SeatsConfirmed{}, err
	}
	s.dropSession(sessionID)
	s.log.Info("seats confirmed", zap.String("session_id", sessionID), zap.String("plan_id", ss.PlanID),
		zap.Int("passengers", ss.PassengerCount()), zap.Int64("surcharge_cents", int64(out.Confirmation.TotalSurcharge)))
	s.publish(ss, out)
	return out, nil
}

func (s *Store) dropSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// publish emits the confirmation in the background; failures are only
// logged.
func (s *Store) publish(ss *SeatSession, res SeatsConfirmed) {
	if s.deps.Publisher == nil || !s.track() {
		return
	}
	ev := queue.SeatsConfirmedEvent{
		SessionID:      res.SessionID,
		TripPlanID:     ss.PlanID,
		OwnerID:        ss.OwnerID,
		ServiceID:      ss.Request.ServiceID,
		PackageType:    ss.Request.PackageType,
		BasePrice:      int64(res.BasePrice),
		SurchargeCents: int64(res.Confirmation.TotalSurcharge),
		Target:         "cart",
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, seat := range res.Confirmation.Seats() {
		ev.Seats = append(ev.Seats, seat.String())
	}
	if res.CartItem != nil {
		ev.LineItemID = res.CartItem.ID
	} else if res.TimelineItem != nil {
		ev.Target = "timeline"
		ev.LineItemID = res.TimelineItem.ID
		ev.ScheduledDate = res.TimelineItem.ScheduledDate.String()
	}
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.deps.PersistTimeout)
		defer cancel()
		if err := s.deps.Publisher.PublishSeatsConfirmed(ctx, ev); err != nil {
			s.log.Warn("publish seats confirmed failed", zap.String("session_id", ev.SessionID), zap.Error(err))
		}
	}()
}

func seatList(seats []model.SeatID) string {
	out := ""
	for i, seat := range seats {
		if i > 0 {
			out += ", "
		}
		out += seat.String()
	}
	return out
}
