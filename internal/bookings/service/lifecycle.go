package service

import (
	"context"
	"net/http"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var lifecycleTracer = otel.Tracer("tibacare.internal.bookings.lifecycle")

// EndResult carries the completed booking and, when the queue was not
// empty, the booking promoted into its place.
type EndResult struct {
	Completed *model.Booking `json:"completed"`
	Promoted  *model.Booking `json:"promoted,omitempty"`
}

// StartConsultation moves a booking to In Progress. The previous status is
// not checked. With the active-slot guard on, the provider's slot is claimed
// first and a slot held by another booking is a conflict.
func (s *bookingService) StartConsultation(ctx context.Context, c auth.Capability, id string) (*model.Booking, error) {
	ctx, span := lifecycleTracer.Start(ctx, "bookings.consultation.start",
		trace.WithAttributes(attribute.String("tibacare.booking_id", id)))
	defer span.End()

	booking, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := authorizeBooking(c, booking.ProviderID); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tibacare.provider_id", booking.ProviderID),
		attribute.String("tibacare.from_status", string(booking.Status)),
	)

	if s.cfg.ActiveSlotGuard {
		acquired, holder, err := s.activeSlots.Acquire(ctx, booking.ProviderID, booking.ID)
		if err != nil {
			span.RecordError(err)
			return nil, apperrors.Internal("Failed to claim provider slot", err)
		}
		if !acquired {
			s.metrics.ObserveSlotConflict()
			s.cfg.Log.Warn("Provider slot already held",
				"id", booking.ID,
				"provider_id", booking.ProviderID,
				"holder", holder,
			)
			return nil, apperrors.Wrap(bookingserrors.ErrSlotOccupied, apperrors.CodeConflict,
				"Provider already has a consultation in progress", http.StatusConflict).
				WithDetails(map[string]any{"bookingId": holder})
		}
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, model.StatusInProgress); err != nil {
		span.RecordError(err)
		if s.cfg.ActiveSlotGuard {
			// a failed start must not leave the provider blocked
			if _, releaseErr := s.activeSlots.Release(ctx, booking.ProviderID, booking.ID); releaseErr != nil {
				s.cfg.Log.Error("Failed to release provider slot", "id", booking.ID, "error", releaseErr)
			}
		}
		return nil, s.mapRepoError(err, id, "Failed to start consultation")
	}

	from := booking.Status
	booking.Status = model.StatusInProgress
	s.metrics.ObserveTransition(string(model.StatusInProgress))
	s.events.emit(ctx, model.EventBookingStarted, booking, from, booking.Status)

	s.cfg.Log.Info("Consultation started",
		"id", booking.ID,
		"provider_id", booking.ProviderID,
		"from_status", from,
	)
	return booking, nil
}

// EndConsultation completes a booking whatever its status, frees the
// provider slot it holds and promotes the next queued booking.
func (s *bookingService) EndConsultation(ctx context.Context, c auth.Capability, id string) (*EndResult, error) {
	ctx, span := lifecycleTracer.Start(ctx, "bookings.consultation.end",
		trace.WithAttributes(attribute.String("tibacare.booking_id", id)))
	defer span.End()

	booking, err := s.find(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := authorizeBooking(c, booking.ProviderID); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tibacare.provider_id", booking.ProviderID),
		attribute.String("tibacare.from_status", string(booking.Status)),
	)

	// the slot is freed before the booking is completed so that no failure
	// leaves a Completed booking holding it; releasing twice is a no-op
	if s.cfg.ActiveSlotGuard {
		if _, err := s.activeSlots.Release(ctx, booking.ProviderID, booking.ID); err != nil {
			span.RecordError(err)
			s.cfg.Log.Error("Failed to release provider slot", "id", booking.ID, "error", err)
			return nil, apperrors.Internal("Failed to release provider slot", err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, model.StatusCompleted); err != nil {
		span.RecordError(err)
		return nil, s.mapRepoError(err, id, "Failed to end consultation")
	}
	from := booking.Status
	booking.Status = model.StatusCompleted
	s.metrics.ObserveTransition(string(model.StatusCompleted))
	s.events.emit(ctx, model.EventBookingCompleted, booking, from, booking.Status)

	promoted, err := s.promoteNext(ctx, booking.ProviderID)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.Internal("Failed to promote queued booking", err)
	}
	if promoted != nil {
		span.SetAttributes(attribute.String("tibacare.promoted_id", promoted.ID))
	}

	s.cfg.Log.Info("Consultation ended",
		"id", booking.ID,
		"provider_id", booking.ProviderID,
		"from_status", from,
		"promoted", promoted != nil,
	)
	return &EndResult{Completed: booking, Promoted: promoted}, nil
}

// promoteNext moves the earliest Queued booking to Pending. The candidate
// is taken with a conditional update; when a concurrent promoter wins it the
// next earliest is tried, up to PromotionMaxAttempts.
func (s *bookingService) promoteNext(ctx context.Context, completedProviderID string) (*model.Booking, error) {
	scope := s.cfg.PromotionScope
	providerID := ""
	if scope == config.PromotionScopeProvider {
		providerID = completedProviderID
	}

	attempts := max(s.cfg.PromotionMaxAttempts, 1)
	for range attempts {
		candidate, err := s.repo.FindEarliestQueued(ctx, providerID)
		if err != nil {
			s.metrics.ObservePromotion(scope, "error")
			return nil, err
		}
		if candidate == nil {
			s.metrics.ObservePromotion(scope, "empty")
			return nil, nil
		}

		ok, err := s.repo.CompareAndSetStatus(ctx, candidate.ID, model.StatusQueued, model.StatusPending)
		if err != nil {
			s.metrics.ObservePromotion(scope, "error")
			return nil, err
		}
		if !ok {
			s.cfg.Log.Debug("Promotion candidate taken by another writer", "id", candidate.ID)
			continue
		}

		candidate.Status = model.StatusPending
		s.metrics.ObservePromotion(scope, "promoted")
		s.events.emit(ctx, model.EventBookingPromoted, candidate, model.StatusQueued, model.StatusPending)
		s.cfg.Log.Info("Queued booking promoted",
			"id", candidate.ID,
			"provider_id", candidate.ProviderID,
			"preferred_time", candidate.PreferredTime,
			"scope", scope,
		)
		return candidate, nil
	}

	s.metrics.ObservePromotion(scope, "exhausted")
	s.cfg.Log.Warn("Promotion gave up after repeated contention", "attempts", attempts, "scope", scope)
	return nil, nil
}
