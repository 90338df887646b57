package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/internal/bookings/repository"
	"tibacare/internal/bookings/validator"
	"tibacare/internal/bookings/view"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/kafka"
	"tibacare/pkg/metrics"
	"tibacare/pkg/model"
	"tibacare/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	maxClinicalNoteLength = 2000
	maxHistoryLength      = 4000
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, c auth.Capability, id string) (*model.Booking, error)
	GetAll(ctx context.Context, c auth.Capability, providerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Delete(ctx context.Context, c auth.Capability, id string) error
	Dashboard(ctx context.Context, c auth.Capability, providerID string) (*model.Dashboard, error)
	PreviewAdmission(ctx context.Context, providerID, preferredTime string) (model.Status, error)
	StartConsultation(ctx context.Context, c auth.Capability, id string) (*model.Booking, error)
	EndConsultation(ctx context.Context, c auth.Capability, id string) (*EndResult, error)
}

type bookingService struct {
	repo        repository.BookingRepository
	activeSlots repository.ActiveSlotRepository
	admission   *AdmissionPolicy
	validator   *validator.BookingValidator
	events      *eventEmitter
	metrics     *metrics.BookingMetrics
	cfg         *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	claims repository.SlotClaimRepository,
	activeSlots repository.ActiveSlotRepository,
	validator *validator.BookingValidator,
	publisher kafka.Publisher,
	bookingMetrics *metrics.BookingMetrics,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		activeSlots: activeSlots,
		admission:   NewAdmissionPolicy(claims),
		validator:   validator,
		events:      newEventEmitter(publisher, cfg.Log),
		metrics:     bookingMetrics,
		cfg:         cfg,
	}
}

// Create validates the submission, admits it against its slot and persists
// it with the computed status in one transaction. Any client-supplied id or
// status is discarded.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = ""
	booking.Status = ""
	s.sanitize(booking)
	if err := s.validate(booking); err != nil {
		return err
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		status, err := s.admission.Admit(sessCtx, booking.ProviderID, booking.PreferredTime)
		if err != nil {
			return apperrors.Internal("Failed to check slot availability", err)
		}
		booking.Status = status

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "provider_id", booking.ProviderID, "error", err)
		return err
	}

	s.metrics.ObserveAdmission(string(booking.Status))
	s.events.emit(ctx, model.EventBookingAdmitted, booking, "", booking.Status)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"provider_id", booking.ProviderID,
		"preferred_time", booking.PreferredTime,
		"status", booking.Status,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, c auth.Capability, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeBooking(c, booking.ProviderID); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, c auth.Capability, providerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	providerID, err := scopeProvider(c, providerID)
	if err != nil {
		return nil, 0, err
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, providerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "provider_id", providerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByProvider(ctx, providerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "provider_id", providerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Delete is an administrative action outside the workflow. It gives back
// the booking's slot claim and active slot so they cannot outlive it.
func (s *bookingService) Delete(ctx context.Context, c auth.Capability, id string) error {
	if !c.IsAdmin() {
		return apperrors.Forbidden("Only administrators can delete bookings")
	}

	var deleted *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking, err := s.find(sessCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return s.mapRepoError(err, id, "Failed to delete booking")
		}
		if err := s.admission.Release(sessCtx, booking.ProviderID, booking.PreferredTime); err != nil {
			return apperrors.Internal("Failed to release slot claim", err)
		}
		if _, err := s.activeSlots.Release(sessCtx, booking.ProviderID, booking.ID); err != nil {
			return apperrors.Internal("Failed to release active slot", err)
		}
		deleted = booking
		return nil
	})
	if err != nil {
		return err
	}

	s.events.emit(ctx, model.EventBookingDeleted, deleted, deleted.Status, "")
	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

func (s *bookingService) Dashboard(ctx context.Context, c auth.Capability, providerID string) (*model.Dashboard, error) {
	providerID, err := scopeProvider(c, providerID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindByProvider(ctx, providerID, 0, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load dashboard", "provider_id", providerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	dashboard := view.Partition(bookings)
	return &dashboard, nil
}

func (s *bookingService) PreviewAdmission(ctx context.Context, providerID, preferredTime string) (model.Status, error) {
	providerID = strings.TrimSpace(providerID)
	preferredTime = sanitizer.NormalizeSlotTime(preferredTime)
	if providerID == "" || preferredTime == "" {
		return "", apperrors.InvalidInput("provider_id and preferred_time are required")
	}

	status, err := s.admission.Preview(ctx, providerID, preferredTime)
	if err != nil {
		return "", apperrors.Internal("Failed to check slot availability", err)
	}
	return status, nil
}

// --- Helpers ---

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrUnknownStatus):
		s.cfg.Log.Error("Booking record has unknown status", "id", id, "error", err)
		return apperrors.Internal("Booking record is unreadable", err)
	}
	return apperrors.Internal(message, err)
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.PatientName = sanitizer.NormalizeName(b.PatientName)
	if phone := sanitizer.NormalizePhone(b.Phone); phone != "" {
		b.Phone = phone
	} else {
		b.Phone = strings.TrimSpace(b.Phone)
	}
	b.Service = sanitizer.TrimAndNormalize(b.Service)
	b.PreferredDate = sanitizer.TrimAndNormalize(b.PreferredDate)
	b.PreferredTime = sanitizer.NormalizeSlotTime(b.PreferredTime)
	b.ProviderID = strings.TrimSpace(b.ProviderID)
	b.Symptoms = sanitizer.SanitizeText(b.Symptoms, maxClinicalNoteLength)
	b.Allergies = sanitizer.SanitizeText(b.Allergies, maxClinicalNoteLength)
	b.MedicalHistory = sanitizer.SanitizeText(b.MedicalHistory, maxHistoryLength)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Booking validation failed", verrs.Details())
		}
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func requireStaff(c auth.Capability) error {
	if !c.IsAuthenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !c.IsStaff() {
		return apperrors.Forbidden("Staff role required")
	}
	return nil
}

func authorizeBooking(c auth.Capability, providerID string) error {
	if err := requireStaff(c); err != nil {
		return err
	}
	if !c.CanManageBooking(providerID) {
		return apperrors.Forbidden("Booking belongs to another provider")
	}
	return nil
}

// scopeProvider pins providers to their own bookings. Admins may pass any
// providerID, including "" for all providers.
func scopeProvider(c auth.Capability, providerID string) (string, error) {
	if err := requireStaff(c); err != nil {
		return "", err
	}
	providerID = strings.TrimSpace(providerID)
	if c.IsAdmin() {
		return providerID, nil
	}
	if providerID != "" && providerID != c.ProviderID {
		return "", apperrors.Forbidden("Bookings of another provider are not accessible")
	}
	return c.ProviderID, nil
}
