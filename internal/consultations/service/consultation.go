package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	consultationserrors "tibacare/internal/consultations/errors"
	"tibacare/internal/consultations/repository"
	"tibacare/internal/consultations/validator"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/model"
	"tibacare/pkg/sanitizer"
)

const (
	maxShortText = 2000
	maxLongText  = 4000
	maxVital     = 20
	maxTreatment = 500
	maxDuration  = 100
)

type ConsultationService interface {
	Create(ctx context.Context, c auth.Capability, consultation *model.Consultation) error
	GetByID(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	GetAll(ctx context.Context, c auth.Capability, filter model.ConsultationFilter, limit int, offset int64) ([]*model.Consultation, int64, error)
	UpdateDetails(ctx context.Context, c auth.Capability, id string, details *model.ConsultationDetails) (*model.Consultation, error)
	SaveClinicalNote(ctx context.Context, c auth.Capability, id string, note *model.ClinicalNote) (*model.Consultation, error)
	Start(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	Complete(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	Reopen(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	MarkNoShow(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	Cancel(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)
	SetUrgent(ctx context.Context, c auth.Capability, id string, urgent bool) (*model.Consultation, error)
	Delete(ctx context.Context, c auth.Capability, id string) error
}

type consultationService struct {
	repo      repository.ConsultationRepository
	validator *validator.ConsultationValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewConsultationService(repo repository.ConsultationRepository, validator *validator.ConsultationValidator, cfg *config.Config) ConsultationService {
	return &consultationService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// transition describes one status change: the states it may start from and
// whether it is reserved to administrators.
type transition struct {
	name      string
	to        model.ConsultationStatus
	from      []model.ConsultationStatus
	adminOnly bool
}

var (
	startTransition = transition{
		name: "start",
		to:   model.ConsultationInProgress,
		from: []model.ConsultationStatus{model.ConsultationPending},
	}
	completeTransition = transition{
		name: "complete",
		to:   model.ConsultationCompleted,
		from: []model.ConsultationStatus{model.ConsultationPending, model.ConsultationInProgress},
	}
	reopenTransition = transition{
		name:      "reopen",
		to:        model.ConsultationPending,
		from:      []model.ConsultationStatus{model.ConsultationCompleted, model.ConsultationNoShow, model.ConsultationCancelled},
		adminOnly: true,
	}
	noShowTransition = transition{
		name:      "mark no-show",
		to:        model.ConsultationNoShow,
		from:      []model.ConsultationStatus{model.ConsultationPending, model.ConsultationInProgress},
		adminOnly: true,
	}
	cancelTransition = transition{
		name:      "cancel",
		to:        model.ConsultationCancelled,
		from:      []model.ConsultationStatus{model.ConsultationPending, model.ConsultationInProgress},
		adminOnly: true,
	}
)

// Create opens a Pending record. Providers may only open records under their
// own provider id; the names are stored as given.
func (s *consultationService) Create(ctx context.Context, c auth.Capability, consultation *model.Consultation) error {
	if err := requireStaff(c); err != nil {
		return err
	}
	consultation.ProviderID = strings.TrimSpace(consultation.ProviderID)
	if !c.IsAdmin() {
		if consultation.ProviderID != "" && consultation.ProviderID != c.ProviderID {
			return apperrors.Forbidden("Cannot open a consultation for another provider")
		}
		consultation.ProviderID = c.ProviderID
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	consultation.ID = ""
	consultation.Status = model.ConsultationPending
	consultation.CompletedAt = nil
	consultation.CreatedAt = now
	consultation.UpdatedAt = now
	sanitizeConsultation(consultation)

	if err := s.validator.Validate(consultation); err != nil {
		return s.validationError("Consultation validation failed", err)
	}

	if err := s.repo.Create(ctx, consultation); err != nil {
		s.cfg.Log.Error("Failed to create consultation", "provider_id", consultation.ProviderID, "error", err)
		return apperrors.Internal("Failed to create consultation", err)
	}

	s.cfg.Log.Info("Consultation created successfully",
		"id", consultation.ID,
		"provider_id", consultation.ProviderID,
		"booking_id", consultation.BookingID,
		"by", c.UserID,
	)
	return nil
}

func (s *consultationService) GetByID(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	if err := requireStaff(c); err != nil {
		return nil, err
	}
	consultation, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRecord(c, consultation.ProviderID); err != nil {
		return nil, err
	}
	return consultation, nil
}

// GetAll lists newest first. Providers see only their own records; admins
// may filter by any provider or none.
func (s *consultationService) GetAll(ctx context.Context, c auth.Capability, filter model.ConsultationFilter, limit int, offset int64) ([]*model.Consultation, int64, error) {
	providerID, err := scopeProvider(c, filter.ProviderID)
	if err != nil {
		return nil, 0, err
	}
	filter.ProviderID = providerID
	filter.Query = sanitizer.TrimAndNormalize(filter.Query)
	if filter.Status != "" {
		if _, err := model.ParseConsultationStatus(string(filter.Status)); err != nil {
			return nil, 0, apperrors.InvalidInput("Unknown consultation status")
		}
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var consultations []*model.Consultation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
	}()

	go func() {
		defer wg.Done()
		consultations, errFind = s.repo.Find(ctx, filter, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count consultations", "provider_id", providerID, "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count consultations", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list consultations", "provider_id", providerID, "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve consultations", errFind)
	}
	return consultations, count, nil
}

// UpdateDetails rewrites the header fields. It is an administrative edit and
// allowed in any status.
func (s *consultationService) UpdateDetails(ctx context.Context, c auth.Capability, id string, details *model.ConsultationDetails) (*model.Consultation, error) {
	if err := requireAdmin(c, "Only administrators can edit consultation details"); err != nil {
		return nil, err
	}
	details.PatientName = sanitizer.NormalizeName(details.PatientName)
	details.ProviderName = sanitizer.NormalizeName(details.ProviderName)
	details.Service = sanitizer.TrimAndNormalize(details.Service)
	details.Date = sanitizer.TrimAndNormalize(details.Date)
	details.Summary = sanitizer.SanitizeText(details.Summary, maxShortText)
	details.Notes = sanitizer.SanitizeText(details.Notes, maxLongText)
	if err := s.validator.ValidateDetails(details); err != nil {
		return nil, s.validationError("Consultation validation failed", err)
	}

	if err := s.repo.UpdateDetails(ctx, id, details, s.now().UTC()); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update consultation")
	}

	s.cfg.Log.Info("Consultation details updated", "id", id, "by", c.UserID)
	return s.find(ctx, id)
}

// SaveClinicalNote replaces symptoms, clerking and prescriptions. A
// completed record is read-only except to administrators.
func (s *consultationService) SaveClinicalNote(ctx context.Context, c auth.Capability, id string, note *model.ClinicalNote) (*model.Consultation, error) {
	if err := requireStaff(c); err != nil {
		return nil, err
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRecord(c, current.ProviderID); err != nil {
		return nil, err
	}
	if current.IsFinal() && !c.IsAdmin() {
		return nil, finalizedError()
	}

	note.Symptoms = sanitizer.SanitizeText(note.Symptoms, maxShortText)
	note.Clerking = sanitizeClerking(note.Clerking)
	note.Prescriptions = sanitizePrescriptions(note.Prescriptions)
	if err := s.validator.ValidateClinicalNote(note); err != nil {
		return nil, s.validationError("Clinical note validation failed", err)
	}

	if err := s.repo.UpdateClinicalNote(ctx, id, note, c.IsAdmin(), s.now().UTC()); err != nil {
		if errors.Is(err, consultationserrors.ErrFinalized) {
			return nil, finalizedError()
		}
		return nil, s.mapRepoError(err, id, "Failed to save clinical note")
	}

	s.cfg.Log.Info("Clinical note saved",
		"id", id,
		"provider_id", current.ProviderID,
		"prescriptions", len(note.Prescriptions),
		"by", c.UserID,
	)
	return s.find(ctx, id)
}

func (s *consultationService) Start(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	return s.transition(ctx, c, id, startTransition)
}

func (s *consultationService) Complete(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	return s.transition(ctx, c, id, completeTransition)
}

func (s *consultationService) Reopen(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	return s.transition(ctx, c, id, reopenTransition)
}

func (s *consultationService) MarkNoShow(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	return s.transition(ctx, c, id, noShowTransition)
}

func (s *consultationService) Cancel(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error) {
	return s.transition(ctx, c, id, cancelTransition)
}

// transition applies t with a conditional write. Repeating a transition the
// record already reflects returns it unchanged.
func (s *consultationService) transition(ctx context.Context, c auth.Capability, id string, t transition) (*model.Consultation, error) {
	if err := requireStaff(c); err != nil {
		return nil, err
	}
	if t.adminOnly && !c.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators can " + t.name + " a consultation")
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRecord(c, current.ProviderID); err != nil {
		return nil, err
	}
	if current.Status == t.to {
		return current, nil
	}
	if !slices.Contains(t.from, current.Status) {
		return nil, apperrors.Conflict("Cannot "+t.name+" a consultation that is "+string(current.Status)).
			WithDetails(map[string]any{"status": string(current.Status)})
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	var completedAt *time.Time
	if t.to == model.ConsultationCompleted {
		completedAt = &now
	}

	if err := s.repo.SetStatus(ctx, id, current.Status, t.to, completedAt, now); err != nil {
		if errors.Is(err, consultationserrors.ErrStatusChanged) {
			return nil, apperrors.Wrap(err, apperrors.CodeConflict,
				"Consultation status changed, reload and retry", http.StatusConflict)
		}
		return nil, s.mapRepoError(err, id, "Failed to update consultation status")
	}

	s.cfg.Log.Info("Consultation status changed",
		"id", id,
		"provider_id", current.ProviderID,
		"from_status", current.Status,
		"to_status", t.to,
		"by", c.UserID,
	)

	current.Status = t.to
	current.CompletedAt = completedAt
	current.UpdatedAt = now
	return current, nil
}

func (s *consultationService) SetUrgent(ctx context.Context, c auth.Capability, id string, urgent bool) (*model.Consultation, error) {
	if err := requireAdmin(c, "Only administrators can change urgency"); err != nil {
		return nil, err
	}
	if err := s.repo.SetUrgent(ctx, id, urgent, s.now().UTC()); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update urgency")
	}

	s.cfg.Log.Info("Consultation urgency changed", "id", id, "urgent", urgent, "by", c.UserID)
	return s.find(ctx, id)
}

func (s *consultationService) Delete(ctx context.Context, c auth.Capability, id string) error {
	if err := requireAdmin(c, "Only administrators can delete consultations"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete consultation")
	}

	s.cfg.Log.Info("Consultation deleted successfully", "id", id, "by", c.UserID)
	return nil
}

// --- Helpers ---

func (s *consultationService) find(ctx context.Context, id string) (*model.Consultation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Consultation ID cannot be empty")
	}
	consultation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve consultation")
	}
	return consultation, nil
}

func (s *consultationService) mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, consultationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Consultation", id)
	case errors.Is(err, consultationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid consultation ID format")
	case errors.Is(err, consultationserrors.ErrUnknownStatus):
		s.cfg.Log.Error("Consultation record has unknown status", "id", id, "error", err)
		return apperrors.Internal("Consultation record is unreadable", err)
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *consultationService) validationError(message string, err error) error {
	s.cfg.Log.Warn(message, "error", err)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func finalizedError() error {
	return apperrors.Wrap(consultationserrors.ErrFinalized, apperrors.CodeConflict,
		"Completed consultations can only be edited by an administrator", http.StatusConflict)
}

func sanitizeConsultation(c *model.Consultation) {
	c.BookingID = strings.TrimSpace(c.BookingID)
	c.PatientName = sanitizer.NormalizeName(c.PatientName)
	c.ProviderName = sanitizer.NormalizeName(c.ProviderName)
	c.Service = sanitizer.TrimAndNormalize(c.Service)
	c.Date = sanitizer.TrimAndNormalize(c.Date)
	c.Summary = sanitizer.SanitizeText(c.Summary, maxShortText)
	c.Notes = sanitizer.SanitizeText(c.Notes, maxLongText)
	c.Symptoms = sanitizer.SanitizeText(c.Symptoms, maxShortText)
	c.Clerking = sanitizeClerking(c.Clerking)
	c.Prescriptions = sanitizePrescriptions(c.Prescriptions)
}

func sanitizeClerking(c model.Clerking) model.Clerking {
	return model.Clerking{
		HPI:            sanitizer.SanitizeText(c.HPI, maxLongText),
		GeneralExam:    sanitizer.SanitizeText(c.GeneralExam, maxLongText),
		SystemExam:     sanitizer.SanitizeText(c.SystemExam, maxLongText),
		Investigations: sanitizer.SanitizeText(c.Investigations, maxLongText),
		Impression:     sanitizer.SanitizeText(c.Impression, maxShortText),
		Plan:           sanitizer.SanitizeText(c.Plan, maxLongText),
		Medications:    sanitizer.SanitizeText(c.Medications, maxShortText),
		Allergies:      sanitizer.SanitizeText(c.Allergies, maxShortText),
		Vitals: model.Vitals{
			BloodPressure:    sanitizer.SanitizeText(c.Vitals.BloodPressure, maxVital),
			Pulse:            sanitizer.SanitizeText(c.Vitals.Pulse, maxVital),
			Temperature:      sanitizer.SanitizeText(c.Vitals.Temperature, maxVital),
			RespiratoryRate:  sanitizer.SanitizeText(c.Vitals.RespiratoryRate, maxVital),
			OxygenSaturation: sanitizer.SanitizeText(c.Vitals.OxygenSaturation, maxVital),
			Weight:           sanitizer.SanitizeText(c.Vitals.Weight, maxVital),
		},
	}
}

// sanitizePrescriptions drops blank lines and never returns nil.
func sanitizePrescriptions(in []model.Prescription) []model.Prescription {
	out := make([]model.Prescription, 0, len(in))
	for _, p := range in {
		text := sanitizer.SanitizeText(p.Text, maxTreatment)
		if text == "" {
			continue
		}
		out = append(out, model.Prescription{
			Text:     text,
			Duration: sanitizer.SanitizeText(p.Duration, maxDuration),
		})
	}
	return out
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

func requireAdmin(c auth.Capability, message string) error {
	if !c.IsAuthenticated() {
		return apperrors.Unauthorized("Authentication required")
	}
	if !c.IsAdmin() {
		return apperrors.Forbidden(message)
	}
	return nil
}

func authorizeRecord(c auth.Capability, providerID string) error {
	if !c.CanManageBooking(providerID) {
		return apperrors.Forbidden("Consultation belongs to another provider")
	}
	return nil
}

func scopeProvider(c auth.Capability, providerID string) (string, error) {
	if err := requireStaff(c); err != nil {
		return "", err
	}
	providerID = strings.TrimSpace(providerID)
	if c.IsAdmin() {
		return providerID, nil
	}
	if providerID != "" && providerID != c.ProviderID {
		return "", apperrors.Forbidden("Consultations of another provider are not accessible")
	}
	return c.ProviderID, nil
}
