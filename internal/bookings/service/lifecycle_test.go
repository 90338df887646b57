package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/pkg/config"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/model"
)

func providerScope(cfg *config.Config) {
	cfg.PromotionScope = config.PromotionScopeProvider
}

func guardOff(cfg *config.Config) {
	cfg.ActiveSlotGuard = false
}

func TestEndConsultation_AlwaysCompletes(t *testing.T) {
	for _, from := range []model.Status{model.StatusPending, model.StatusInProgress, model.StatusQueued, model.StatusCompleted} {
		t.Run(string(from), func(t *testing.T) {
			env := newTestEnv()
			b := env.seed("dr-otieno", "10:00", from)

			result, err := env.svc.EndConsultation(context.Background(), admin, b.ID)
			if err != nil {
				t.Fatalf("EndConsultation failed: %v", err)
			}

			if result.Completed.Status != model.StatusCompleted {
				t.Errorf("expected returned status Completed, got %q", result.Completed.Status)
			}
			if got := env.repo.status(b.ID); got != model.StatusCompleted {
				t.Errorf("expected stored status Completed, got %q", got)
			}
		})
	}
}

func TestEndConsultation_PromotesEarliestAcrossProviders(t *testing.T) {
	env := newTestEnv()
	done := env.seed("dr-kamau", "08:00", model.StatusInProgress)
	late := env.seed("dr-otieno", "11:00", model.StatusQueued)
	early := env.seed("dr-wanjiru", "09:00", model.StatusQueued)

	result, err := env.svc.EndConsultation(context.Background(), admin, done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted == nil {
		t.Fatal("expected a promoted booking")
	}
	if result.Promoted.ID != early.ID {
		t.Errorf("expected %s promoted, got %s", early.ID, result.Promoted.ID)
	}
	if got := env.repo.status(early.ID); got != model.StatusPending {
		t.Errorf("expected earliest queued to be Pending, got %q", got)
	}
	if got := env.repo.status(late.ID); got != model.StatusQueued {
		t.Errorf("expected later booking to stay Queued, got %q", got)
	}
}

func TestEndConsultation_PromotesExactlyOne(t *testing.T) {
	env := newTestEnv()
	done := env.seed("p", "08:00", model.StatusInProgress)
	queued := []*model.Booking{
		env.seed("p", "09:00", model.StatusQueued),
		env.seed("p", "10:00", model.StatusQueued),
		env.seed("q", "09:30", model.StatusQueued),
	}

	if _, err := env.svc.EndConsultation(context.Background(), admin, done.ID); err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	promoted := 0
	for _, b := range queued {
		if env.repo.status(b.ID) == model.StatusPending {
			promoted++
		}
	}
	if promoted != 1 {
		t.Errorf("expected exactly 1 promotion, got %d", promoted)
	}
	if got := env.repo.status(queued[0].ID); got != model.StatusPending {
		t.Errorf("expected 09:00 booking promoted, got %q", got)
	}
}

func TestEndConsultation_ProviderScope(t *testing.T) {
	env := newTestEnv(providerScope)
	done := env.seed("dr-otieno", "08:00", model.StatusInProgress)
	own := env.seed("dr-otieno", "11:00", model.StatusQueued)
	other := env.seed("dr-wanjiru", "09:00", model.StatusQueued)

	result, err := env.svc.EndConsultation(context.Background(), providerCap("dr-otieno"), done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted == nil || result.Promoted.ID != own.ID {
		t.Fatalf("expected own queued booking promoted, got %+v", result.Promoted)
	}
	if got := env.repo.status(other.ID); got != model.StatusQueued {
		t.Errorf("expected other provider's booking to stay Queued, got %q", got)
	}
}

func TestEndConsultation_ProviderScopeNoOwnQueue(t *testing.T) {
	env := newTestEnv(providerScope)
	done := env.seed("dr-otieno", "08:00", model.StatusInProgress)
	other := env.seed("dr-wanjiru", "09:00", model.StatusQueued)

	result, err := env.svc.EndConsultation(context.Background(), admin, done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted != nil {
		t.Errorf("expected no promotion, got %s", result.Promoted.ID)
	}
	if got := env.repo.status(other.ID); got != model.StatusQueued {
		t.Errorf("expected other provider's booking to stay Queued, got %q", got)
	}
}

func TestEndConsultation_EmptyQueueIsNoop(t *testing.T) {
	env := newTestEnv()
	done := env.seed("p", "08:00", model.StatusInProgress)
	pending := env.seed("p", "09:00", model.StatusPending)

	result, err := env.svc.EndConsultation(context.Background(), admin, done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted != nil {
		t.Errorf("expected no promotion, got %s", result.Promoted.ID)
	}
	if got := env.repo.status(pending.ID); got != model.StatusPending {
		t.Errorf("expected Pending booking untouched, got %q", got)
	}
}

func TestEndConsultation_RetriesWhenCandidateTaken(t *testing.T) {
	env := newTestEnv()
	done := env.seed("p", "08:00", model.StatusInProgress)
	first := env.seed("p", "09:00", model.StatusQueued)
	second := env.seed("p", "10:00", model.StatusQueued)

	stolen := false
	env.repo.beforeCAS = func(id string) {
		if id == first.ID && !stolen {
			stolen = true
			_ = env.repo.UpdateStatus(context.Background(), id, model.StatusPending)
		}
	}

	result, err := env.svc.EndConsultation(context.Background(), admin, done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted == nil || result.Promoted.ID != second.ID {
		t.Fatalf("expected %s promoted after retry, got %+v", second.ID, result.Promoted)
	}
	if got := env.repo.status(second.ID); got != model.StatusPending {
		t.Errorf("expected second candidate Pending, got %q", got)
	}
}

func TestEndConsultation_PromotionGivesUp(t *testing.T) {
	env := newTestEnv(func(cfg *config.Config) { cfg.PromotionMaxAttempts = 2 })
	done := env.seed("p", "08:00", model.StatusInProgress)
	for _, at := range []string{"09:00", "10:00", "11:00"} {
		env.seed("p", at, model.StatusQueued)
	}

	attempts := 0
	env.repo.beforeCAS = func(id string) {
		attempts++
		_ = env.repo.UpdateStatus(context.Background(), id, model.StatusPending)
	}

	result, err := env.svc.EndConsultation(context.Background(), admin, done.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted != nil {
		t.Errorf("expected no promotion, got %s", result.Promoted.ID)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestEndConsultation_StoreFailurePropagates(t *testing.T) {
	env := newTestEnv()
	b := env.seed("p", "08:00", model.StatusInProgress)
	queued := env.seed("p", "09:00", model.StatusQueued)
	env.repo.updateStatusErr = errors.New("write failed")

	_, err := env.svc.EndConsultation(context.Background(), admin, b.ID)

	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
	if got := env.repo.status(queued.ID); got != model.StatusQueued {
		t.Errorf("expected no promotion on failure, got %q", got)
	}
}

func TestEndConsultation_ReleaseFailureLeavesBookingRetryable(t *testing.T) {
	env := newTestEnv()
	b := env.seed("p", "08:00", model.StatusPending)
	queued := env.seed("p", "09:00", model.StatusQueued)

	if _, err := env.svc.StartConsultation(context.Background(), admin, b.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}

	env.active.releaseErr = errors.New("mongo down")
	_, err := env.svc.EndConsultation(context.Background(), admin, b.ID)
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if got := env.repo.status(b.ID); got != model.StatusInProgress {
		t.Errorf("expected booking to stay In Progress, got %q", got)
	}
	if got := env.repo.status(queued.ID); got != model.StatusQueued {
		t.Errorf("expected no promotion on failure, got %q", got)
	}

	env.active.releaseErr = nil
	result, err := env.svc.EndConsultation(context.Background(), admin, b.ID)
	if err != nil {
		t.Fatalf("retried EndConsultation failed: %v", err)
	}
	if result.Promoted == nil || result.Promoted.ID != queued.ID {
		t.Errorf("expected %s promoted on retry, got %+v", queued.ID, result.Promoted)
	}
	if holder := env.active.current("p"); holder != "" {
		t.Errorf("expected provider slot free, held by %q", holder)
	}
}

func TestEndConsultation_FailedCompleteDoesNotBlockProvider(t *testing.T) {
	env := newTestEnv()
	a := env.seed("p", "08:00", model.StatusPending)
	b := env.seed("p", "09:00", model.StatusPending)

	if _, err := env.svc.StartConsultation(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}

	env.repo.updateStatusErr = errors.New("write failed")
	if _, err := env.svc.EndConsultation(context.Background(), admin, a.ID); err == nil {
		t.Fatal("expected EndConsultation to fail")
	}
	if holder := env.active.current("p"); holder != "" {
		t.Errorf("expected provider slot free after failed completion, held by %q", holder)
	}

	env.repo.updateStatusErr = nil
	if _, err := env.svc.StartConsultation(context.Background(), admin, b.ID); err != nil {
		t.Errorf("expected provider to start the next booking, got %v", err)
	}
}

func TestEndConsultation_Authorization(t *testing.T) {
	env := newTestEnv()
	b := env.seed("dr-otieno", "08:00", model.StatusInProgress)

	_, err := env.svc.EndConsultation(context.Background(), providerCap("dr-wanjiru"), b.ID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("other provider: expected FORBIDDEN, got %v", err)
	}

	_, err = env.svc.EndConsultation(context.Background(), patient, b.ID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("patient: expected FORBIDDEN, got %v", err)
	}

	_, err = env.svc.EndConsultation(context.Background(), anonymous, b.ID)
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("anonymous: expected UNAUTHORIZED, got %v", err)
	}

	if got := env.repo.status(b.ID); got != model.StatusInProgress {
		t.Errorf("expected status unchanged, got %q", got)
	}
}

func TestStartConsultation_SetsInProgressWithoutPrecondition(t *testing.T) {
	for _, from := range []model.Status{model.StatusPending, model.StatusQueued, model.StatusCompleted} {
		t.Run(string(from), func(t *testing.T) {
			env := newTestEnv()
			b := env.seed("p", "10:00", from)

			started, err := env.svc.StartConsultation(context.Background(), providerCap("p"), b.ID)
			if err != nil {
				t.Fatalf("StartConsultation failed: %v", err)
			}

			if started.Status != model.StatusInProgress {
				t.Errorf("expected returned status In Progress, got %q", started.Status)
			}
			if got := env.repo.status(b.ID); got != model.StatusInProgress {
				t.Errorf("expected stored status In Progress, got %q", got)
			}
			if holder := env.active.current("p"); holder != b.ID {
				t.Errorf("expected slot held by %s, got %q", b.ID, holder)
			}
		})
	}
}

func TestStartConsultation_ConflictWhenSlotHeld(t *testing.T) {
	env := newTestEnv()
	a := env.seed("p", "09:00", model.StatusPending)
	b := env.seed("p", "10:00", model.StatusPending)

	if _, err := env.svc.StartConsultation(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}

	_, err := env.svc.StartConsultation(context.Background(), admin, b.ID)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if !errors.Is(err, bookingserrors.ErrSlotOccupied) {
		t.Errorf("expected ErrSlotOccupied, got %v", err)
	}
	if holder := apperrors.AsAppError(err).Details["bookingId"]; holder != a.ID {
		t.Errorf("expected holder %s in details, got %v", a.ID, holder)
	}
	if got := env.repo.status(b.ID); got != model.StatusPending {
		t.Errorf("expected rejected booking to stay Pending, got %q", got)
	}

	// restarting the holder is idempotent
	if _, err := env.svc.StartConsultation(context.Background(), admin, a.ID); err != nil {
		t.Errorf("expected restart of holder to succeed, got %v", err)
	}
}

func TestStartConsultation_GuardOffAllowsTwo(t *testing.T) {
	env := newTestEnv(guardOff)
	a := env.seed("p", "09:00", model.StatusPending)
	b := env.seed("p", "10:00", model.StatusPending)

	if _, err := env.svc.StartConsultation(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}
	if _, err := env.svc.StartConsultation(context.Background(), admin, b.ID); err != nil {
		t.Fatalf("second StartConsultation failed: %v", err)
	}

	if got := env.repo.status(b.ID); got != model.StatusInProgress {
		t.Errorf("expected second booking In Progress, got %q", got)
	}
	if len(env.active.holder) != 0 {
		t.Errorf("expected no slot claims with guard off, got %v", env.active.holder)
	}
}

func TestStartConsultation_FailedWriteReleasesSlot(t *testing.T) {
	env := newTestEnv()
	b := env.seed("p", "09:00", model.StatusPending)
	env.repo.updateStatusErr = errors.New("write failed")

	_, err := env.svc.StartConsultation(context.Background(), admin, b.ID)

	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
	if holder := env.active.current("p"); holder != "" {
		t.Errorf("expected slot released, held by %q", holder)
	}
}

func TestEndConsultation_FreesProviderSlot(t *testing.T) {
	env := newTestEnv()
	a := env.seed("p", "09:00", model.StatusPending)
	b := env.seed("p", "10:00", model.StatusPending)

	if _, err := env.svc.StartConsultation(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}
	if _, err := env.svc.EndConsultation(context.Background(), admin, a.ID); err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if _, err := env.svc.StartConsultation(context.Background(), admin, b.ID); err != nil {
		t.Errorf("expected next start to succeed, got %v", err)
	}
}

func TestQueueScenario_SameSlotIsServedInTurn(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := newBooking("dr-otieno", "10:00")
	if err := env.svc.Create(ctx, a); err != nil {
		t.Fatalf("Create a failed: %v", err)
	}
	if a.Status != model.StatusPending {
		t.Errorf("expected first booking Pending, got %q", a.Status)
	}

	b := newBooking("dr-otieno", "10:00")
	if err := env.svc.Create(ctx, b); err != nil {
		t.Fatalf("Create b failed: %v", err)
	}
	if b.Status != model.StatusQueued {
		t.Errorf("expected second booking Queued, got %q", b.Status)
	}

	if _, err := env.svc.StartConsultation(ctx, providerCap("dr-otieno"), a.ID); err != nil {
		t.Fatalf("StartConsultation failed: %v", err)
	}

	result, err := env.svc.EndConsultation(ctx, providerCap("dr-otieno"), a.ID)
	if err != nil {
		t.Fatalf("EndConsultation failed: %v", err)
	}

	if result.Promoted == nil || result.Promoted.ID != b.ID {
		t.Fatalf("expected %s promoted, got %+v", b.ID, result.Promoted)
	}
	if got := env.repo.status(b.ID); got != model.StatusPending {
		t.Errorf("expected promoted booking Pending, got %q", got)
	}
	if got := env.repo.status(a.ID); got != model.StatusCompleted {
		t.Errorf("expected first booking Completed, got %q", got)
	}

	want := []string{
		string(model.EventBookingAdmitted),
		string(model.EventBookingAdmitted),
		string(model.EventBookingStarted),
		string(model.EventBookingCompleted),
		string(model.EventBookingPromoted),
	}
	if got := env.publisher.types(); !slices.Equal(got, want) {
		t.Errorf("expected events %v, got %v", want, got)
	}
}

func TestQueueScenario_EmptyProviderAdmitsPending(t *testing.T) {
	env := newTestEnv()

	b := newBooking("dr-new", "09:00")
	if err := env.svc.Create(context.Background(), b); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if b.Status != model.StatusPending {
		t.Errorf("expected Pending, got %q", b.Status)
	}
}
