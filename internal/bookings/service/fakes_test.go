package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	bookingserrors "tibacare/internal/bookings/errors"
	"tibacare/internal/bookings/validator"
	"tibacare/pkg/auth"
	"tibacare/pkg/config"
	mongotx "tibacare/pkg/db/mongo"
	"tibacare/pkg/kafka"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"
)

// fakeBookingRepo is an in-memory BookingRepository with the same ordering
// and conditional-update semantics as the Mongo implementation.
type fakeBookingRepo struct {
	mu       sync.Mutex
	seq      int
	bookings map[string]*model.Booking

	createCalls int

	updateStatusErr error
	// beforeCAS runs without the lock before each conditional update.
	beforeCAS func(id string)
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*model.Booking{}}
}

func (r *fakeBookingRepo) put(b model.Booking) *model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("%024x", r.seq)
	r.bookings[b.ID] = &b
	out := b
	return &out
}

func (r *fakeBookingRepo) status(id string) model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bookings[id].Status
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	r.createCalls++
	r.mu.Unlock()
	stored := r.put(*booking)
	booking.ID = stored.ID
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (r *fakeBookingRepo) sorted(providerID string) []*model.Booking {
	var out []*model.Booking
	for _, b := range r.bookings {
		if providerID == "" || b.ProviderID == providerID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PreferredTime != out[j].PreferredTime {
			return out[i].PreferredTime < out[j].PreferredTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeBookingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.FindByProvider(ctx, "", limit, offset)
}

func (r *fakeBookingRepo) FindByProvider(_ context.Context, providerID string, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(providerID)
	if offset >= int64(len(all)) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeBookingRepo) Count(_ context.Context, providerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.sorted(providerID))), nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, id string, status model.Status) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBookingRepo) CompareAndSetStatus(_ context.Context, id string, from, to model.Status) (bool, error) {
	if r.beforeCAS != nil {
		r.beforeCAS(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	return true, nil
}

func (r *fakeBookingRepo) FindEarliestQueued(_ context.Context, providerID string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.sorted(providerID) {
		if b.Status == model.StatusQueued {
			return b, nil
		}
	}
	return nil, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return mongotx.PassthroughTransactionManager{}.ExecuteTransaction(ctx, fn)
}

type fakeClaims struct {
	mu      sync.Mutex
	holders map[string]int64
	err     error
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{holders: map[string]int64{}}
}

func (c *fakeClaims) Claim(_ context.Context, providerID, preferredTime string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := model.SlotKey(providerID, preferredTime)
	before := c.holders[key]
	c.holders[key] = before + 1
	return before <= 0, nil
}

func (c *fakeClaims) Release(_ context.Context, providerID, preferredTime string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := model.SlotKey(providerID, preferredTime)
	if c.holders[key] > 0 {
		c.holders[key]--
	}
	return nil
}

func (c *fakeClaims) Holders(_ context.Context, providerID, preferredTime string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holders[model.SlotKey(providerID, preferredTime)], nil
}

type fakeActiveSlots struct {
	mu         sync.Mutex
	holder     map[string]string
	releaseErr error
}

func newFakeActiveSlots() *fakeActiveSlots {
	return &fakeActiveSlots{holder: map[string]string{}}
}

func (a *fakeActiveSlots) Acquire(_ context.Context, providerID, bookingID string) (bool, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	current := a.holder[providerID]
	if current != "" && current != bookingID {
		return false, current, nil
	}
	a.holder[providerID] = bookingID
	return true, bookingID, nil
}

func (a *fakeActiveSlots) Release(_ context.Context, providerID, bookingID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.releaseErr != nil {
		return false, a.releaseErr
	}
	if a.holder[providerID] != bookingID {
		return false, nil
	}
	a.holder[providerID] = ""
	return true, nil
}

func (a *fakeActiveSlots) Holder(_ context.Context, providerID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder[providerID], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	repo      *fakeBookingRepo
	claims    *fakeClaims
	active    *fakeActiveSlots
	publisher *recordingPublisher
	cfg       *config.Config
	svc       BookingService
}

func (a *fakeActiveSlots) current(providerID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holder[providerID]
}

func newTestEnv(opts ...func(cfg *config.Config)) *testEnv {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		PromotionScope:       config.PromotionScopeGlobal,
		PromotionMaxAttempts: 5,
		ActiveSlotGuard:      true,
		Log:                  log,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	env := &testEnv{
		repo:      newFakeBookingRepo(),
		claims:    newFakeClaims(),
		active:    newFakeActiveSlots(),
		publisher: &recordingPublisher{},
		cfg:       cfg,
	}
	env.svc = NewBookingService(env.repo, env.claims, env.active, validator.NewBookingValidator(log), env.publisher, nil, cfg)
	return env
}

// seed stores a booking directly, claiming its slot like Create would.
func (e *testEnv) seed(providerID, preferredTime string, status model.Status) *model.Booking {
	_, _ = e.claims.Claim(context.Background(), providerID, preferredTime)
	return e.repo.put(model.Booking{
		PatientName:   "Patient " + preferredTime,
		ProviderID:    providerID,
		PreferredTime: preferredTime,
		Status:        status,
	})
}

var (
	admin     = auth.Capability{UserID: "admin-1", Role: model.RoleAdmin}
	anonymous = auth.Anonymous()
	patient   = auth.Capability{UserID: "pat-1", Role: model.RolePatient}
)

func providerCap(providerID string) auth.Capability {
	return auth.Capability{UserID: "user-" + providerID, Role: model.RoleProvider, ProviderID: providerID}
}

func newBooking(providerID, preferredTime string) *model.Booking {
	return &model.Booking{
		PatientName:   "Amina Njeri",
		Phone:         "0712345678",
		ProviderID:    providerID,
		PreferredTime: preferredTime,
	}
}
