//go:build integration

package bookings

import (
	"net/http"
	"testing"

	"tibacare/internal/bookings/service"
	"tibacare/pkg/config"
	"tibacare/pkg/model"
	"tibacare/test/common"
)

const ServiceName = "bookings-integration-tests"

func newSuite(t *testing.T) *common.IntegrationTestSuite {
	t.Helper()
	suite := common.NewIntegrationTestSuite(t, ServiceName)
	t.Cleanup(suite.Teardown)
	suite.ClearCollections(t)
	suite.LoginAsAdmin(t)
	return suite
}

func createBooking(t *testing.T, suite *common.IntegrationTestSuite, patient, providerID, preferredTime string) *model.Booking {
	t.Helper()
	resp, err := suite.Bookings.Create(map[string]any{
		"patientName":   patient,
		"providerId":    providerID,
		"preferredTime": preferredTime,
	})
	common.RequireStatus(t, resp, err, http.StatusCreated)
	booking, err := suite.Bookings.DecodeBooking(resp)
	if err != nil {
		t.Fatal(err)
	}
	return booking
}

func startBooking(t *testing.T, suite *common.IntegrationTestSuite, id string) {
	t.Helper()
	resp, err := suite.Bookings.Start(id)
	common.RequireStatus(t, resp, err, http.StatusOK)
}

func endBooking(t *testing.T, suite *common.IntegrationTestSuite, id string) service.EndResult {
	t.Helper()
	resp, err := suite.Bookings.End(id)
	common.RequireStatus(t, resp, err, http.StatusOK)
	return common.DecodeData[service.EndResult](t, resp)
}

func TestQueueScenario(t *testing.T) {
	suite := newSuite(t)

	first := createBooking(t, suite, "Amina Njeri", "dr-otieno", "10:00")
	if first.Status != model.StatusPending {
		t.Fatalf("free slot must admit as Pending, got %s", first.Status)
	}

	second := createBooking(t, suite, "Brian Mwangi", "dr-otieno", "10:00")
	if second.Status != model.StatusQueued {
		t.Fatalf("claimed slot must admit as Queued, got %s", second.Status)
	}

	startBooking(t, suite, first.ID)

	if suite.Config.ActiveSlotGuard {
		resp, err := suite.Bookings.Start(second.ID)
		common.RequireStatus(t, resp, err, http.StatusConflict)
	}

	result := endBooking(t, suite, first.ID)
	if result.Completed == nil || result.Completed.Status != model.StatusCompleted {
		t.Errorf("ended booking must be Completed, got %+v", result.Completed)
	}
	if result.Promoted == nil || result.Promoted.ID != second.ID {
		t.Fatalf("expected %s to be promoted, got %+v", second.ID, result.Promoted)
	}

	resp, err := suite.Bookings.GetByID(second.ID)
	common.RequireStatus(t, resp, err, http.StatusOK)
	promoted, err := suite.Bookings.DecodeBooking(resp)
	if err != nil {
		t.Fatal(err)
	}
	if promoted.Status != model.StatusPending {
		t.Errorf("promoted booking must be Pending, got %s", promoted.Status)
	}
}

func TestFreeSlotForNewProvider(t *testing.T) {
	suite := newSuite(t)

	resp, err := suite.Bookings.Admission("dr-kamau", "09:00")
	common.RequireStatus(t, resp, err, http.StatusOK)
	preview := common.DecodeData[struct {
		Status model.Status `json:"status"`
	}](t, resp)
	if preview.Status != model.StatusPending {
		t.Errorf("expected Pending preview, got %s", preview.Status)
	}

	booking := createBooking(t, suite, "Daudi Ouma", "dr-kamau", "09:00")
	if booking.Status != model.StatusPending {
		t.Errorf("expected Pending, got %s", booking.Status)
	}
}

func TestGlobalPromotionPicksEarliest(t *testing.T) {
	suite := newSuite(t)
	if suite.Config.PromotionScope != config.PromotionScopeGlobal {
		t.Skipf("promotion scope is %s", suite.Config.PromotionScope)
	}

	p := createBooking(t, suite, "Amina Njeri", "dr-otieno", "11:00")
	createBooking(t, suite, "Brian Mwangi", "dr-otieno", "11:00")
	createBooking(t, suite, "Chebet Kiprono", "dr-wanjiru", "09:00")
	earliest := createBooking(t, suite, "Daudi Ouma", "dr-wanjiru", "09:00")

	result := endBooking(t, suite, p.ID)
	if result.Promoted == nil || result.Promoted.ID != earliest.ID {
		t.Fatalf("expected the 09:00 booking %s to be promoted, got %+v", earliest.ID, result.Promoted)
	}
}

func TestDashboard(t *testing.T) {
	suite := newSuite(t)

	done := createBooking(t, suite, "Amina Njeri", "dr-otieno", "08:00")
	startBooking(t, suite, done.ID)
	endBooking(t, suite, done.ID)

	current := createBooking(t, suite, "Brian Mwangi", "dr-otieno", "09:00")
	queued := createBooking(t, suite, "Chebet Kiprono", "dr-otieno", "09:00")
	startBooking(t, suite, current.ID)

	resp, err := suite.Bookings.Dashboard("dr-otieno")
	common.RequireStatus(t, resp, err, http.StatusOK)
	dashboard, err := suite.Bookings.DecodeDashboard(resp)
	if err != nil {
		t.Fatal(err)
	}

	if dashboard.Current == nil || dashboard.Current.ID != current.ID {
		t.Errorf("expected current %s, got %+v", current.ID, dashboard.Current)
	}
	if len(dashboard.Queue) != 1 || dashboard.Queue[0].ID != queued.ID {
		t.Errorf("expected queue [%s], got %+v", queued.ID, dashboard.Queue)
	}
	if len(dashboard.Upcoming) != 1 || dashboard.Upcoming[0].ID != done.ID {
		t.Errorf("expected completed %s as the only upcoming, got %+v", done.ID, dashboard.Upcoming)
	}
}

func TestListAndDelete(t *testing.T) {
	suite := newSuite(t)

	late := createBooking(t, suite, "Amina Njeri", "dr-otieno", "15:00")
	early := createBooking(t, suite, "Brian Mwangi", "dr-otieno", "08:30")

	resp, err := suite.Bookings.GetAll(10, 0)
	common.RequireStatus(t, resp, err, http.StatusOK)
	bookings, meta, err := suite.Bookings.DecodeBookings(resp)
	if err != nil {
		t.Fatal(err)
	}
	if meta.TotalCount != 2 || len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d (total %d)", len(bookings), meta.TotalCount)
	}
	if bookings[0].ID != early.ID || bookings[1].ID != late.ID {
		t.Errorf("bookings must be ordered by preferred time, got %s, %s", bookings[0].PreferredTime, bookings[1].PreferredTime)
	}

	resp, err = suite.Bookings.Delete(late.ID)
	common.RequireStatus(t, resp, err, http.StatusNoContent)

	resp, err = suite.Bookings.GetByID(late.ID)
	common.RequireStatus(t, resp, err, http.StatusNotFound)
}

func TestMalformedBodyIsRejected(t *testing.T) {
	suite := newSuite(t)

	resp, err := suite.Bookings.CreateRaw([]byte(`{"patientName":`))
	common.RequireStatus(t, resp, err, http.StatusBadRequest)
}

func TestAnonymousCannotManage(t *testing.T) {
	suite := newSuite(t)
	booking := createBooking(t, suite, "Amina Njeri", "dr-otieno", "09:00")

	suite.Bookings.WithoutToken()
	resp, err := suite.Bookings.Start(booking.ID)
	common.RequireStatus(t, resp, err, http.StatusUnauthorized)
}
