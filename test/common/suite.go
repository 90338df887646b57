package common

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"tibacare/pkg/client"
	"tibacare/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
)

const defaultPassword = "integration-password"

// Collections owned by the bookings service, wiped between scenarios.
var Collections = []string{"Bookings", "Slot_claims", "Active_slots", "Users", "Consultations"}

type IntegrationTestSuite struct {
	Config      *config.Config
	HTTPClient  *client.HttpClient
	Bookings    *client.BookingClient
	Users       *client.UserClient
	ServiceName string
}

func NewIntegrationTestSuite(t *testing.T, serviceName string) *IntegrationTestSuite {
	t.Helper()
	cfg := config.Load(serviceName)
	cfg.SetMongo()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	httpClient := client.NewHttpClient(serverURL)
	if err := httpClient.WaitForHealthy(30 * time.Second); err != nil {
		t.Fatalf("service not reachable at %s: %v", serverURL, err)
	}

	return &IntegrationTestSuite{
		Config:      cfg,
		HTTPClient:  httpClient,
		Bookings:    client.NewBookingClient(serverURL),
		Users:       client.NewUserClient(serverURL),
		ServiceName: serviceName,
	}
}

func (s *IntegrationTestSuite) Teardown() {
	s.Config.GracefulShutdown()
}

// ClearCollections drops every document the bookings service owns.
func (s *IntegrationTestSuite) ClearCollections(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := s.Config.Client.Mongo.Database(s.Config.MongoDatabaseName)
	for _, name := range Collections {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("failed to clear %s: %v", name, err)
		}
	}
}

// LoginAsAdmin registers the first configured admin email and sends its
// token with every following request.
func (s *IntegrationTestSuite) LoginAsAdmin(t *testing.T) {
	t.Helper()
	if len(s.Config.AdminEmails) == 0 {
		t.Skip("ADMIN_EMAILS must name at least one address")
	}
	email := s.Config.AdminEmails[0]

	resp, err := s.Users.Register(map[string]string{
		"email":    email,
		"name":     "Integration Admin",
		"password": defaultPassword,
	})
	RequireStatus(t, resp, err, http.StatusCreated)

	token, err := s.Users.Session(email, defaultPassword)
	if err != nil {
		t.Fatalf("failed to open admin session: %v", err)
	}
	s.HTTPClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", token))
	s.Bookings.WithToken(token)
	s.Users.WithToken(token)
}
