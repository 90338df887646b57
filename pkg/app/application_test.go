package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tibacare/pkg/auth"
	"tibacare/pkg/client"
	"tibacare/pkg/config"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "8080",
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1024,
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		ShutdownTimeout:   time.Second,
		Log: logger.New(logger.Config{
			Level:   "info",
			Format:  logger.JSON,
			Service: "test",
		}),
		Client: client.NewClient(),
	}
}

type whoamiHandler struct{}

func (whoamiHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		c := auth.FromContext(r.Context())
		if !c.IsAuthenticated() {
			_, _ = w.Write([]byte("anonymous"))
			return
		}
		_, _ = w.Write([]byte(string(c.Role) + ":" + c.UserID))
	})
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (auth.Capability, error) {
	if token != "good" {
		return auth.Capability{}, errors.New("bad token")
	}
	return auth.Capability{UserID: "u1", Role: model.RoleAdmin}, nil
}

func TestApplicationRoutes(t *testing.T) {
	a := NewApplication(testConfig()).WithTokenVerifier(stubVerifier{})
	a.SetApp(whoamiHandler{})
	defer a.gracefulShutdown()

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{"health", "/health", "", http.StatusOK, `"status":"ok"`},
		{"ready without dependencies", "/ready", "", http.StatusOK, `"status":"ready"`},
		{"anonymous", "/whoami", "", http.StatusOK, "anonymous"},
		{"authenticated", "/whoami", "good", http.StatusOK, "admin:u1"},
		{"invalid token", "/whoami", "bad", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"metrics", "/metrics", "", http.StatusOK, "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			a.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := NewHealthHandler(nil, testConfig().Log)
	h.AddCheck("kafka", func(context.Context) error { return errors.New("down") })

	router := httprouter.New()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"kafka":"error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type countingWorker struct {
	started atomic.Int32
	stopped atomic.Int32
}

func (w *countingWorker) Run(ctx context.Context) error {
	w.started.Add(1)
	<-ctx.Done()
	w.stopped.Add(1)
	return ctx.Err()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownStopsWorkersAndClosers(t *testing.T) {
	a := NewApplication(testConfig())
	a.SetApp()

	worker := &countingWorker{}
	a.AddWorker(worker)
	var closed atomic.Bool
	a.AddCloser("test", closerFunc(func() error {
		closed.Store(true)
		return nil
	}))

	a.startWorkers()
	deadline := time.Now().Add(time.Second)
	for worker.started.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	a.gracefulShutdown()

	if worker.stopped.Load() != 1 {
		t.Errorf("worker stopped %d times, want 1", worker.stopped.Load())
	}
	if !closed.Load() {
		t.Error("closer was not called")
	}
}
