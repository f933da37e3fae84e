package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecotrace/ecotrace-go/internal/core"
)

func newTestClient(baseURL string) *Client {
	cfg := core.DevelopmentConfig()
	cfg.APIBaseURL = baseURL
	cfg.NetworkTimeout = 2 * time.Second
	cfg.ConnectionTestTimeout = time.Second
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetHabits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/habits" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Habit{{ID: 1, Name: "Cycle to work", Impact: 10}})
	}))
	defer srv.Close()

	habits, err := newTestClient(srv.URL).GetHabits(context.Background())
	if err != nil {
		t.Fatalf("GetHabits: %v", err)
	}
	if len(habits) != 1 || habits[0].Name != "Cycle to work" {
		t.Errorf("unexpected habits: %v", habits)
	}
}

func TestLoginUnwrapsUserEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "eco@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": User{ID: 7, Username: "eco", Email: body["email"]},
		})
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL).Login(context.Background(), "eco@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 7 || user.Username != "eco" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"400 validation", 400, `{"error":"email is required"}`, func(err error) bool {
			var e *ValidationError
			return errors.As(err, &e) && e.Message == "email is required"
		}},
		{"401 auth", 401, `{}`, func(err error) bool {
			var e *AuthenticationError
			return errors.As(err, &e)
		}},
		{"403 auth", 403, `{}`, func(err error) bool {
			var e *AuthenticationError
			return errors.As(err, &e)
		}},
		{"404 not found", 404, `{}`, func(err error) bool {
			var e *NotFoundError
			return errors.As(err, &e)
		}},
		{"500 server", 500, `{"error":"boom"}`, func(err error) bool {
			var e *ServerError
			return errors.As(err, &e) && e.StatusCode == 500 && e.Message == "boom"
		}},
		{"503 server", 503, `{}`, func(err error) bool {
			var e *ServerError
			return errors.As(err, &e)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).GetHabits(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Errorf("wrong error type: %v", err)
			}
		})
	}
}

func TestTimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := core.DevelopmentConfig()
	cfg.APIBaseURL = srv.URL
	cfg.NetworkTimeout = 50 * time.Millisecond
	client := NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.GetHabits(context.Background())
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("expected TimeoutError, got %v", err)
	}
}

func TestNetworkErrorClassification(t *testing.T) {
	// Nothing listens on this port.
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.GetHabits(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected NetworkError, got %v", err)
	}
	if !netErr.Retryable() {
		t.Error("network errors must be retryable")
	}
}

func TestValidateSessionSemantics(t *testing.T) {
	t.Run("valid user", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(User{ID: 1})
		}))
		defer srv.Close()

		valid, err := newTestClient(srv.URL).ValidateSession(context.Background(), 1)
		if err != nil || !valid {
			t.Errorf("got (%v, %v), want (true, nil)", valid, err)
		}
	})

	t.Run("deleted user is definitive", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		valid, err := newTestClient(srv.URL).ValidateSession(context.Background(), 1)
		if err != nil || valid {
			t.Errorf("got (%v, %v), want (false, nil)", valid, err)
		}
	})

	t.Run("server fault is not definitive", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		valid, err := newTestClient(srv.URL).ValidateSession(context.Background(), 1)
		if err == nil || valid {
			t.Errorf("got (%v, %v), want (false, error)", valid, err)
		}
	})
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	if !newTestClient(srv.URL).TestConnection(context.Background()) {
		t.Error("expected reachable backend")
	}
	srv.Close()

	if newTestClient(srv.URL).TestConnection(context.Background()) {
		t.Error("expected unreachable backend")
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(HealthStatus{Status: "ok"})
	}))
	defer srv.Close()

	status, err := newTestClient(srv.URL).HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q", status.Status)
	}
}
