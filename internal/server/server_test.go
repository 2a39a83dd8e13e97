package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/myflix-app/apiserver/config"
	"github.com/myflix-app/apiserver/internal/services"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	events   []services.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, data []byte, _ map[string]string) (string, error) {
	var event services.ActivityEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.events = append(p.events, event)
	return "1", nil
}

func newTestRouter(t *testing.T, pub services.Publisher) http.Handler {
	t.Helper()
	docs, err := OpenStore(context.Background(), config.Config{DBDriver: config.DriverMemory})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	logger, _ := test.NewNullLogger()
	return NewRouter(Deps{
		Store:          docs,
		Publisher:      pub,
		Log:            logger,
		JWTSecret:      "secret",
		TokenTTL:       time.Hour,
		ActivityTopic:  "user-activity",
		AllowedOrigins: []string{"https://myflix.app"},
	})
}

func TestRegisterPublishesActivity(t *testing.T) {
	pub := &recordingPublisher{}
	router := newTestRouter(t, pub)

	body := `{"username":"filmfan1","password":"secret","email":"fan@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(pub.events) != 1 || pub.events[0].Type != services.ActivityRegistered {
		t.Fatalf("expected a registration event, got %+v", pub.events)
	}
	if pub.channels[0] != "user-activity" {
		t.Errorf("unexpected channel %q", pub.channels[0])
	}

	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected duplicate email to be rejected, got %d", rec.Code)
	}
}

func TestCORSAndAuth(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/movies", nil)
	req.Header.Set("Origin", "https://myflix.app")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://myflix.app" {
		t.Errorf("expected CORS origin header, got %q", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to the myFlix API" {
		t.Errorf("unexpected root response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/poster.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected assets to be unmounted, got %d", rec.Code)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(context.Background(), config.Config{DBDriver: config.DriverMemory})
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("expected missing secret error, got %v", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.Config{DBDriver: "cassandra"}); err == nil {
		t.Error("expected unknown driver error")
	}
}

func TestNewWithMemoryStore(t *testing.T) {
	srv, err := New(context.Background(), config.Config{
		DBDriver: config.DriverMemory,
		Auth:     config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Hour},
		Log:      config.LogConfig{Level: "error"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
