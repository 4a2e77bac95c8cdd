package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmhung311/Exp-Gest-System/internal/cache"
	"github.com/nmhung311/Exp-Gest-System/internal/http/handlers"
	"github.com/nmhung311/Exp-Gest-System/internal/notify"
	"github.com/nmhung311/Exp-Gest-System/internal/service"
	"github.com/nmhung311/Exp-Gest-System/pkg/config"
)

// ---------- Test Setup ----------

type fixture struct {
	server   *httptest.Server
	guests   *mockGuestRepo
	events   *mockEventRepo
	tokens   *mockTokenRepo
	checkins *mockCheckinRepo
	users    *mockUserRepo
	mailer   *mockMailer
	hub      *notify.Hub
	store    *cache.Store
}

func setup(t *testing.T) *fixture {
	t.Helper()

	guests := newMockGuestRepo()
	events := newMockEventRepo()
	tokens := newMockTokenRepo()
	checkins := newMockCheckinRepo(guests)
	users := newMockUserRepo()
	mail := &mockMailer{}
	hub := notify.NewHub()
	store := cache.New(64, time.Minute)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTL = 15 * time.Minute
	cfg.Auth.SessionTTL = time.Hour

	tokenService := service.NewTokenService(tokens, guests)
	checkinService := service.NewCheckinService(tokenService, tokens, guests, checkins, hub)
	rsvpService := service.NewRSVPService(tokenService, guests)
	authService := service.NewAuthService(users, cfg)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Mount("/guests", handlers.NewGuestHandler(guests, tokenService, checkinService,
			rsvpService, mail, "http://exp.test").Routes())
		r.Mount("/events", handlers.NewEventHandler(events).Routes())
		r.Mount("/checkin", handlers.NewCheckinHandler(checkinService).Routes())
		r.Mount("/qr", handlers.NewQRHandler(tokenService, hub).Routes())
		r.Mount("/rsvp", handlers.NewRSVPHandler(rsvpService).Routes())
		r.Mount("/batch", handlers.NewBatchHandler(guests, events, checkins, store).Routes())
		r.Mount("/auth", handlers.NewAuthHandler(authService, cfg.Auth.JWTSecret).Routes())
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &fixture{
		server:   server,
		guests:   guests,
		events:   events,
		tokens:   tokens,
		checkins: checkins,
		users:    users,
		mailer:   mail,
		hub:      hub,
		store:    store,
	}
}

// ---------- HTTP helpers ----------

func postJSON(t *testing.T, url string, body any, wantStatus int) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected status %d, got %d", url, wantStatus, resp.StatusCode)
	}
	return resp
}

func get(t *testing.T, url string, wantStatus int) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d", url, wantStatus, resp.StatusCode)
	}
	return resp
}

func do(t *testing.T, method, url string, body any, headers map[string]string, wantStatus int) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, url, wantStatus, resp.StatusCode)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
