package me

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("failed to migrate account model: %v", err)
	}

	return db
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	session.Init(memory.New(), memory.New())

	app := fiber.New()
	cfg := &config.Config{Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Minute}}}

	var s Service
	if err := s.Init(app, cfg, newTestDB(t)); err != nil {
		t.Fatalf("handler init failed: %v", err)
	}

	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	defer func() {
		_ = resp.Body.Close()
	}()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	return body
}

func TestMeWithoutSession(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", body)
	}
}

func TestMeWithExpiredSession(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, Path, nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "long-gone"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	body := decodeBody(t, resp)
	if body["authenticated"] != false {
		t.Fatalf("expected authenticated=false, got %v", body)
	}
}

func TestMeWithSession(t *testing.T) {
	app := newTestApp(t)

	email := "octocat@example.com"
	data := session.Data{
		Account: models.Account{
			ID:        7,
			Email:     &email,
			Name:      "The Octocat",
			AvatarURL: "https://avatars.example.com/u/583231",
			Provider:  models.ProviderGitHub,
		},
		Login: "octocat",
	}
	if err := data.Write("sid-1", time.Minute); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, Path, nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "sid-1"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	body := decodeBody(t, resp)

	if body["authenticated"] != true {
		t.Fatalf("expected authenticated=true, got %v", body)
	}

	if body["login"] != "octocat" || body["name"] != "The Octocat" || body["email"] != email {
		t.Fatalf("profile mismatch: %v", body)
	}

	// both id spellings are served
	if body["id"] != float64(7) || body["userId"] != float64(7) {
		t.Fatalf("expected id and userId, got %v", body)
	}
}
