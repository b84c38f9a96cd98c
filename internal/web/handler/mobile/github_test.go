package mobile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// newFakeGitHub records the redirect_uri the exchange sends so the
// test can assert the app-supplied one was repeated.
func newFakeGitHub(t *testing.T, seenRedirectURI *string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		*seenRedirectURI = r.FormValue("redirect_uri")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer"}`)
	})

	mux.HandleFunc("/user", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 583231, "login": "octocat", "email": "octocat@example.com", "name": "The Octocat"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("failed to migrate account model: %v", err)
	}

	return db
}

func newTestApp(t *testing.T, providerURL string) *fiber.App {
	t.Helper()

	session.Init(memory.New(), memory.New())

	cfg := &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: time.Minute},
		},
		OAuth: config.OAuth{
			RedirectBase:       "http://localhost:3000",
			ContinuationSecret: "test-continuation-secret",
			GitHub: config.Provider{
				Enabled:      true,
				ClientID:     "cid",
				ClientSecret: "cs",
				AuthURL:      providerURL + "/auth",
				TokenURL:     providerURL + "/token",
				UserInfoURL:  providerURL + "/user",
			},
		},
	}

	registry := auth.NewRegistry(auth.NewGitHub(cfg.OAuth.GitHub, cfg.OAuth.RedirectBase))

	app := fiber.New()
	if err := New(registry).Init(app, cfg, newTestDB(t)); err != nil {
		t.Fatalf("handler init failed: %v", err)
	}

	return app
}

func performPost(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
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

func TestMobileCallbackCreatesSession(t *testing.T) {
	var seenRedirectURI string

	srv := newFakeGitHub(t, &seenRedirectURI)
	app := newTestApp(t, srv.URL)

	resp := performPost(t, app, `{"code":"test-code","redirectUri":"myapp://github-auth"}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sessionCookie *http.Cookie

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session" {
			sessionCookie = cookie
		}
	}

	body := decodeBody(t, resp)

	if body["ok"] != true || body["login"] != "octocat" {
		t.Fatalf("unexpected body: %v", body)
	}

	// the exchange repeated the app's redirect URI
	if seenRedirectURI != "myapp://github-auth" {
		t.Fatalf("expected the app redirect URI at the token endpoint, got %q", seenRedirectURI)
	}

	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	var data session.Data
	if err := data.Read(sessionCookie.Value); err != nil {
		t.Fatalf("session not stored: %v", err)
	}

	if data.Login != "octocat" {
		t.Fatalf("unexpected session data: %+v", data)
	}
}

func TestMobileCallbackValidatesBody(t *testing.T) {
	var seenRedirectURI string

	srv := newFakeGitHub(t, &seenRedirectURI)
	app := newTestApp(t, srv.URL)

	for _, body := range []string{
		`{}`,
		`{"code":"test-code"}`,
		`{"redirectUri":"myapp://github-auth"}`,
		`not json`,
	} {
		resp := performPost(t, app, body)

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, resp.StatusCode)
		}

		_ = resp.Body.Close()
	}
}

func TestMobileCallbackExchangeFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	app := newTestApp(t, srv.URL)

	resp := performPost(t, app, `{"code":"bad-code","redirectUri":"myapp://github-auth"}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["ok"] != false {
		t.Fatalf("expected ok=false, got %v", body)
	}
}

func TestMobileCallbackWithoutGitHub(t *testing.T) {
	session.Init(memory.New(), memory.New())

	cfg := &config.Config{
		Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Minute}},
	}

	app := fiber.New()
	if err := New(auth.NewRegistry()).Init(app, cfg, newTestDB(t)); err != nil {
		t.Fatalf("handler init failed: %v", err)
	}

	resp := performPost(t, app, `{"code":"test-code","redirectUri":"myapp://github-auth"}`)

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when github is disabled, got %d", resp.StatusCode)
	}
}
