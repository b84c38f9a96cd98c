package oauth

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"

	"github.com/LestDomzEDU/Project-3-Back-End/internal/auth"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/config"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/db/models"
	"github.com/LestDomzEDU/Project-3-Back-End/internal/web/session"
)

// newFakeGitHub serves the token and userinfo endpoints of a GitHub
// lookalike so the full round trip runs without network access.
func newFakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"bearer"}`)
	})

	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": 583231,
			"login": "octocat",
			"email": "octocat@example.com",
			"name": "The Octocat",
			"avatar_url": "https://avatars.example.com/u/583231"
		}`)
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

func newTestConfig(providerURL string) *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "gradquest",
		Webserver: config.Webserver{
			Port:    3000,
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
}

// newFlowService wires a fiber app with the real landing template and
// a registry holding one fake-backed github provider.
func newFlowService(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	session.Init(memory.New(), memory.New())

	engine := html.New("../../templates", ".gohtml")
	app := fiber.New(fiber.Config{Views: engine})

	registry := auth.NewRegistry(auth.NewGitHub(cfg.OAuth.GitHub, cfg.OAuth.RedirectBase))

	if err := New(registry).Init(app, cfg, newTestDB(t)); err != nil {
		t.Fatalf("handler init failed: %v", err)
	}

	return app
}

func performGet(t *testing.T, app *fiber.App, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestAuthorizeRedirectsToProvider(t *testing.T) {
	srv := newFakeGitHub(t)
	cfg := newTestConfig(srv.URL)
	app := newFlowService(t, cfg)

	resp := performGet(t, app, "/oauth2/authorization/github?return_to=myapp%3A%2F%2Fdone")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}

	if !strings.HasPrefix(loc.String(), srv.URL+"/auth") {
		t.Fatalf("expected redirect to the provider, got %s", loc)
	}

	query := loc.Query()
	if query.Get("client_id") != "cid" || query.Get("state") == "" {
		t.Fatalf("authorization URL incomplete: %s", loc)
	}

	if query.Get("redirect_uri") != "http://localhost:3000/login/oauth2/code/github" {
		t.Fatalf("unexpected redirect_uri: %s", query.Get("redirect_uri"))
	}

	// the destination travels in the signed continuation cookie
	var found bool

	for _, cookie := range resp.Cookies() {
		if cookie.Name == ContinuationCookie {
			found = true
		}
	}

	if !found {
		t.Fatal("expected the continuation cookie to be set")
	}
}

func TestAuthorizeUnknownProvider(t *testing.T) {
	srv := newFakeGitHub(t)
	app := newFlowService(t, newTestConfig(srv.URL))

	resp := performGet(t, app, "/oauth2/authorization/gitlab")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// loginState runs the authorize step and returns the minted state and
// the continuation cookie.
func loginState(t *testing.T, app *fiber.App, target string) (string, []*http.Cookie) {
	t.Helper()

	resp := performGet(t, app, target)

	defer func() {
		_ = resp.Body.Close()
	}()

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}

	return loc.Query().Get("state"), resp.Cookies()
}

func TestCallbackCompletesLogin(t *testing.T) {
	srv := newFakeGitHub(t)
	cfg := newTestConfig(srv.URL)
	app := newFlowService(t, cfg)

	state, cookies := loginState(t, app, "/oauth2/authorization/github?return_to=myapp%3A%2F%2Fdone")

	resp := performGet(t, app, "/login/oauth2/code/github?code=test-code&state="+state, cookies...)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}

	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, LandingPath) {
		t.Fatalf("expected redirect to the landing page, got %s", loc)
	}

	if !strings.Contains(loc, "return_to="+url.QueryEscape("myapp://done")) {
		t.Fatalf("expected the destination to be forwarded, got %s", loc)
	}

	var sessionCookie *http.Cookie

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "session" {
			sessionCookie = cookie
		}
	}

	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	// the session resolves to the reconciled account
	var data session.Data
	if err := data.Read(sessionCookie.Value); err != nil {
		t.Fatalf("session not stored: %v", err)
	}

	if data.Login != "octocat" || data.Account.EmailValue() != "octocat@example.com" {
		t.Fatalf("unexpected session data: %+v", data)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	srv := newFakeGitHub(t)
	app := newFlowService(t, newTestConfig(srv.URL))

	resp := performGet(t, app, "/login/oauth2/code/github?code=test-code&state=forged")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != FailurePath {
		t.Fatalf("expected redirect to %s, got %d %s", FailurePath, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	srv := newFakeGitHub(t)
	app := newFlowService(t, newTestConfig(srv.URL))

	state, _ := loginState(t, app, "/oauth2/authorization/github")

	first := performGet(t, app, "/login/oauth2/code/github?code=test-code&state="+state)
	_ = first.Body.Close()

	second := performGet(t, app, "/login/oauth2/code/github?code=test-code&state="+state)

	defer func() {
		_ = second.Body.Close()
	}()

	if second.Header.Get("Location") != FailurePath {
		t.Fatalf("expected a replayed state to fail, got %s", second.Header.Get("Location"))
	}
}

func TestCallbackProviderDenied(t *testing.T) {
	srv := newFakeGitHub(t)
	app := newFlowService(t, newTestConfig(srv.URL))

	resp := performGet(t, app, "/login/oauth2/code/github?error=access_denied")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.Header.Get("Location") != FailurePath {
		t.Fatalf("expected redirect to %s, got %s", FailurePath, resp.Header.Get("Location"))
	}
}

func TestLandingDeepLinksWithUserInfo(t *testing.T) {
	srv := newFakeGitHub(t)
	cfg := newTestConfig(srv.URL)
	app := newFlowService(t, cfg)

	// establish a session first
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

	resp := performGet(t, app,
		"/oauth2/final?return_to="+url.QueryEscape(`myapp://done"with-quotes`),
		&http.Cookie{Name: "session", Value: "sid-1"},
	)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `"authenticated":true`) {
		t.Fatalf("expected the payload inline, got %s", body)
	}

	// quotes are stripped from the destination, the payload rides in
	// the fragment; the template JS-escapes the slashes of the scheme
	if !strings.Contains(string(body), "donewith-quotes#userinfo=") {
		t.Fatalf("expected a sanitized deep link, got %s", body)
	}

	if !strings.Contains(string(body), url.QueryEscape(`"login":"octocat"`)) {
		t.Fatalf("expected the login inside the fragment, got %s", body)
	}
}

func TestLandingWithoutDestination(t *testing.T) {
	srv := newFakeGitHub(t)
	app := newFlowService(t, newTestConfig(srv.URL))

	resp := performGet(t, app, "/oauth2/final")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)

	if strings.Contains(string(body), "#userinfo=") {
		t.Fatalf("expected no deep link without a destination, got %s", body)
	}
}
