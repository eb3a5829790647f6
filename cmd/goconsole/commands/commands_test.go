package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/catalog"
	gojwt "github.com/golang-jwt/jwt/v5"
)

type adminAPI struct {
	token string

	mu       sync.Mutex
	products []catalog.ProductRecord
	text     string
	auths    []string
	writes   atomic.Int64
}

func newAdminAPI(t *testing.T) *adminAPI {
	t.Helper()
	now := time.Now()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return &adminAPI{
		token: token,
		text:  "<p>hello</p>",
		products: []catalog.ProductRecord{{
			ID:  "65a1b2c3d4e5f6a7b8c9d0e1",
			Row: 1,
			Insides: []catalog.ProductInsideItem{{
				Product: "Juice", ActiveSubstance: "Orange", Dosage: "1l", Availability: true, Price: 2.5, ID: 1,
			}},
		}},
	}
}

func (f *adminAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		var creds catalog.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Login != "admin" || creds.Password != "secret" {
			reply(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		reply(w, http.StatusOK, map[string]any{"access_token": f.token})
	})
	mux.HandleFunc("GET /admin/products", f.protected(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, http.StatusOK, f.products)
	}))
	mux.HandleFunc("POST /admin/products", f.protected(func(w http.ResponseWriter, r *http.Request) {
		f.writes.Add(1)
		var rec catalog.ProductRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		rec.ID = "65a1b2c3d4e5f6a7b8c9d0ff"
		f.mu.Lock()
		f.products = append(f.products, rec)
		f.mu.Unlock()
		reply(w, http.StatusCreated, rec)
	}))
	mux.HandleFunc("GET /admin/text", f.protected(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		reply(w, http.StatusOK, catalog.TextContent{Text: f.text})
	}))
	mux.HandleFunc("PATCH /admin/text", f.protected(func(w http.ResponseWriter, r *http.Request) {
		f.writes.Add(1)
		var text catalog.TextContent
		_ = json.NewDecoder(r.Body).Decode(&text)
		f.mu.Lock()
		f.text = text.Text
		f.mu.Unlock()
		reply(w, http.StatusOK, text)
	}))
	return mux
}

func (f *adminAPI) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		f.auths = append(f.auths, auth)
		f.mu.Unlock()
		if auth != "Bearer "+f.token {
			reply(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type cliTest struct {
	api *adminAPI
	url string
	dir string
}

func newCLITest(t *testing.T) *cliTest {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("GOCONSOLE_LOGGING_OUTPUT", "discard")
	t.Setenv(passwordEnv, "")

	api := newAdminAPI(t)
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return &cliTest{api: api, url: srv.URL, dir: dir}
}

func (c *cliTest) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--base-url", c.url}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cliTest) login(t *testing.T) {
	t.Helper()
	if out, err := c.run("login", "-l", "admin", "-p", "secret"); err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
}

func (c *cliTest) writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewRootCmdRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"login", "logout", "status", "products", "text", "validate", "metrics"} {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected subcommand %s to be registered", name)
		}
	}
}

func TestLoginPersistsSessionBetweenInvocations(t *testing.T) {
	c := newCLITest(t)
	t.Setenv(passwordEnv, "secret")

	out, err := c.run("login", "--login", "admin")
	if err != nil {
		t.Fatalf("login failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "state: authenticated") || !strings.Contains(out, "subject: admin") {
		t.Fatalf("unexpected login output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(c.dir, "goconsole", "session.yaml")); err != nil {
		t.Fatalf("expected session file: %v", err)
	}

	out, err = c.run("products", "list")
	if err != nil {
		t.Fatalf("products list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Juice") {
		t.Fatalf("expected product rows, got:\n%s", out)
	}
	if got := c.api.auths[len(c.api.auths)-1]; got != "Bearer "+c.api.token {
		t.Fatalf("expected stored bearer token, got %q", got)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	c := newCLITest(t)

	_, err := c.run("login", "-l", "admin", "-p", "wrong")
	if !errors.Is(err, goConsole.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = c.run("login", "-l", "admin")
	if !errors.Is(err, goConsole.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a missing password, got %v", err)
	}
}

func TestStatusReportsSessionAndPosture(t *testing.T) {
	c := newCLITest(t)

	out, err := c.run("status", "-o", "json")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	var anon statusView
	if err := json.Unmarshal([]byte(out), &anon); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if anon.Session.State != "anonymous" || anon.Session.Subject != "" {
		t.Fatalf("expected anonymous status, got %+v", anon.Session)
	}
	if anon.Security.BaseURL != c.url || anon.Security.StoreBackend != goConsole.StoreFile || !anon.Security.DurableStore {
		t.Fatalf("unexpected posture: %+v", anon.Security)
	}
	if anon.Security.TLS {
		t.Fatal("httptest server is plain http")
	}
	if len(anon.Warnings) == 0 || !strings.Contains(strings.Join(anon.Warnings, "\n"), "audit_disabled") {
		t.Fatalf("expected lint findings, got %v", anon.Warnings)
	}

	c.login(t)
	out, err = c.run("status", "--output", "json")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	var authed statusView
	if err := json.Unmarshal([]byte(out), &authed); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if authed.Session.State != "authenticated" || authed.Session.Subject != "admin" || authed.Session.ExpiresAt == "" {
		t.Fatalf("expected restored session, got %+v", authed.Session)
	}
	if !authed.Session.RefreshDue {
		t.Fatal("a one hour token is within the default refresh threshold")
	}
}

func TestLogoutClearsStoredToken(t *testing.T) {
	c := newCLITest(t)
	c.login(t)

	out, err := c.run("logout")
	if err != nil || !strings.Contains(out, "logged out") {
		t.Fatalf("logout failed: %v\n%s", err, out)
	}

	_, err = c.run("products", "list")
	if !errors.Is(err, goConsole.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
	if got := c.api.auths[len(c.api.auths)-1]; got != "" {
		t.Fatalf("expected no Authorization header after logout, got %q", got)
	}

	if out, err := c.run("logout"); err != nil {
		t.Fatalf("second logout must succeed: %v\n%s", err, out)
	}
}

func TestProductsCreate(t *testing.T) {
	c := newCLITest(t)
	c.login(t)

	valid := c.writeFile(t, "product.yaml", `row: 2
insides:
  - product: Tea
    activeSubstance: Leaf
    dosage: 200ml
    availability: true
    price: 1.5
    id: 1
`)
	out, err := c.run("products", "create", "-f", valid, "-o", "json")
	if err != nil {
		t.Fatalf("create failed: %v\n%s", err, out)
	}
	var rec catalog.ProductRecord
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode created row: %v\n%s", err, out)
	}
	if rec.ID == "" || rec.Row != 2 || len(rec.Insides) != 1 || rec.Insides[0].Product != "Tea" {
		t.Fatalf("unexpected created row: %+v", rec)
	}

	invalid := c.writeFile(t, "bad.json", `{"row": 0, "insides": []}`)
	_, err = c.run("products", "create", "-f", invalid)
	if !errors.Is(err, goConsole.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got := c.api.writes.Load(); got != 1 {
		t.Fatalf("invalid record must not reach the server, writes=%d", got)
	}
}

func TestTextSetRaw(t *testing.T) {
	c := newCLITest(t)
	c.login(t)

	body := c.writeFile(t, "body.html", "<h1>Prices</h1>\n<p>updated</p>")
	out, err := c.run("text", "set", "--raw", "-f", body)
	if err != nil {
		t.Fatalf("text set failed: %v\n%s", err, out)
	}

	out, err = c.run("text", "get", "-o", "json")
	if err != nil {
		t.Fatalf("text get failed: %v\n%s", err, out)
	}
	var text catalog.TextContent
	if err := json.Unmarshal([]byte(out), &text); err != nil {
		t.Fatalf("decode text: %v\n%s", err, out)
	}
	if text.Text != "<h1>Prices</h1>\n<p>updated</p>" {
		t.Fatalf("unexpected text %q", text.Text)
	}
}

func TestValidateCommands(t *testing.T) {
	c := newCLITest(t)

	good := c.writeFile(t, "good.json", `{"row": 3, "insides": [{"product": "A", "activeSubstance": "B", "dosage": "C", "availability": false, "price": 0, "id": 1}]}`)
	out, err := c.run("validate", "product", "-f", good)
	if err != nil {
		t.Fatalf("expected valid product, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "valid: true") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	bad := c.writeFile(t, "bad.yaml", "row: 0\ninsides:\n  - product: A\n")
	out, err = c.run("validate", "product", "-f", bad)
	if !errors.Is(err, errRecordInvalid) {
		t.Fatalf("expected errRecordInvalid, got %v", err)
	}
	if !strings.Contains(out, "valid: false") || !strings.Contains(out, "Row number must be between 1 and 1000") {
		t.Fatalf("expected row message, got:\n%s", out)
	}

	creds := c.writeFile(t, "creds.yaml", "login: admin\n")
	out, err = c.run("validate", "credentials", "-f", creds, "-o", "json")
	if !errors.Is(err, errRecordInvalid) {
		t.Fatalf("expected errRecordInvalid, got %v", err)
	}
	var res resultView
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if res.Valid || len(res.Errors) != 1 || res.Errors[0] != "Password is required and must be a string" {
		t.Fatalf("unexpected result %+v", res)
	}

	text := c.writeFile(t, "text.yaml", "text: \"<p>updated</p>\"\n")
	out, err = c.run("validate", "text", "-f", text)
	if err != nil {
		t.Fatalf("expected the record text set accepts to validate, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "valid: true") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	if _, err := c.run("validate", "text"); err == nil {
		t.Fatal("expected an error without -f")
	}
}

func TestMetricsFormats(t *testing.T) {
	c := newCLITest(t)
	c.login(t)

	out, err := c.run("metrics")
	if err != nil {
		t.Fatalf("metrics failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"goconsole_restore_success_total 1",
		"goconsole_session_authenticated 1",
		"goconsole_breaker_open 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	out, err = c.run("metrics", "--format", "otel")
	if err != nil {
		t.Fatalf("otel metrics failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "goconsole_session_authenticated 1") || !strings.Contains(out, "goconsole_restore_success_total 1") {
		t.Fatalf("unexpected otel output:\n%s", out)
	}

	if _, err := c.run("metrics", "--format", "statsd"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
