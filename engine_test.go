package goConsole

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/validation"
	gojwt "github.com/golang-jwt/jwt/v5"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func mintToken(t testing.TB, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("server-side-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// fakeAdminAPI serves the admin endpoints the Engine talks to.
type fakeAdminAPI struct {
	t     *testing.T
	token string

	mu       sync.Mutex
	products []catalog.ProductRecord
	text     string
	auths    []string

	calls      atomic.Int64
	revoked    atomic.Bool
	loginGate  chan struct{}
	loginCalls atomic.Int64
}

func newFakeAdminAPI(t *testing.T, token string) *fakeAdminAPI {
	return &fakeAdminAPI{
		t:     t,
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

func (f *fakeAdminAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls.Add(1)
		if f.loginGate != nil {
			<-f.loginGate
		}
		var creds catalog.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Login != "admin" || creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": f.token,
			"user":         map[string]any{"login": "admin", "role": "admin"},
		})
	})
	mux.HandleFunc("GET /admin/products", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.products)
	})
	mux.HandleFunc("GET /admin/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, p := range f.products {
			if p.ID == r.PathValue("id") {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Product not found"})
	})
	mux.HandleFunc("POST /admin/products", f.protected(func(w http.ResponseWriter, r *http.Request) {
		var rec catalog.ProductRecord
		_ = json.NewDecoder(r.Body).Decode(&rec)
		rec.ID = "65a1b2c3d4e5f6a7b8c9d0e2"
		f.mu.Lock()
		f.products = append(f.products, rec)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, rec)
	}))
	mux.HandleFunc("PATCH /admin/products/insides", f.protected(func(w http.ResponseWriter, r *http.Request) {
		var upd catalog.ProductUpdate
		_ = json.NewDecoder(r.Body).Decode(&upd)
		writeJSON(w, http.StatusOK, catalog.ProductRecord{Row: upd.Row, Insides: upd.Data})
	}))
	mux.HandleFunc("DELETE /admin/products/{id}", f.protected(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.DeleteResult{Message: "Product deleted", ID: r.PathValue("id")})
	}))
	mux.HandleFunc("GET /admin/text", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, catalog.TextContent{Text: f.text})
	})
	mux.HandleFunc("PATCH /admin/text", f.protected(func(w http.ResponseWriter, r *http.Request) {
		var tc catalog.TextContent
		_ = json.NewDecoder(r.Body).Decode(&tc)
		f.mu.Lock()
		f.text = tc.Text
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, tc)
	}))
	mux.HandleFunc("GET /admin/text/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": 1})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.mu.Lock()
		f.auths = append(f.auths, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeAdminAPI) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if f.revoked.Load() || r.Header.Get("Authorization") != "Bearer "+f.token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAdminAPI) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auths) == 0 {
		return ""
	}
	return f.auths[len(f.auths)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type engineTest struct {
	engine  *Engine
	api     *fakeAdminAPI
	clock   *testClock
	backend *session.MemoryBackend
	sink    *ChannelSink
}

func newEngineTest(t *testing.T, mutate func(*Config)) *engineTest {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	token := mintToken(t, gojwt.MapClaims{
		"sub": "admin",
		"iat": clock.Now().Unix(),
		"exp": clock.Now().Add(time.Hour).Unix(),
	})
	api := newFakeAdminAPI(t, token)
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.API.Timeout = 2 * time.Second
	cfg.API.RetryAttempts = 0
	cfg.Audit.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	backend := session.NewMemoryBackend()
	sink := NewChannelSink(64)
	engine, err := New().
		WithConfig(cfg).
		WithTokenBackend(backend).
		WithAuditSink(sink).
		WithLogger(logging.Discard()).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineTest{engine: engine, api: api, clock: clock, backend: backend, sink: sink}
}

func (et *engineTest) login(t *testing.T) *session.Session {
	t.Helper()
	sess, err := et.engine.Login(context.Background(), catalog.Credentials{Login: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return sess
}

func TestLoginEstablishesSession(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()

	sess := et.login(t)
	if et.engine.State() != StateAuthenticated || !et.engine.IsAuthenticated() {
		t.Fatalf("expected authenticated, got %s", et.engine.State())
	}
	if sess.Subject != "admin" || sess.User["role"] != "admin" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if et.engine.IsExpired(sess) {
		t.Fatal("fresh session must not be expired")
	}
	if !sess.ExpiresAt.Equal(et.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", sess.ExpiresAt)
	}

	stored, ok, err := et.engine.store.Load(ctx)
	if err != nil || !ok || stored != et.api.token {
		t.Fatalf("stored token mismatch ok=%v err=%v", ok, err)
	}
	raw, ok, _ := et.backend.Get(ctx, "adminToken")
	if !ok || raw != et.api.token {
		t.Fatal("token must be durable under the default storage key")
	}
	if !strings.HasSuffix(et.api.lastAuth(), "/admin/login ") {
		t.Fatalf("login must not carry a bearer header, got %q", et.api.lastAuth())
	}
}

func TestShouldRefreshScenario(t *testing.T) {
	et := newEngineTest(t, nil)
	sess := et.login(t)

	et.clock.Advance(3000 * time.Second)
	if !et.engine.ShouldRefresh(sess) {
		t.Fatal("expected refresh advice at now+3000s with a 1h threshold")
	}
	if et.engine.IsExpired(sess) {
		t.Fatal("session must not be expired at now+3000s")
	}
	et.clock.Advance(600 * time.Second)
	if !et.engine.IsExpired(sess) || et.engine.IsAuthenticated() {
		t.Fatal("session must be expired at exp")
	}
	if et.engine.ShouldRefresh(nil) || !et.engine.IsExpired(nil) {
		t.Fatal("nil session: expired, never refresh")
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	et := newEngineTest(t, nil)

	_, err := et.engine.Login(context.Background(), catalog.Credentials{Login: "admin", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	var serr *pipeline.StatusError
	if !errors.As(err, &serr) || serr.Message != "Invalid credentials" {
		t.Fatalf("server message must be preserved, got %v", err)
	}
	if et.engine.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", et.engine.State())
	}
	if _, ok, _ := et.engine.store.Load(context.Background()); ok {
		t.Fatal("nothing must be stored after a rejected login")
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("expected one login failure, got %d", got)
	}
}

func TestLoginInvalidInputSkipsNetwork(t *testing.T) {
	et := newEngineTest(t, nil)

	_, err := et.engine.Login(context.Background(), catalog.Credentials{Login: "", Password: strings.Repeat("x", 101)})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var verr *validation.Error
	if !errors.As(err, &verr) || len(verr.Messages) != 2 {
		t.Fatalf("expected both messages, got %v", err)
	}
	if et.api.calls.Load() != 0 {
		t.Fatal("invalid credentials must not reach the server")
	}
	if et.engine.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", et.engine.State())
	}
}

func TestLoginInProgress(t *testing.T) {
	et := newEngineTest(t, nil)
	et.api.loginGate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := et.engine.Login(context.Background(), catalog.Credentials{Login: "admin", Password: "secret"})
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for et.api.loginCalls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first login never reached the server")
		}
		time.Sleep(time.Millisecond)
	}
	if et.engine.State() != StateAuthenticating {
		t.Fatalf("expected authenticating, got %s", et.engine.State())
	}
	if _, err := et.engine.Login(context.Background(), catalog.Credentials{Login: "admin", Password: "secret"}); !errors.Is(err, ErrLoginInProgress) {
		t.Fatalf("expected ErrLoginInProgress, got %v", err)
	}

	close(et.api.loginGate)
	if err := <-done; err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if et.engine.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", et.engine.State())
	}
}

func TestLogoutRoundTripAndIdempotence(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()
	et.login(t)

	if err := et.engine.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, err := et.engine.store.Load(ctx); ok || err != nil {
		t.Fatalf("expected absent token, ok=%v err=%v", ok, err)
	}
	if err := et.engine.Logout(ctx); err != nil {
		t.Fatalf("second logout must succeed: %v", err)
	}
	if et.engine.State() != StateAnonymous || et.engine.Current() != nil {
		t.Fatal("expected anonymous without session")
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricLogout]; got != 1 {
		t.Fatalf("only the logout of a held session is counted, got %d", got)
	}
}

func TestUnauthorizedResponseLogsOut(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()
	et.login(t)
	et.api.revoked.Store(true)

	_, err := et.engine.DeleteProduct(ctx, "65a1b2c3d4e5f6a7b8c9d0e1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if et.engine.State() != StateAnonymous || et.engine.Current() != nil {
		t.Fatalf("expected anonymous after 401, got %s", et.engine.State())
	}
	if _, ok, _ := et.engine.store.Load(ctx); ok {
		t.Fatal("token store must be empty after 401")
	}
	if _, ok, _ := et.backend.Get(ctx, "adminToken"); ok {
		t.Fatal("durable token must be cleared after 401")
	}
	snap := et.engine.MetricsSnapshot()
	if snap.Counters[MetricAutoLogout] != 1 || snap.Counters[MetricRequestUnauthorized] != 1 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
}

func TestBearerAttachedOnlyWhenStored(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()

	if _, err := et.engine.ListProducts(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(et.api.lastAuth(), "Bearer") {
		t.Fatalf("no bearer expected while anonymous, got %q", et.api.lastAuth())
	}

	et.login(t)
	if _, err := et.engine.ListProducts(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasSuffix(et.api.lastAuth(), "Bearer "+et.api.token) {
		t.Fatalf("bearer expected once stored, got %q", et.api.lastAuth())
	}
}

func TestRestore(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()

	sess, err := et.engine.Restore(ctx)
	if sess != nil || err != nil {
		t.Fatalf("empty store must restore nothing, got %v %v", sess, err)
	}

	if err := et.backend.Set(ctx, "adminToken", et.api.token); err != nil {
		t.Fatalf("seed: %v", err)
	}
	sess, err = et.engine.Restore(ctx)
	if err != nil || sess == nil || sess.Subject != "admin" {
		t.Fatalf("expected restored session, got %+v %v", sess, err)
	}
	if et.engine.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", et.engine.State())
	}
}

func TestRestoreDiscardsUnusableTokens(t *testing.T) {
	tests := []struct {
		name  string
		token func(t testing.TB, now time.Time) string
	}{
		{"expired", func(t testing.TB, now time.Time) string {
			return mintToken(t, gojwt.MapClaims{"sub": "admin", "exp": now.Add(-time.Minute).Unix()})
		}},
		{"malformed", func(testing.TB, time.Time) string { return "not-a-token" }},
		{"no exp", func(t testing.TB, _ time.Time) string { return mintToken(t, gojwt.MapClaims{"sub": "admin"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			et := newEngineTest(t, nil)
			ctx := context.Background()
			if err := et.backend.Set(ctx, "adminToken", tt.token(t, et.clock.Now())); err != nil {
				t.Fatalf("seed: %v", err)
			}

			sess, err := et.engine.Restore(ctx)
			if sess != nil || err != nil {
				t.Fatalf("expected nil, nil; got %v %v", sess, err)
			}
			if et.engine.State() != StateAnonymous {
				t.Fatalf("expected anonymous, got %s", et.engine.State())
			}
			if _, ok, _ := et.backend.Get(ctx, "adminToken"); ok {
				t.Fatal("unusable token must be cleared")
			}
		})
	}
}

func TestTimeoutKeepsSession(t *testing.T) {
	et := newEngineTest(t, func(c *Config) { c.API.Timeout = 50 * time.Millisecond })
	et.login(t)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()

	p, err := pipeline.New(pipeline.Config{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, pipeline.Options{
		Tokens:         et.engine.store,
		OnUnauthorized: et.engine.autoLogout,
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	et.engine.pipeline = p

	_, err = et.engine.ListProducts(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if et.engine.State() != StateAuthenticated {
		t.Fatalf("timeout must not change session state, got %s", et.engine.State())
	}
}

func TestTokenHelpers(t *testing.T) {
	et := newEngineTest(t, nil)

	if !et.engine.TokenExpired("garbage") {
		t.Fatal("undecodable token is expired")
	}
	if et.engine.TokenExpired(et.api.token) {
		t.Fatal("fresh token is not expired")
	}
	exp, ok := et.engine.ExpiresAt(et.api.token)
	if !ok || !exp.Equal(et.clock.Now().Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v %v", exp, ok)
	}
	if _, ok := et.engine.ExpiresAt("a.b"); ok {
		t.Fatal("two segments must not decode")
	}
}

func TestAuditEventsForLifecycle(t *testing.T) {
	et := newEngineTest(t, nil)
	ctx := context.Background()

	et.login(t)
	if err := et.engine.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _ = et.engine.Login(ctx, catalog.Credentials{Login: "admin", Password: "nope"})

	want := []struct {
		event   string
		success bool
		code    string
	}{
		{auditEventLoginSuccess, true, ""},
		{auditEventLogout, true, ""},
		{auditEventLoginFailure, false, string(auditErrInvalidCredentials)},
	}
	for i, w := range want {
		select {
		case ev := <-et.sink.Events():
			if ev.EventType != w.event || ev.Success != w.success || ev.Error != w.code {
				t.Fatalf("event %d: got %+v, want %+v", i, ev, w)
			}
			if ev.Subject != "admin" {
				t.Fatalf("event %d: unexpected subject %q", i, ev.Subject)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d (%s) not delivered", i, w.event)
		}
	}
}

func TestEngineNotReady(t *testing.T) {
	var e Engine
	if _, err := e.Login(context.Background(), catalog.Credentials{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(context.Background()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.ListProducts(context.Background()); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithLogger(logging.Discard())
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second build")
	}
}
