package goConsole

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

type redisEngineTest struct {
	mr    *miniredis.Miniredis
	rdb   redis.UniversalClient
	api   *fakeAdminAPI
	clock *testClock
	cfg   Config
}

func newRedisEngineTest(t *testing.T) *redisEngineTest {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &testClock{now: time.Now().Truncate(time.Second)}
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
	cfg.Store.Backend = StoreRedis
	cfg.Store.RedisPrefix = "console-test"
	cfg.Store.RedisTTL = 2 * time.Hour

	return &redisEngineTest{mr: mr, rdb: rdb, api: api, clock: clock, cfg: cfg}
}

func validCreds() catalog.Credentials {
	return catalog.Credentials{Login: "admin", Password: "secret"}
}

func (rt *redisEngineTest) build(t *testing.T, withClient bool) *Engine {
	t.Helper()
	b := New().
		WithConfig(rt.cfg).
		WithLogger(logging.Discard()).
		WithClock(rt.clock.Now)
	if withClient {
		b = b.WithRedis(rt.rdb)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestRedisBackendSharesSessionAcrossEngines(t *testing.T) {
	rt := newRedisEngineTest(t)
	ctx := context.Background()
	const key = "console-test:adminToken"

	first := rt.build(t, true)
	if _, err := first.Login(ctx, validCreds()); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	raw, err := rt.mr.Get(key)
	if err != nil || raw != rt.api.token {
		t.Fatalf("expected token under %s, got %q err=%v", key, raw, err)
	}
	if ttl := rt.mr.TTL(key); ttl != 2*time.Hour {
		t.Fatalf("expected 2h TTL, got %s", ttl)
	}

	second := rt.build(t, true)
	sess, err := second.Restore(ctx)
	if err != nil || sess == nil || sess.Subject != "admin" {
		t.Fatalf("expected restored session, got %+v err=%v", sess, err)
	}
	if _, err := second.ListProducts(ctx); err != nil {
		t.Fatalf("restored engine must call the API: %v", err)
	}

	if err := first.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if rt.mr.Exists(key) {
		t.Fatal("logout must delete the redis key")
	}

	third := rt.build(t, true)
	sess, err = third.Restore(ctx)
	if err != nil || sess != nil || third.State() != StateAnonymous {
		t.Fatalf("expected no session after logout, got %+v err=%v", sess, err)
	}
}

func TestRedisBackendDialsConfiguredAddr(t *testing.T) {
	rt := newRedisEngineTest(t)
	rt.cfg.Store.RedisAddr = rt.mr.Addr()
	ctx := context.Background()

	engine := rt.build(t, false)
	if _, err := engine.Login(ctx, validCreds()); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !rt.mr.Exists("console-test:adminToken") {
		t.Fatal("expected token written through the owned client")
	}
}

func TestRedisTTLExpiryLeavesNoSession(t *testing.T) {
	rt := newRedisEngineTest(t)
	ctx := context.Background()

	first := rt.build(t, true)
	if _, err := first.Login(ctx, validCreds()); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	rt.mr.FastForward(3 * time.Hour)

	second := rt.build(t, true)
	sess, err := second.Restore(ctx)
	if err != nil || sess != nil {
		t.Fatalf("expected nothing to restore after TTL, got %+v err=%v", sess, err)
	}
}

func TestRedisUnavailableRestore(t *testing.T) {
	rt := newRedisEngineTest(t)
	rt.cfg.API.Timeout = 500 * time.Millisecond
	engine := rt.build(t, true)
	rt.mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := engine.Restore(ctx)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if engine.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %s", engine.State())
	}
}
