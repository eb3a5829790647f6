// Command goconsole-loadtest measures token-store reads and authenticated
// API calls under concurrency against an in-process admin API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/internal/logging"
	"github.com/MrEthical07/goConsole/session"
	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	var (
		rows        = pflag.Int("rows", 200, "number of catalog rows served by the fake API")
		concurrency = pflag.Int("concurrency", 64, "number of concurrent workers")
		ops         = pflag.Int("ops", 50000, "operations per phase (token read + list)")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "goconsole-loadtest", "token key prefix")
	)
	pflag.Parse()

	if *rows <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "rows, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	token, err := issueToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	srv := httptest.NewServer(fakeAPI(token, *rows))
	defer srv.Close()

	cfg := goConsole.DefaultConfig()
	cfg.API.BaseURL = srv.URL
	cfg.API.RetryAttempts = 0
	cfg.Store.Backend = goConsole.StoreRedis
	cfg.Store.RedisPrefix = *prefix
	cfg.Breaker.Enabled = false

	engine, err := goConsole.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(logging.Discard()).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	if _, err := engine.Login(ctx, catalog.Credentials{Login: "loadtest", Password: "loadtest"}); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	// Reads go to the backend directly; a Store would serve them from its
	// in-process slot after the first load.
	backend := session.NewRedisBackend(client, *prefix, 0)
	key := session.NewStore(backend, cfg.JWT.StorageKey).Key()

	tokenStats := runPhase(*ops, *concurrency, func() error {
		_, ok, err := backend.Get(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("token missing")
		}
		return nil
	})
	listStats := runPhase(*ops, *concurrency, func() error {
		_, err := engine.ListProducts(ctx)
		return err
	})

	fmt.Println("---- results ----")
	printStats("token", tokenStats)
	printStats("list", listStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("requests=%d unauthorized=%d unreachable=%d\n",
		snap.Counters[goConsole.MetricRequestTotal],
		snap.Counters[goConsole.MetricRequestUnauthorized],
		snap.Counters[goConsole.MetricRequestUnreachable],
	)
}

func runPhase(ops, concurrency int, op func() error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op()
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func issueToken() (string, error) {
	now := time.Now()
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub": "loadtest",
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	}).SignedString([]byte("loadtest"))
}

// fakeAPI accepts any login and serves rows products to bearer holders.
func fakeAPI(token string, rows int) http.Handler {
	products := make([]catalog.ProductRecord, rows)
	for i := range products {
		products[i] = catalog.ProductRecord{
			ID:  fmt.Sprintf("%024x", i+1),
			Row: i + 1,
			Insides: []catalog.ProductInsideItem{{
				Product: "Juice", ActiveSubstance: "Orange", Dosage: "1l", Availability: true, Price: 2.5, ID: 1,
			}},
		}
	}
	body, _ := json.Marshal(products)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token})
	})
	mux.HandleFunc("GET /admin/products", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
	return mux
}
