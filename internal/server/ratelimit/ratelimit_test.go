package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock is a settable time source for deterministic refill tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, limit int, endpoints ...EndpointConfig) *Limiter {
	return NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    limit,
		DefaultWindow:   time.Minute,
		EndpointConfigs: endpoints,
		Now:             clock.Now,
	})
}

func TestTokenBucket_TakeAndRefill(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(10, 1.0, start)

	for i := 0; i < 10; i++ {
		if ok, _, _ := bucket.take(start); !ok {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}
	if ok, _, _ := bucket.take(start); ok {
		t.Fatal("expected 11th request to be denied")
	}

	later := start.Add(1100 * time.Millisecond)
	if ok, _, _ := bucket.take(later); !ok {
		t.Error("expected request to be allowed after refill")
	}
	if ok, _, _ := bucket.take(later); ok {
		t.Error("expected request to be denied after consuming refilled token")
	}
}

func TestTokenBucket_ResetTime(t *testing.T) {
	start := time.Now()
	bucket := newTokenBucket(10, 1.0, start)

	var remaining int
	var reset time.Time
	for i := 0; i < 5; i++ {
		_, remaining, reset = bucket.take(start)
	}
	if remaining != 5 {
		t.Errorf("expected 5 remaining tokens, got %d", remaining)
	}
	if want := start.Add(5 * time.Second); !reset.Equal(want) {
		t.Errorf("expected reset at %v, got %v", want, reset)
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock, 3)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet)
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if info.Limit != 3 || info.Remaining != 2-i {
			t.Errorf("request %d: got limit=%d remaining=%d", i+1, info.Limit, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet)
	if allowed {
		t.Fatal("4th request should be denied")
	}
	if info.RetryAfter < 19*time.Second || info.RetryAfter > 21*time.Second {
		t.Errorf("expected retry after about 20s at 3/min, got %v", info.RetryAfter)
	}

	// Other clients have their own buckets.
	if allowed, _ := limiter.Allow("10.0.0.2", "/v1/record", http.MethodGet); !allowed {
		t.Error("a different client should not be limited")
	}

	clock.Advance(21 * time.Second)
	if allowed, _ := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet); !allowed {
		t.Error("one token should have refilled")
	}
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.9": true},
		Blacklist:     map[string]bool{"10.0.0.66": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("10.0.0.9", "/v1/record", http.MethodGet); !allowed {
			t.Fatal("whitelisted client must never be limited")
		}
	}
	if allowed, _ := limiter.Allow("10.0.0.66", "/v1/record", http.MethodGet); allowed {
		t.Error("blacklisted client must always be rejected")
	}

	disabled := NewLimiter(&Config{Enabled: false})
	defer disabled.Stop()
	for i := 0; i < 5; i++ {
		if allowed, _ := disabled.Allow("10.0.0.1", "/v1/record", http.MethodGet); !allowed {
			t.Fatal("disabled limiter must allow everything")
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock, 100, DefaultEndpointConfigs()...)
	defer limiter.Stop()

	// Login allows a burst of 5.
	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/v1/auth/login", http.MethodPost); !allowed {
			t.Fatalf("login attempt %d should be allowed", i+1)
		}
	}
	allowed, info := limiter.Allow("10.0.0.1", "/v1/auth/login", http.MethodPost)
	if allowed {
		t.Error("6th login attempt should be denied")
	}
	if info.Limit != 10 {
		t.Errorf("expected login limit 10, got %d", info.Limit)
	}

	// Reads are on the default limit.
	if _, info := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet); info.Limit != 100 {
		t.Errorf("expected default limit 100, got %d", info.Limit)
	}

	// Health is unlimited.
	for i := 0; i < 200; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/health", http.MethodGet); !allowed {
			t.Fatal("health must never be limited")
		}
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/v1/auth/login", http.MethodPost, "/v1/auth/login"},
		{"/v1/record/semesters", http.MethodPost, "/v1/record/semesters"},
		{"/v1/record/semesters/3", http.MethodPut, "/v1/record/semesters/"},
		{"/v1/record/semesters/3", http.MethodDelete, "/v1/record/semesters/"},
		{"/v1/record/semesters/3", http.MethodGet, ""},
		{"/v1/record", http.MethodGet, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantPath == "" {
				if got != nil {
					t.Errorf("expected default limit, matched %q", got.Path)
				}
				return
			}
			if got == nil || got.Path != tt.wantPath {
				t.Errorf("expected match %q, got %+v", tt.wantPath, got)
			}
		})
	}

	if ep := MatchEndpoint("/health", http.MethodGet, configs); ep == nil || ep.Limit != 0 {
		t.Errorf("health should match an unlimited config, got %+v", ep)
	}
}

func TestMatchEndpoint_LongestPrefixWins(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/v1/", Method: http.MethodPut, Limit: 1},
		{Path: "/v1/record/", Method: http.MethodPut, Limit: 2},
	}
	got := MatchEndpoint("/v1/record/semesters/1", http.MethodPut, configs)
	if got == nil || got.Limit != 2 {
		t.Errorf("expected the longer prefix, got %+v", got)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	clock := newFakeClock()
	limiter := newTestLimiter(clock, 50)
	defer limiter.Stop()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 50 {
		t.Errorf("expected exactly 50 allowed requests with a frozen clock, got %d", got)
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTTL:       time.Hour,
		Now:           clock.Now,
	})
	defer limiter.Stop()

	limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet)
	clock.Advance(30 * time.Minute)
	limiter.Allow("10.0.0.2", "/v1/record", http.MethodGet)
	clock.Advance(31 * time.Minute)

	if removed := limiter.Cleanup(); removed != 1 {
		t.Errorf("expected 1 idle bucket removed, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 bucket left, got %d", limiter.Len())
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("10.0.0.1", "/v1/record", http.MethodGet)
	if !allowed || info.Limit != defaultLimit {
		t.Errorf("expected default limit %d, got allowed=%v limit=%d", defaultLimit, allowed, info.Limit)
	}
	limiter.Stop() // second Stop must not panic
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1 , ,10.0.0.2")

	cfg := LoadConfig()
	if !cfg.Enabled || cfg.DefaultLimit != 42 || cfg.DefaultWindow != 30*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.Whitelist) != 2 || !cfg.Whitelist["10.0.0.2"] {
		t.Errorf("unexpected whitelist: %v", cfg.Whitelist)
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if LoadConfig().Enabled {
		t.Error("RATE_LIMIT_ENABLED=false should disable limiting")
	}
}
