package middlewares

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/finledger/internal/actorctx"
	"github.com/geocoder89/finledger/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	userID string
	err    error
}

func (f fakeVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Claims{UserID: f.userID}, nil
}

type countingEvents struct {
	results []string
}

func (c *countingEvents) AuthEvent(_, result string) {
	c.results = append(c.results, result)
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		want     int
		wantCode string
	}{
		{"no header", "", fakeVerifier{userID: "u1"}, http.StatusUnauthorized, "unauthorized"},
		{"not bearer", "Basic abc", fakeVerifier{userID: "u1"}, http.StatusUnauthorized, "unauthorized"},
		{"empty token", "Bearer   ", fakeVerifier{userID: "u1"}, http.StatusUnauthorized, "unauthorized"},
		{"bad token", "Bearer nope", fakeVerifier{err: errors.New("bad")}, http.StatusUnauthorized, "invalid_token"},
		{"ok", "Bearer good", fakeVerifier{userID: "u1"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &countingEvents{}
			m := NewAuthMiddleware(tt.verifier, events)

			r := gin.New()
			r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
				ginID, _ := UserIDFromContext(c)
				ctxID, _ := actorctx.UserIDFrom(c.Request.Context())
				c.String(http.StatusOK, ginID+"|"+ctxID)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.want, w.Body.String())
			}
			if tt.wantCode != "" && !strings.Contains(w.Body.String(), `"code":"`+tt.wantCode+`"`) {
				t.Fatalf("body %s missing code %q", w.Body.String(), tt.wantCode)
			}
			if tt.want == http.StatusOK && w.Body.String() != "u1|u1" {
				t.Fatalf("identity not propagated: %s", w.Body.String())
			}
			if len(events.results) != 1 {
				t.Fatalf("expected one auth event, got %v", events.results)
			}
		})
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.Allow(context.Background(), "k"); !ok {
			t.Fatalf("hit %d should be allowed", i+1)
		}
	}

	ok, retry, _ := l.Allow(context.Background(), "k")
	if ok {
		t.Fatal("third hit should be limited")
	}
	if retry != time.Minute {
		t.Fatalf("retryAfter = %v, want 1m", retry)
	}

	if ok, _, _ := l.Allow(context.Background(), "other"); !ok {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _, _ := l.Allow(context.Background(), "k"); !ok {
		t.Fatal("new window should allow again")
	}
}

type hitCounter struct {
	kinds []string
}

func (h *hitCounter) RateLimitHit(kind string) {
	h.kinds = append(h.kinds, kind)
}

func TestRateLimitMiddleware(t *testing.T) {
	hits := &hitCounter{}
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", RateLimit(NewMemoryLimiter(1, time.Minute), KeyByIP, hits, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if !strings.Contains(w.Body.String(), `"requestId"`) {
		t.Fatalf("error envelope should carry the request id: %s", w.Body.String())
	}
	if len(hits.kinds) != 1 || hits.kinds[0] != "ip" {
		t.Fatalf("hits = %v", hits.kinds)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, time.Duration, error) {
	return false, 0, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := gin.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r.GET("/x", RateLimit(brokenLimiter{}, KeyByIP, nil, log), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

// fakeScripter runs the fixed-window script's logic in memory.
type fakeScripter struct {
	redis.Scripter
	counts map[string]int64
	ttl    int64
}

func (f *fakeScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.counts[keys[0]]++
	return redis.NewCmdResult([]interface{}{f.counts[keys[0]], f.ttl}, nil)
}

func TestRedisLimiter(t *testing.T) {
	fake := &fakeScripter{counts: map[string]int64{}, ttl: 1500}
	l := NewRedisLimiter(fake, 2, 2*time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "user:u1")
		if err != nil || !ok {
			t.Fatalf("hit %d: ok=%v err=%v", i+1, ok, err)
		}
	}

	ok, retry, err := l.Allow(ctx, "user:u1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("third hit should be limited")
	}
	if retry != 1500*time.Millisecond {
		t.Fatalf("retryAfter = %v", retry)
	}
	if _, seen := fake.counts["finledger:ratelimit:user:u1"]; !seen {
		t.Fatalf("unexpected keys: %v", fake.counts)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.DELETE("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		method, ct string
		want       int
	}{
		{http.MethodPost, "", http.StatusUnsupportedMediaType},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "Application/JSON", http.StatusOK},
		{http.MethodPost, "application/jsonp", http.StatusUnsupportedMediaType},
		{http.MethodDelete, "", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/x", strings.NewReader("{}"))
		if tt.ct != "" {
			req.Header.Set("Content-Type", tt.ct)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Fatalf("%s %q: status = %d, want %d", tt.method, tt.ct, w.Code, tt.want)
		}
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"0123456789"}`)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("PATCH must be allowed: %q", w.Header().Get("Access-Control-Allow-Methods"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}
