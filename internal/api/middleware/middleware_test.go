package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lifestyle-recommender/internal/infrastructure/metrics"
	"lifestyle-recommender/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/echo", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestRateLimit_PerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, time.Minute)
	defer rl.Stop()
	r := newEngine(RateLimit(rl))

	before := testutil.ToFloat64(metrics.RateLimited)
	alice := map[string]string{HeaderClientID: "alice"}
	for i := 0; i < 2; i++ {
		if w := do(r, http.MethodGet, "/echo", "", alice); w.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d, want 204", i, w.Code)
		}
	}

	w := do(r, http.MethodGet, "/echo", "", alice)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if got := decodeError(t, w).Code; got != common.ErrCodeTooManyRequests {
		t.Errorf("code = %q, want %q", got, common.ErrCodeTooManyRequests)
	}
	if got := testutil.ToFloat64(metrics.RateLimited) - before; got != 1 {
		t.Errorf("RateLimited delta = %v, want 1", got)
	}

	// 其他用戶端不受影響
	if w := do(r, http.MethodGet, "/echo", "", map[string]string{HeaderClientID: "bob"}); w.Code != http.StatusNoContent {
		t.Errorf("other client status = %d, want 204", w.Code)
	}

	rl.Reset()
	if w := do(r, http.MethodGet, "/echo", "", alice); w.Code != http.StatusNoContent {
		t.Errorf("after Reset status = %d, want 204", w.Code)
	}
}

func TestRateLimiter_CleanupIdle(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(30 * time.Second)
	rl.Allow("b")
	now = now.Add(45 * time.Second)

	if removed := rl.cleanup(); removed != 1 {
		t.Errorf("cleanup() removed %d, want 1", removed)
	}
	if rl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rl.Len())
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"client id wins", map[string]string{HeaderClientID: " abc ", HeaderClientType: "ios"}, "id:abc"},
		{"ip and type", map[string]string{HeaderClientType: "Android"}, "ip:192.0.2.1:android"},
		{"ip default type", nil, "ip:192.0.2.1:web"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			if got := ClientKey(c); got != tt.want {
				t.Errorf("ClientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeduplication(t *testing.T) {
	g := NewDedupGuard(time.Minute)
	defer g.Stop()
	r := newEngine(Deduplication(g))

	body := `{"category":"food"}`
	if w := do(r, http.MethodPost, "/echo", body, nil); w.Code != http.StatusNoContent {
		t.Fatalf("first status = %d, want 204", w.Code)
	}

	w := do(r, http.MethodPost, "/echo", body, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("duplicate status = %d, want 429", w.Code)
	}
	if got := decodeError(t, w).Code; got != common.ErrCodeDuplicateRequest {
		t.Errorf("code = %q, want %q", got, common.ErrCodeDuplicateRequest)
	}

	if w := do(r, http.MethodPost, "/echo", `{"category":"travel"}`, nil); w.Code != http.StatusNoContent {
		t.Errorf("different body status = %d, want 204", w.Code)
	}
	if w := do(r, http.MethodPost, "/echo", body, map[string]string{HeaderClientID: "other"}); w.Code != http.StatusNoContent {
		t.Errorf("different client status = %d, want 204", w.Code)
	}
	if w := do(r, http.MethodGet, "/echo", "", nil); w.Code != http.StatusNoContent {
		t.Errorf("GET status = %d, GET must not be deduplicated", w.Code)
	}

	g.Reset()
	if w := do(r, http.MethodPost, "/echo", body, nil); w.Code != http.StatusNoContent {
		t.Errorf("after Reset status = %d, want 204", w.Code)
	}
}

func TestDedupGuard_WindowExpires(t *testing.T) {
	g := NewDedupGuard(time.Second)
	defer g.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	if g.Seen("fp") {
		t.Fatal("first Seen() = true")
	}
	if !g.Seen("fp") {
		t.Fatal("second Seen() within window = false")
	}
	now = now.Add(2 * time.Second)
	if g.Seen("fp") {
		t.Error("Seen() after window = true")
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(16))

	if w := do(r, http.MethodPost, "/echo", `{"a":1}`, nil); w.Code != http.StatusNoContent {
		t.Errorf("small body status = %d, want 204", w.Code)
	}
	w := do(r, http.MethodPost, "/echo", strings.Repeat("x", 64), nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body status = %d, want 413", w.Code)
	}
	if got := decodeError(t, w).Code; got != common.ErrCodeRequestTooLarge {
		t.Errorf("code = %q, want %q", got, common.ErrCodeRequestTooLarge)
	}
}

func TestRecovery(t *testing.T) {
	r := newEngine(requestid.New(), Recovery(), Logger())

	w := do(r, http.MethodGet, "/panic", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := decodeError(t, w).Code; got != common.ErrCodeInternalError {
		t.Errorf("code = %q, want %q", got, common.ErrCodeInternalError)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestMetrics(t *testing.T) {
	r := newEngine(Metrics())

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/echo", "204"))
	do(r, http.MethodGet, "/echo", "", nil)
	after := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/echo", "204"))
	if after-before != 1 {
		t.Errorf("HTTPRequests delta = %v, want 1", after-before)
	}
}
