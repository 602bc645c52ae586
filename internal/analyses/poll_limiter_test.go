package analyses

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestPollLimiterEnforcesInterval(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)}
	l := newPollLimiter(time.Second, clock.Now)

	if ok, _ := l.Allow("10.0.0.1", "a"); !ok {
		t.Fatalf("first read should pass")
	}
	clock.Advance(300 * time.Millisecond)
	ok, wait := l.Allow("10.0.0.1", "a")
	if ok || wait != 700*time.Millisecond {
		t.Fatalf("expected throttle with 700ms wait, got %v %v", ok, wait)
	}
	if ok, _ := l.Allow("10.0.0.2", "a"); !ok {
		t.Fatalf("other clients have their own budget")
	}
	if ok, _ := l.Allow("10.0.0.1", "b"); !ok {
		t.Fatalf("other analyses have their own budget")
	}
	clock.Advance(700 * time.Millisecond)
	if ok, _ := l.Allow("10.0.0.1", "a"); !ok {
		t.Fatalf("read after the interval should pass")
	}
}

func TestPollLimiterPrunesStaleEntries(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)}
	l := newPollLimiter(time.Second, clock.Now)

	for i := 0; i < pollPruneEvery-1; i++ {
		l.Allow("10.0.0.1", randomID())
	}
	clock.Advance(2 * time.Second)
	l.Allow("10.0.0.1", "fresh")
	if got := l.len(); got != 1 {
		t.Fatalf("expected stale reads pruned, %d entries left", got)
	}
}

func TestNilPollLimiterAllows(t *testing.T) {
	var l *pollLimiter
	if ok, _ := l.Allow("c", "a"); !ok {
		t.Fatalf("nil limiter must allow")
	}
}

func TestGetEndpointThrottlesRepeatedPolls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	a := createPending(t, svc)

	clock := &stepClock{now: time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)}
	h := NewHandler(svc)
	h.LimitPolling(time.Second, clock.Now)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))

	get := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/"+a.ID, nil)
		req.RemoteAddr = remote
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	if resp := get("10.0.0.1:4000"); resp.Code != http.StatusOK {
		t.Fatalf("first poll expected 200, got %d", resp.Code)
	}
	resp := get("10.0.0.1:4001")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second poll expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}
	if resp := get("10.0.0.2:4000"); resp.Code != http.StatusOK {
		t.Fatalf("other client expected 200, got %d", resp.Code)
	}
	clock.Advance(time.Second)
	if resp := get("10.0.0.1:4002"); resp.Code != http.StatusOK {
		t.Fatalf("poll after interval expected 200, got %d", resp.Code)
	}
}
