package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRetryAfter = 2 * time.Second
	maxRetryAfter     = time.Minute
)

// HostLimiter paces requests per host. A host that answered 429 can be
// paused as a whole until its Retry-After has passed.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*hostState
	every rate.Limit
	burst int
}

type hostState struct {
	lim         *rate.Limiter
	pausedUntil time.Time
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		hosts: make(map[string]*hostState),
		every: rate.Limit(reqPerSec),
		burst: max(burst, 1),
	}
}

func (hl *HostLimiter) state(host string) *hostState {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if st, ok := hl.hosts[host]; ok {
		return st
	}
	st := &hostState{lim: rate.NewLimiter(hl.every, hl.burst)}
	hl.hosts[host] = st
	return st
}

// Wait blocks until a request to rawURL may go out.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	st := hl.state(hostOf(rawURL))

	hl.mu.Lock()
	pause := time.Until(st.pausedUntil)
	hl.mu.Unlock()

	if pause > 0 {
		t := time.NewTimer(pause)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return st.lim.Wait(ctx)
}

// Pause holds back every request to rawURL's host for d. A shorter pause
// never cuts a longer one short.
func (hl *HostLimiter) Pause(rawURL string, d time.Duration) {
	st := hl.state(hostOf(rawURL))
	until := time.Now().Add(d)

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if until.After(st.pausedUntil) {
		st.pausedUntil = until
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "_"
	}
	return strings.ToLower(u.Host)
}

// retryAfter reads a Retry-After header in seconds or HTTP-date form,
// clamped to a minute.
func retryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return defaultRetryAfter
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	} else {
		return defaultRetryAfter
	}
	return min(max(d, 0), maxRetryAfter)
}
