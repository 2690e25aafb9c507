package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-API-Key"

	// limiterIdle is how long a client's bucket lives without requests.
	limiterIdle = 10 * time.Minute
)

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// apiKeyMiddleware admits requests carrying one of keys as a bearer token or
// X-API-Key header.
func apiKeyMiddleware(keys []string) func(http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch key := requestAPIKey(r); {
			case key == "":
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			case !allowed[key]:
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func rateLimitMiddleware(rpm, burst int) func(http.Handler) http.Handler {
	buckets := &bucketSet{
		every:   rate.Every(time.Minute / time.Duration(max(rpm, 1))),
		burst:   max(burst, 1),
		clients: map[string]*bucket{},
		now:     time.Now,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := buckets.reserve(clientKey(r))
			if res != 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.Round(time.Second)/time.Second)+1))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// clientKey buckets by API key, falling back to the remote host.
func clientKey(r *http.Request) string {
	if key := requestAPIKey(r); key != "" {
		return "key:" + key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

type bucketSet struct {
	every   rate.Limit
	burst   int
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*bucket
	swept   time.Time
}

// reserve takes a token for client. It returns zero when the request may
// proceed, otherwise how long until a token is available.
func (s *bucketSet) reserve(client string) time.Duration {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.swept) > limiterIdle {
		for k, b := range s.clients {
			if now.Sub(b.seen) > limiterIdle {
				delete(s.clients, k)
			}
		}
		s.swept = now
	}
	b, ok := s.clients[client]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.every, s.burst)}
		s.clients[client] = b
	}
	b.seen = now
	if b.limiter.AllowN(now, 1) {
		return 0
	}
	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	if delay <= 0 {
		delay = time.Second
	}
	return delay
}
