package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/jarvis4everyone/subscription-backend/api/responses"
	pkgerrors "github.com/jarvis4everyone/subscription-backend/pkg/errors"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

const (
	maxRateLimitBody  = 64 << 10
	rateLimitedDetail = "Too many attempts. Please try again later."
)

// RateLimiter counts hits per scope in fixed windows.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy caps attempts against one auth endpoint, separately per
// client IP and per submitted email. A zero limit turns that counter off.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	if name = strings.ToLower(strings.TrimSpace(name)); name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) active() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateSubject is one counter a request is charged against.
type rateSubject struct {
	kind  string
	value string
	limit int
}

// AuthRateLimit answers 429 as soon as any counter is over its limit and 503
// when the counter store fails. With a nil limiter it passes everything.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjects, err := policy.subjects(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			for _, s := range subjects {
				if !policy.charge(w, r, limiter, logg, s) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjects lists the counters for r. Reading the email buffers the body and
// puts it back for the handler.
func (p AuthRateLimitPolicy) subjects(r *http.Request) ([]rateSubject, error) {
	var out []rateSubject
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			out = append(out, rateSubject{kind: "ip", value: ip, limit: p.ipLimit})
		}
	}
	if p.emailLimit > 0 {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRateLimitBody))
		if err != nil {
			return nil, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var payload struct {
			Email string `json:"email"`
		}
		_ = json.Unmarshal(body, &payload)
		if email := strings.ToLower(strings.TrimSpace(payload.Email)); email != "" {
			sum := sha256.Sum256([]byte(email))
			out = append(out, rateSubject{kind: "email", value: hex.EncodeToString(sum[:]), limit: p.emailLimit})
		}
	}
	return out, nil
}

func (p AuthRateLimitPolicy) charge(w http.ResponseWriter, r *http.Request, limiter RateLimiter, logg *logger.Logger, s rateSubject) bool {
	ctx := r.Context()
	allowed, attempts, err := limiter.FixedWindowAllow(ctx, p.name+":"+s.kind+":"+s.value, int64(s.limit), p.window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false
	}
	if allowed {
		return true
	}
	logg.Warn(logg.WithFields(ctx, map[string]any{
		"policy":         p.name,
		"scope":          s.kind,
		"attempts":       attempts,
		"limit":          s.limit,
		"window_seconds": int(p.window.Seconds()),
	}), "auth.rate_limit.blocked")
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, rateLimitedDetail))
	return false
}

// clientIP takes the first parseable X-Forwarded-For hop, then X-Real-IP, then
// the socket peer.
func clientIP(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(hop)); err == nil {
			return addr.String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
