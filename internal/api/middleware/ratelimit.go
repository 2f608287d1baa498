package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/val/markdown-notes/internal/api/response"
)

// Policy is one row of the rate-limit table: at most Requests per Window per
// client IP.
type Policy struct {
	Requests int
	Window   time.Duration
	Message  string
}

// PolicySet is the fixed policy table the routes consume.
type PolicySet struct {
	App           Policy
	Login         Policy
	CreateAccount Policy
	Resend        Policy
}

func DefaultPolicies() PolicySet {
	return PolicySet{
		App:           Policy{Requests: 200, Window: 15 * time.Minute, Message: "Too many requests. Try again later"},
		Login:         Policy{Requests: 10, Window: 15 * time.Minute, Message: "Too many login attempts. Please try again later."},
		CreateAccount: Policy{Requests: 5, Window: 15 * time.Minute, Message: "Too many accounts created from this IP. Please try again later."},
		Resend:        Policy{Requests: 3, Window: 15 * time.Minute, Message: "Too many resend requests. Please try again later."},
	}
}

// RateLimit builds a tollbooth limiter for the policy and rejects over-limit
// requests with the standard envelope.
func RateLimit(p Policy) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(float64(p.Requests)/p.Window.Seconds(), &limiter.ExpirableOptions{
		DefaultExpirationTTL: p.Window,
	})
	lmt.SetBurst(p.Requests)
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
				response.Fail(w, http.StatusTooManyRequests, p.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
