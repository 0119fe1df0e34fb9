package http

import (
	"net/http"
	"strconv"
	"time"

	"carverify/internal/domain"

	"github.com/gin-gonic/gin"
)

// enforceRateLimit charges one request against the caller's IP for routeID.
// It writes the response and returns false when the request must stop.
func (s *Server) enforceRateLimit(c *gin.Context, routeID string) bool {
	if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
		return true
	}
	key := "ip:" + c.ClientIP() + ":route:" + routeID

	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", "route", routeID, "fail_closed", s.rateLimitFailClosed, "error", err)
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
			return false
		}
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Header("RateLimit-Remaining", strconv.Itoa(max(decision.Remaining, 0)))
	if decision.ResetAt.IsZero() {
		return
	}
	c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		retry := int64(time.Until(decision.ResetAt).Seconds())
		c.Header("Retry-After", strconv.FormatInt(max(retry, 0), 10))
	}
}
