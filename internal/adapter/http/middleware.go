package httpadapter

import (
	"context"
	"strings"
	"time"

	"gamesage/internal/logging"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware propagates or assigns a correlation id and logs the
// request once it completes.
func requestIDMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := strings.TrimSpace(string(ctx.GetHeader(requestIDHeader)))
		if id == "" {
			id = logging.NewCorrelationID()
		}
		ctx.Response.Header.Set(requestIDHeader, id)
		c = logging.ContextWithCorrelationID(c, id)

		start := time.Now()
		ctx.Next(c)

		logging.Ctx(c).Debug().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// rateLimitMiddleware rejects requests beyond the limiter's budget with 429.
// A nil limiter disables throttling.
func rateLimitMiddleware(l *rate.Limiter) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if l != nil && !l.Allow() {
			writeErrorBody(ctx, consts.StatusTooManyRequests, "rate_limited", "too many requests")
			ctx.Abort()
			return
		}
		ctx.Next(c)
	}
}

// NewLimiter builds the shared limiter; rps <= 0 disables throttling.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(rps)
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}
