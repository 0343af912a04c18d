package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"github.com/dmitrijs2005/itemkeeper/internal/server/auth"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
	unmatchedRoute  = "unmatched"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a caller-supplied X-Request-ID or generates one, and
// echoes it on the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	}
	return http.HandlerFunc(fn)
}

// instrument logs each request once it completes and records it in metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func(start time.Time) {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			elapsed := time.Since(start)

			s.metrics.observe(r.Method, route, status, elapsed)
			s.logger.Info(r.Context(), "request",
				"method", r.Method,
				"route", route,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", requestIDFrom(r.Context()),
			)
		}(time.Now())

		next.ServeHTTP(ww, r)
	}
	return http.HandlerFunc(fn)
}

// recoverer turns a handler panic into a 500 with the usual error body and
// logs it with the stack. http.ErrAbortHandler is re-raised so net/http can
// abort the response as intended.
func (s *Server) recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			s.logger.Error(r.Context(), "panic recovered",
				"panic", fmt.Sprint(rvr),
				"stack", string(debug.Stack()),
				"request_id", requestIDFrom(r.Context()),
			)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// authenticate requires a valid bearer token and stores its claims in the
// request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var claims *auth.Claims
			if claims, err = s.verifier.Verify(ctx, token); err == nil {
				next.ServeHTTP(w, r.WithContext(auth.WithClaims(ctx, claims)))
				return
			}
		}

		if errors.Is(err, common.ErrKeysUnavailable) {
			s.logger.Warn(ctx, "signing keys unavailable", "error", err.Error(), "request_id", requestIDFrom(ctx))
			writeError(w, http.StatusServiceUnavailable, auth.PublicDetail(err))
			return
		}

		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, auth.PublicDetail(err))
	}
	return http.HandlerFunc(fn)
}

// routePattern returns the matched chi pattern, e.g. /items/{id}, so that
// metric labels stay bounded.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}

	p := strings.Join(rctx.RoutePatterns, "")
	for strings.Contains(p, "/*/") {
		p = strings.ReplaceAll(p, "/*/", "/")
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	if p == "" {
		return unmatchedRoute
	}
	return p
}
