package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventplan/eventplan/internal/model"
	"github.com/eventplan/eventplan/internal/repository"
)

type contextKey string

const clientContextKey contextKey = "client"

// TokenResolver resolves an opaque bearer token to a tenant.
type TokenResolver interface {
	GetByToken(ctx context.Context, token string) (*model.Client, error)
}

// ClientAuth resolves the X-Client-Token header to a tenant and stores it in
// the request context. Requests without a valid token are rejected before any
// core operation runs.
func ClientAuth(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Client-Token")
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing client token")
				return
			}

			client, err := resolver.GetByToken(r.Context(), token)
			if err != nil {
				if err == repository.ErrNotFound {
					writeError(w, http.StatusUnauthorized, "invalid client token")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to resolve client token")
				return
			}

			ctx := context.WithValue(r.Context(), clientContextKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromContext returns the tenant resolved by ClientAuth. It panics when
// called outside an authenticated route, which is a routing bug.
func ClientFromContext(ctx context.Context) *model.Client {
	client, ok := ctx.Value(clientContextKey).(*model.Client)
	if !ok {
		panic("handler: no client in context; route is missing ClientAuth")
	}
	return client
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger writes one structured access-log line per request.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
