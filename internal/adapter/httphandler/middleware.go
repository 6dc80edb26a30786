package httphandler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
)

type middleware func(http.Handler) http.Handler

// chain wraps h so that the first middleware runs first.
func chain(h http.HandlerFunc, mws ...middleware) http.Handler {
	var handler http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			writeJSON(w, slog.Default(), http.StatusUnsupportedMediaType,
				errorResponse{Error: "invalid media type"})
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by [RequireAuth].
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier port.TokenVerifier) middleware {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			const op = "RequireAuth"
			log := slog.With("op", op)

			token, ok := bearerToken(r)
			if !ok {
				writeError(w, log, domain.ErrUnauthenticated)
				return
			}

			p, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				log.Info("token rejected", "err", err)
				writeError(w, log, domain.ErrUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		}
		return http.HandlerFunc(hf)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
