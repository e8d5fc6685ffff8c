package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"

	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Context keys for middleware
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	CallerKey    contextKey = "caller"
)

// CallerHeader is the header consulted by HeaderIdentity when no custom
// header name is given. It is intended for deployments where a trusted
// proxy terminates authentication and forwards the caller identity.
const CallerHeader = "X-Registry-Caller"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityResolver extracts the caller identity from an incoming request.
// Returning an error means the resolver could not determine an identity;
// the next resolver in the chain is consulted.
type IdentityResolver func(r *http.Request) (simpleregistry.Identity, error)

// JWTIdentity resolves the caller from a verified JWT in the request
// context. It expects jwtauth.Verifier to have run earlier in the chain
// and reads the "sub" claim.
func JWTIdentity() IdentityResolver {
	return func(r *http.Request) (simpleregistry.Identity, error) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			return "", err
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", fmt.Errorf("token has no sub claim")
		}
		return simpleregistry.Identity(sub), nil
	}
}

// HeaderIdentity resolves the caller from a request header. An empty
// header name selects CallerHeader.
func HeaderIdentity(header string) IdentityResolver {
	if header == "" {
		header = CallerHeader
	}
	return func(r *http.Request) (simpleregistry.Identity, error) {
		caller := r.Header.Get(header)
		if caller == "" {
			return "", fmt.Errorf("missing %s header", header)
		}
		return simpleregistry.Identity(caller), nil
	}
}

// IdentityMiddleware resolves the caller identity using the given
// resolvers in order and stores the first match in the request context.
// Requests without a resolvable identity pass through unchanged; handlers
// that require a caller reject them with 401.
func IdentityMiddleware(resolvers ...IdentityResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, resolve := range resolvers {
				caller, err := resolve(r)
				if err != nil {
					continue
				}
				r = r.WithContext(WithCaller(r.Context(), caller))
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller returns a context carrying the given caller identity.
func WithCaller(ctx context.Context, caller simpleregistry.Identity) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// CallerFromContext returns the caller identity stored by
// IdentityMiddleware, or false when the request is anonymous.
func CallerFromContext(ctx context.Context) (simpleregistry.Identity, bool) {
	caller, ok := ctx.Value(CallerKey).(simpleregistry.Identity)
	if !ok || caller == "" {
		return "", false
	}
	return caller, true
}
