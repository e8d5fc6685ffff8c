package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request ID is in context
		requestID, ok := r.Context().Value(RequestIDKey).(string)
		assert.True(t, ok)
		assert.NotEmpty(t, requestID)
		w.WriteHeader(http.StatusOK)
	})

	wrapped := RequestIDMiddleware(handler)

	t.Run("generates request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		customID := "my-custom-id"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", customID)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, customID, rr.Header().Get("X-Request-ID"))
	})
}

func TestHeaderIdentity(t *testing.T) {
	t.Run("default header", func(t *testing.T) {
		resolve := HeaderIdentity("")

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(CallerHeader, "bob")

		caller, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, simpleregistry.Identity("bob"), caller)
	})

	t.Run("custom header", func(t *testing.T) {
		resolve := HeaderIdentity("X-User")

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-User", "carol")

		caller, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, simpleregistry.Identity("carol"), caller)
	})

	t.Run("missing header", func(t *testing.T) {
		resolve := HeaderIdentity("")

		req := httptest.NewRequest("GET", "/test", nil)

		_, err := resolve(req)
		assert.Error(t, err)
	})
}

func TestJWTIdentity(t *testing.T) {
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(caller.String()))
	})

	wrapped := jwtauth.Verifier(ja)(IdentityMiddleware(JWTIdentity())(handler))

	t.Run("resolves sub claim", func(t *testing.T) {
		_, tokenString, err := ja.Encode(map[string]interface{}{"sub": "bob"})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "bob", rr.Body.String())
	})

	t.Run("token without sub stays anonymous", func(t *testing.T) {
		_, tokenString, err := ja.Encode(map[string]interface{}{"scope": "read"})
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no token stays anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(caller.String()))
	})

	t.Run("first resolver wins", func(t *testing.T) {
		wrapped := IdentityMiddleware(
			HeaderIdentity("X-Primary"),
			HeaderIdentity("X-Fallback"),
		)(handler)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Primary", "bob")
		req.Header.Set("X-Fallback", "carol")
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, "bob", rr.Body.String())
	})

	t.Run("falls back when first resolver fails", func(t *testing.T) {
		wrapped := IdentityMiddleware(
			HeaderIdentity("X-Primary"),
			HeaderIdentity("X-Fallback"),
		)(handler)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Fallback", "carol")
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, "carol", rr.Body.String())
	})

	t.Run("passes through when nothing resolves", func(t *testing.T) {
		wrapped := IdentityMiddleware(HeaderIdentity(""))(handler)

		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, "anonymous", rr.Body.String())
	})
}

func TestCallerFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	_, ok := CallerFromContext(req.Context())
	assert.False(t, ok)

	_, ok = CallerFromContext(WithCaller(req.Context(), ""))
	assert.False(t, ok)

	caller, ok := CallerFromContext(WithCaller(req.Context(), "bob"))
	assert.True(t, ok)
	assert.Equal(t, simpleregistry.Identity("bob"), caller)
}
