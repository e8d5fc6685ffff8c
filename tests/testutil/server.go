package testutil

import (
	"log"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
	"github.com/tendant/simple-registry/pkg/simpleregistry/api"
	memoryrepo "github.com/tendant/simple-registry/pkg/simpleregistry/repo/memory"
)

// SetupTestServer creates a test server with all routes configured.
// Callers identify themselves through the X-Registry-Caller header.
func SetupTestServer() *httptest.Server {
	repo := memoryrepo.New()

	svc, err := simpleregistry.New(
		simpleregistry.WithRepository(repo),
	)
	if err != nil {
		log.Fatal(err)
	}

	handler := api.NewRegistryHandler(svc)

	r := chi.NewRouter()
	r.Use(api.IdentityMiddleware(api.HeaderIdentity("")))
	r.Mount("/", handler.Routes())

	return httptest.NewServer(r)
}
