package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"

	"github.com/tendant/simple-registry/pkg/simpleregistry/api"
	"github.com/tendant/simple-registry/pkg/simpleregistry/config"
)

type Config struct {
	Auth AuthConfig
}

type AuthConfig struct {
	// JwtSecret enables JWT caller resolution when set; otherwise the
	// X-Registry-Caller header is trusted.
	JwtSecret string `env:"AUTH_JWT_SECRET" env-default:""`
	// AdminApiKeySHA256 gates the admin routes when set.
	AdminApiKeySHA256 string `env:"ADMIN_API_KEY_SHA256" env-default:""`
}

func main() {
	// Load configuration
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	registryConfig, err := config.Load(config.WithEnv("REGISTRY_"))
	if err != nil {
		slog.Error("Failed to load registry configuration", "err", err)
		os.Exit(1)
	}

	if registryConfig.DatabaseType == "postgres" {
		if err := config.PingPostgres(registryConfig.DatabaseURL, registryConfig.DBSchema); err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
	}

	// Build the registry service
	svc, err := registryConfig.BuildService()
	if err != nil {
		slog.Error("Failed to build registry service", "err", err)
		os.Exit(1)
	}

	// Caller identity: JWT when a secret is configured, trusted header otherwise
	var verifier func(http.Handler) http.Handler
	identity := api.IdentityMiddleware(api.HeaderIdentity(""))
	if cfg.Auth.JwtSecret != "" {
		tokenAuth := jwtauth.New("HS256", []byte(cfg.Auth.JwtSecret), nil)
		verifier = jwtauth.Verifier(tokenAuth)
		identity = api.IdentityMiddleware(api.JWTIdentity())
	}

	var adminGate func(http.Handler) http.Handler
	if cfg.Auth.AdminApiKeySHA256 != "" {
		adminGate, err = middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.Auth.AdminApiKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			os.Exit(1)
		}
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	handler := api.NewRegistryHandler(svc)

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequestIDMiddleware)
		if verifier != nil {
			r.Use(verifier)
		}
		r.Use(identity)

		// Reads are public
		r.Get("/registry", handler.GetRegistryInfo)
		r.Get("/registry/oracle", handler.GetOracleReference)
		r.Get("/contents", handler.LookupContent)
		r.Get("/contents/{contentID}", handler.GetContent)

		r.Post("/contents", handler.RegisterContent)
		r.Post("/contents/{contentID}/transfer", handler.TransferOwnership)

		// Admin routes, optionally gated by API key
		r.Group(func(r chi.Router) {
			if adminGate != nil {
				r.Use(adminGate)
			}
			r.Post("/registry", handler.Initialize)
			r.Put("/registry/oracle", handler.UpdateOracleReference)
		})
	})

	slog.Info("Registry server ready",
		"database", registryConfig.DatabaseType,
		"validator", registryConfig.ValidatorType,
		"jwt_auth", cfg.Auth.JwtSecret != "",
		"admin_api_key", cfg.Auth.AdminApiKeySHA256 != "")

	// Start server
	server.Run()
}
