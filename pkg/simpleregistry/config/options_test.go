package config

import (
	"context"
	"errors"
	"testing"

	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got: %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected environment development, got: %s", cfg.Environment)
	}
	if cfg.DatabaseType != "memory" {
		t.Errorf("expected database type memory, got: %s", cfg.DatabaseType)
	}
	if cfg.DBSchema != "registry" {
		t.Errorf("expected schema registry, got: %s", cfg.DBSchema)
	}
	if cfg.ValidatorType != ValidatorAcceptNonEmpty {
		t.Errorf("expected validator %s, got: %s", ValidatorAcceptNonEmpty, cfg.ValidatorType)
	}
	if !cfg.EnableEventLogging {
		t.Error("expected event logging enabled by default")
	}
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got: %s", cfg.Port)
	}
}

func TestWithPortEmpty(t *testing.T) {
	_, err := Load(WithPort(""))
	if err == nil {
		t.Error("expected error for empty port, got nil")
	}
}

func TestWithEnvironment(t *testing.T) {
	cfg, err := Load(WithEnvironment("production"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got: %s", cfg.Environment)
	}
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", "memory", "", false},
		{"postgres valid", "postgres", "postgresql://localhost/test", false},
		{"postgres missing url", "postgres", "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if cfg.DatabaseType != tt.dbType {
				t.Errorf("expected database type %s, got: %s", tt.dbType, cfg.DatabaseType)
			}
			if cfg.DatabaseURL != tt.url {
				t.Errorf("expected database URL %s, got: %s", tt.url, cfg.DatabaseURL)
			}
		})
	}
}

func TestWithDBSchema(t *testing.T) {
	cfg, err := Load(WithDBSchema("audit"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.DBSchema != "audit" {
		t.Errorf("expected schema audit, got: %s", cfg.DBSchema)
	}
}

func TestWithValidator(t *testing.T) {
	tests := []struct {
		name      string
		validator string
		wantError bool
	}{
		{"accept nonempty", ValidatorAcceptNonEmpty, false},
		{"prefix allowlist", ValidatorPrefixAllowlist, false},
		{"exact allowlist", ValidatorExactAllowlist, false},
		{"unknown name", "regex", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithValidator(tt.validator))
			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if cfg.ValidatorType != tt.validator {
				t.Errorf("expected validator %s, got: %s", tt.validator, cfg.ValidatorType)
			}
		})
	}
}

func TestWithEventLogging(t *testing.T) {
	cfg, err := Load(WithEventLogging(false))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.EnableEventLogging {
		t.Error("expected event logging disabled")
	}
}

func TestWithBootstrapAdmin(t *testing.T) {
	cfg, err := Load(WithBootstrapAdmin("alice", "oracle-v1"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.AdminIdentity != "alice" {
		t.Errorf("expected admin alice, got: %s", cfg.AdminIdentity)
	}
	if cfg.InitialOracleReference != "oracle-v1" {
		t.Errorf("expected oracle reference oracle-v1, got: %s", cfg.InitialOracleReference)
	}
	if !cfg.InitializeOnStart {
		t.Error("expected initialize on start to be set")
	}
}

func TestWithBootstrapAdminEmpty(t *testing.T) {
	_, err := Load(WithBootstrapAdmin("", "oracle-v1"))
	if err == nil {
		t.Error("expected error for empty bootstrap admin, got nil")
	}
}

func TestWithAudit(t *testing.T) {
	cfg, err := Load(WithAudit(AuditConfig{
		Bucket: "registry-audit",
		Region: "us-west-2",
	}))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled")
	}
	if cfg.Audit.Bucket != "registry-audit" {
		t.Errorf("expected bucket registry-audit, got: %s", cfg.Audit.Bucket)
	}
}

func TestWithAuditMissingBucket(t *testing.T) {
	_, err := Load(WithAudit(AuditConfig{Region: "us-west-2"}))
	if err == nil {
		t.Error("expected error for audit without bucket, got nil")
	}
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load(WithEventLogging(false))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Initialize(ctx, simpleregistry.InitializeRequest{Admin: "alice"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := svc.RegisterContent(ctx, simpleregistry.RegisterContentRequest{Caller: "bob", Hash: "sha256:aaaa"}); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestBuildServiceBootstrap(t *testing.T) {
	cfg, err := Load(
		WithBootstrapAdmin("alice", "oracle-v1"),
		WithEventLogging(false),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	info, err := svc.GetRegistryInfo(context.Background())
	if err != nil {
		t.Fatalf("registry info: %v", err)
	}
	if info.Admin != "alice" {
		t.Errorf("expected admin alice, got: %s", info.Admin)
	}
	if info.OracleReference != "oracle-v1" {
		t.Errorf("expected oracle reference oracle-v1, got: %s", info.OracleReference)
	}
}

func TestBuildServiceValidatorSelection(t *testing.T) {
	cfg, err := Load(
		WithValidator(ValidatorPrefixAllowlist),
		WithBootstrapAdmin("alice", "sha256:"),
		WithEventLogging(false),
	)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	svc, err := cfg.BuildService()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.RegisterContent(ctx, simpleregistry.RegisterContentRequest{Caller: "bob", Hash: "sha256:aaaa"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = svc.RegisterContent(ctx, simpleregistry.RegisterContentRequest{Caller: "bob", Hash: "md5:aaaa"})
	if !errors.Is(err, simpleregistry.ErrInvalidContent) {
		t.Errorf("expected ErrInvalidContent, got: %v", err)
	}
}
