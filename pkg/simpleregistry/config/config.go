// Package config assembles a ready-to-use registry service from declarative
// configuration: repository backend, content validator, event sinks, and
// optional boot-time initialization.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
	audits3 "github.com/tendant/simple-registry/pkg/simpleregistry/audit/s3"
	"github.com/tendant/simple-registry/pkg/simpleregistry/repo/memory"
	repopg "github.com/tendant/simple-registry/pkg/simpleregistry/repo/postgres"
)

// Validator type names accepted by ServerConfig.ValidatorType.
const (
	ValidatorAcceptNonEmpty  = "accept-nonempty"
	ValidatorPrefixAllowlist = "prefix-allowlist"
	ValidatorExactAllowlist  = "exact-allowlist"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		DBSchema:           "registry",
		ValidatorType:      ValidatorAcceptNonEmpty,
		EnableEventLogging: true,
	}
}

// WithPort sets the HTTP port used by server binaries. Library users running
// their own server can ignore it.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the deployment environment name.
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithDatabase selects the repository backend. dbType is "memory" or
// "postgres"; url is the connection string and is ignored for memory.
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDBSchema sets the postgres schema holding the registry tables.
func WithDBSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithValidator selects the content validator by name.
func WithValidator(name string) Option {
	return func(c *ServerConfig) error {
		c.ValidatorType = name
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink.
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithBootstrapAdmin initializes the registry at build time with the given
// admin identity and oracle reference. Initialization is idempotent: a
// registry initialized on a previous boot is left untouched.
func WithBootstrapAdmin(admin, oracleReference string) Option {
	return func(c *ServerConfig) error {
		c.AdminIdentity = admin
		c.InitialOracleReference = oracleReference
		c.InitializeOnStart = true
		return nil
	}
}

// WithAudit enables the S3 audit archive sink.
func WithAudit(audit AuditConfig) Option {
	return func(c *ServerConfig) error {
		audit.Enabled = true
		c.Audit = audit
		return nil
	}
}

// ServerConfig represents server configuration for the simple-registry service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: registry)

	// Registry bootstrap
	AdminIdentity          string
	InitialOracleReference string
	InitializeOnStart      bool

	// Validation
	ValidatorType string // "accept-nonempty", "prefix-allowlist", "exact-allowlist"

	// Events
	EnableEventLogging bool
	Audit              AuditConfig
}

// AuditConfig configures the S3 audit archive sink
type AuditConfig struct {
	Enabled                bool
	Region                 string
	Bucket                 string
	AccessKeyID            string
	SecretAccessKey        string
	Endpoint               string
	UsePathStyle           bool
	KeyPrefix              string
	CreateBucketIfNotExist bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.ValidatorType {
	case ValidatorAcceptNonEmpty, ValidatorPrefixAllowlist, ValidatorExactAllowlist:
	default:
		return fmt.Errorf("unsupported validator type: %s", c.ValidatorType)
	}

	if c.InitializeOnStart && c.AdminIdentity == "" {
		return errors.New("admin_identity is required when initialize_on_start is set")
	}

	if c.Audit.Enabled && c.Audit.Bucket == "" {
		return errors.New("audit bucket is required when audit is enabled")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration.
// When InitializeOnStart is set the registry is initialized idempotently:
// an already-initialized registry is not an error at boot.
func (c *ServerConfig) BuildService() (simpleregistry.Service, error) {
	var options []simpleregistry.Option

	// Set up repository
	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, simpleregistry.WithRepository(repo))

	// Set up validator
	validator, err := c.buildValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}
	options = append(options, simpleregistry.WithValidator(validator))

	// Set up event sinks
	sink, err := c.buildEventSink()
	if err != nil {
		return nil, fmt.Errorf("failed to build event sink: %w", err)
	}
	if sink != nil {
		options = append(options, simpleregistry.WithEventSink(sink))
	}

	svc, err := simpleregistry.New(options...)
	if err != nil {
		return nil, err
	}

	if c.InitializeOnStart {
		req := simpleregistry.InitializeRequest{
			Admin:           simpleregistry.Identity(c.AdminIdentity),
			OracleReference: c.InitialOracleReference,
		}
		if _, err := svc.Initialize(context.Background(), req); err != nil {
			if !errors.Is(err, simpleregistry.ErrAlreadyInitialized) {
				return nil, fmt.Errorf("failed to initialize registry: %w", err)
			}
		}
	}

	return svc, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (simpleregistry.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		if c.DatabaseURL == "" {
			return nil, errors.New("database_url is required for postgres")
		}
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		// Optionally set search_path for the connection
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			// set search_path for this session
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
		pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildValidator creates a ContentValidator based on the configuration
func (c *ServerConfig) buildValidator() (simpleregistry.ContentValidator, error) {
	switch c.ValidatorType {
	case ValidatorAcceptNonEmpty:
		return simpleregistry.AcceptNonEmpty(), nil
	case ValidatorPrefixAllowlist:
		return simpleregistry.PrefixAllowlist(), nil
	case ValidatorExactAllowlist:
		return simpleregistry.ExactAllowlist(), nil
	default:
		return nil, fmt.Errorf("unsupported validator type: %s", c.ValidatorType)
	}
}

// buildEventSink assembles the configured event sinks. Returns nil when no
// sink is configured.
func (c *ServerConfig) buildEventSink() (simpleregistry.EventSink, error) {
	var sinks []simpleregistry.EventSink

	if c.EnableEventLogging {
		sinks = append(sinks, simpleregistry.NewLoggingEventSink(slogLogger{slog.Default()}))
	}

	if c.Audit.Enabled {
		sink, err := audits3Sink(c.Audit)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return simpleregistry.NewMultiEventSink(sinks...), nil
	}
}

func audits3Sink(cfg AuditConfig) (simpleregistry.EventSink, error) {
	return audits3.New(sinkConfig(cfg))
}

func sinkConfig(cfg AuditConfig) audits3.Config {
	return audits3.Config{
		Region:                 cfg.Region,
		Bucket:                 cfg.Bucket,
		AccessKeyID:            cfg.AccessKeyID,
		SecretAccessKey:        cfg.SecretAccessKey,
		Endpoint:               cfg.Endpoint,
		UsePathStyle:           cfg.UsePathStyle,
		KeyPrefix:              cfg.KeyPrefix,
		CreateBucketIfNotExist: cfg.CreateBucketIfNotExist,
	}
}

// slogLogger adapts slog to the simpleregistry.Logger interface
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Infof(format string, args ...interface{}) {
	s.l.Info(fmt.Sprintf(format, args...))
}

func (s slogLogger) Errorf(format string, args ...interface{}) {
	s.l.Error(fmt.Sprintf(format, args...))
}

// PingPostgres verifies connectivity to Postgres and optionally sets search_path for the session.
// It fails if the schema (when provided) does not exist.
func PingPostgres(databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", schema))
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// PingAudit verifies that the audit archive bucket is reachable with the
// configured credentials.
func PingAudit(ctx context.Context, audit AuditConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return audits3.Check(ctx, sinkConfig(audit))
}
