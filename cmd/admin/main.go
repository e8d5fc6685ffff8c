package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
	"github.com/tendant/simple-registry/pkg/simpleregistry/config"
	repopg "github.com/tendant/simple-registry/pkg/simpleregistry/repo/postgres"
)

const usage = `Simple Registry Admin CLI

A lightweight admin tool for the content registry that talks directly to the
configured backend.

USAGE:
  admin <command> [options]

COMMANDS:
  init        Initialize the registry with an admin identity
  info        Show registry state
  oracle      Print the current oracle reference
  set-oracle  Update the oracle reference (admin only)
  register    Register a content hash
  get         Get a content entry by ID
  resolve     Resolve a content entry by hash
  list        List content entries owned by an identity
  transfer    Transfer a content entry to a new owner
  migrate     Create the postgres schema and tables
  audit-check Verify that the audit archive bucket is reachable

ENVIRONMENT VARIABLES:
  REGISTRY_DATABASE_URL    PostgreSQL connection string (in-memory when unset)
  REGISTRY_DB_SCHEMA       PostgreSQL schema name (default: registry)
  REGISTRY_VALIDATOR       Content validator (default: accept-nonempty)
  REGISTRY_AUDIT_S3_*      Audit archive settings (used by audit-check)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  # Initialize the registry
  admin init --admin=alice --oracle=oracle-v1

  # Show registry state
  admin info

  # Rotate the oracle reference
  admin set-oracle --caller=alice --oracle=oracle-v2

  # Register a content hash for bob
  admin register --caller=bob --hash=sha256:9f86d081884c7d65

  # Look up content
  admin get --id=1
  admin resolve --hash=sha256:9f86d081884c7d65

  # List bob's content
  admin list --owner=bob

  # Transfer content 1 from bob to eve
  admin transfer --caller=bob --id=1 --new-owner=eve

  # Output as JSON
  admin info --json
  admin list --owner=bob --json

OPTIONS:
  --admin=<identity>       Admin identity (init)
  --caller=<identity>      Acting identity (set-oracle, register, transfer)
  --oracle=<reference>     Oracle reference (init, set-oracle)
  --hash=<hash>            Content hash (register, resolve)
  --id=<n>                 Content ID (get, transfer)
  --owner=<identity>       Owner identity (list)
  --new-owner=<identity>   Receiving identity (transfer)
  --json                   Output as JSON
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Check for help
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Println(usage)
		os.Exit(0)
	}

	ctx := context.Background()
	opts := parseOptions(os.Args[2:])

	if command == "migrate" {
		handleMigrate(ctx)
		return
	}

	if command == "audit-check" {
		handleAuditCheck(ctx)
		return
	}

	svc, err := createService()
	if err != nil {
		log.Fatalf("Failed to create registry service: %v", err)
	}

	// Execute command
	switch command {
	case "init":
		handleInit(ctx, svc, opts)
	case "info":
		handleInfo(ctx, svc, opts)
	case "oracle":
		handleOracle(ctx, svc)
	case "set-oracle":
		handleSetOracle(ctx, svc, opts)
	case "register":
		handleRegister(ctx, svc, opts)
	case "get":
		handleGet(ctx, svc, opts)
	case "resolve":
		handleResolve(ctx, svc, opts)
	case "list":
		handleList(ctx, svc, opts)
	case "transfer":
		handleTransfer(ctx, svc, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func createService() (simpleregistry.Service, error) {
	cfg, err := config.Load(config.WithEnv("REGISTRY_"))
	if err != nil {
		return nil, err
	}
	return cfg.BuildService()
}

type cmdOptions struct {
	admin     string
	caller    string
	oracle    string
	oracleSet bool
	hash      string
	id        uint64
	owner     string
	newOwner  string
	useJSON   bool
}

func parseOptions(args []string) cmdOptions {
	opts := cmdOptions{}

	for _, arg := range args {
		if arg == "--json" {
			opts.useJSON = true
			continue
		}

		// Parse key=value flags
		key, value := parseFlag(arg)

		switch key {
		case "admin":
			opts.admin = value
		case "caller":
			opts.caller = value
		case "oracle":
			opts.oracle = value
			opts.oracleSet = true
		case "hash":
			opts.hash = value
		case "id":
			if n, err := strconv.ParseUint(value, 10, 64); err == nil {
				opts.id = n
			}
		case "owner":
			opts.owner = value
		case "new-owner":
			opts.newOwner = value
		}
	}

	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func handleInit(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.admin == "" {
		log.Fatalf("The --admin flag is required")
	}

	info, err := svc.Initialize(ctx, simpleregistry.InitializeRequest{
		Admin:           simpleregistry.Identity(opts.admin),
		OracleReference: opts.oracle,
	})
	if err != nil {
		log.Fatalf("Failed to initialize registry: %v", err)
	}

	printInfo(info, opts.useJSON)
}

func handleInfo(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	info, err := svc.GetRegistryInfo(ctx)
	if err != nil {
		log.Fatalf("Failed to get registry info: %v", err)
	}

	printInfo(info, opts.useJSON)
}

func handleOracle(ctx context.Context, svc simpleregistry.Service) {
	reference, err := svc.GetOracleReference(ctx)
	if err != nil {
		log.Fatalf("Failed to get oracle reference: %v", err)
	}

	fmt.Println(reference)
}

func handleSetOracle(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.caller == "" {
		log.Fatalf("The --caller flag is required")
	}
	if !opts.oracleSet {
		log.Fatalf("The --oracle flag is required")
	}

	err := svc.UpdateOracleReference(ctx, simpleregistry.UpdateOracleReferenceRequest{
		Caller:          simpleregistry.Identity(opts.caller),
		OracleReference: opts.oracle,
	})
	if err != nil {
		log.Fatalf("Failed to update oracle reference: %v", err)
	}

	fmt.Printf("Oracle reference updated: %s\n", opts.oracle)
}

func handleRegister(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.caller == "" {
		log.Fatalf("The --caller flag is required")
	}
	if opts.hash == "" {
		log.Fatalf("The --hash flag is required")
	}

	content, err := svc.RegisterContent(ctx, simpleregistry.RegisterContentRequest{
		Caller: simpleregistry.Identity(opts.caller),
		Hash:   opts.hash,
	})
	if err != nil {
		log.Fatalf("Failed to register content: %v", err)
	}

	printContent(content, opts.useJSON)
}

func handleGet(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.id == 0 {
		log.Fatalf("The --id flag is required")
	}

	content, err := svc.GetContent(ctx, simpleregistry.ContentID(opts.id))
	if err != nil {
		log.Fatalf("Failed to get content: %v", err)
	}

	printContent(content, opts.useJSON)
}

func handleResolve(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.hash == "" {
		log.Fatalf("The --hash flag is required")
	}

	content, err := svc.GetContentByHash(ctx, opts.hash)
	if err != nil {
		log.Fatalf("Failed to resolve content: %v", err)
	}

	printContent(content, opts.useJSON)
}

func handleList(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.owner == "" {
		log.Fatalf("The --owner flag is required")
	}

	contents, err := svc.ListContentByOwner(ctx, simpleregistry.Identity(opts.owner))
	if err != nil {
		log.Fatalf("Failed to list content: %v", err)
	}

	if opts.useJSON {
		data, _ := json.MarshalIndent(contents, "", "  ")
		fmt.Println(string(data))
		return
	}

	// Table output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tHASH\tOWNER\tCREATED\n")
	fmt.Fprintf(w, "────────\t────────────────────────────────\t────────────────\t──────────────────────\n")

	for _, content := range contents {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			content.ID,
			truncate(content.Hash, 32),
			truncate(content.Owner.String(), 16),
			content.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", len(contents))
}

func handleTransfer(ctx context.Context, svc simpleregistry.Service, opts cmdOptions) {
	if opts.caller == "" {
		log.Fatalf("The --caller flag is required")
	}
	if opts.id == 0 {
		log.Fatalf("The --id flag is required")
	}
	if opts.newOwner == "" {
		log.Fatalf("The --new-owner flag is required")
	}

	content, err := svc.TransferOwnership(ctx, simpleregistry.TransferOwnershipRequest{
		Caller:    simpleregistry.Identity(opts.caller),
		ContentID: simpleregistry.ContentID(opts.id),
		NewOwner:  simpleregistry.Identity(opts.newOwner),
	})
	if err != nil {
		log.Fatalf("Failed to transfer ownership: %v", err)
	}

	printContent(content, opts.useJSON)
}

func handleMigrate(ctx context.Context) {
	dbURL := os.Getenv("REGISTRY_DATABASE_URL")
	if dbURL == "" {
		log.Fatalf("REGISTRY_DATABASE_URL environment variable is required for migrate")
	}

	dbSchema := getEnv("REGISTRY_DB_SCHEMA", "registry")

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatalf("Failed to parse database URL: %v", err)
	}

	// Set search_path
	poolConfig.ConnConfig.RuntimeParams["search_path"] = dbSchema

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", dbSchema)); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	if _, err := pool.Exec(ctx, repopg.Schema); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	fmt.Printf("Schema %s is up to date\n", dbSchema)
}

func handleAuditCheck(ctx context.Context) {
	cfg, err := config.Load(config.WithEnv("REGISTRY_"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if !cfg.Audit.Enabled {
		log.Fatalf("REGISTRY_AUDIT_S3_BUCKET environment variable is required for audit-check")
	}

	if err := config.PingAudit(ctx, cfg.Audit); err != nil {
		log.Fatalf("Audit bucket check failed: %v", err)
	}

	fmt.Printf("Audit bucket %s is reachable\n", cfg.Audit.Bucket)
}

func printInfo(info *simpleregistry.RegistryInfo, useJSON bool) {
	if useJSON {
		data, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(data))
		return
	}

	oracle := info.OracleReference
	if oracle == "" {
		oracle = "-"
	}

	fmt.Println("=== Registry ===")
	fmt.Printf("Admin:            %s\n", info.Admin)
	fmt.Printf("Oracle reference: %s\n", oracle)
	fmt.Printf("Next content ID:  %d\n", info.NextID)
	fmt.Printf("Content count:    %d\n", info.ContentCount)
	fmt.Printf("Created:          %s\n", info.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:          %s\n", info.UpdatedAt.Format(time.RFC3339))
}

func printContent(content *simpleregistry.Content, useJSON bool) {
	if useJSON {
		data, _ := json.MarshalIndent(content, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("ID:      %d\n", content.ID)
	fmt.Printf("Hash:    %s\n", content.Hash)
	fmt.Printf("Owner:   %s\n", content.Owner)
	fmt.Printf("Created: %s\n", content.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated: %s\n", content.UpdatedAt.Format(time.RFC3339))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
