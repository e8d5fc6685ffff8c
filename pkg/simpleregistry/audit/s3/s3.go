// Package s3 provides an EventSink that archives registry events as JSON
// documents in an S3-compatible bucket, one object per event. It gives the
// registry a durable, append-only audit trail of ownership changes without
// putting object storage on the write path of registry state.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/tendant/simple-registry/pkg/simpleregistry"
)

// Config options for the S3 audit archive
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	KeyPrefix       string // Optional key prefix for all audit objects

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Sink is an S3-compatible implementation of the simpleregistry.EventSink interface
type Sink struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	config    Config
}

// New creates a new S3-compatible audit archive sink
func New(config Config) (simpleregistry.EventSink, error) {
	sink, err := newSink(config)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

func newSink(config Config) (*Sink, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}

	// Set up AWS config
	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		// Use provided credentials
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		// Use default credential chain
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Configure S3 client options
	var s3Options []func(*s3.Options)

	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	sink := &Sink{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: normalizePrefix(config.KeyPrefix),
		config:    config,
	}

	// Create bucket if requested
	if config.CreateBucketIfNotExist {
		if err := sink.createBucketIfNotExists(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return sink, nil
}

// Check verifies that the configured bucket is reachable with the given
// credentials. When CreateBucketIfNotExist is set the bucket is created
// first, the same way New would at startup.
func Check(ctx context.Context, config Config) error {
	sink, err := newSink(config)
	if err != nil {
		return err
	}

	_, err = sink.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(sink.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", sink.bucket, err)
	}

	return nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (s *Sink) createBucketIfNotExists(ctx context.Context) error {
	// Check if bucket exists
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})

	if err == nil {
		// Bucket exists
		return nil
	}

	// Check if error indicates bucket doesn't exist (handle multiple error types for MinIO compatibility)
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket

	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "BadRequest") &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	// Create bucket
	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}

	// Add location constraint for regions other than us-east-1
	if s.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err = s.client.CreateBucket(ctx, createInput)
	if err != nil {
		// Handle bucket already exists gracefully
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// auditRecord is the JSON document written for each registry event
type auditRecord struct {
	Event           string                   `json:"event"`
	OccurredAt      time.Time                `json:"occurred_at"`
	ContentID       simpleregistry.ContentID `json:"content_id,omitempty"`
	Hash            string                   `json:"hash,omitempty"`
	Owner           simpleregistry.Identity  `json:"owner,omitempty"`
	PreviousOwner   simpleregistry.Identity  `json:"previous_owner,omitempty"`
	Admin           simpleregistry.Identity  `json:"admin,omitempty"`
	OracleReference string                   `json:"oracle_reference,omitempty"`
	UpdatedBy       simpleregistry.Identity  `json:"updated_by,omitempty"`
}

// RegistryInitialized archives the initialization event
func (s *Sink) RegistryInitialized(ctx context.Context, info *simpleregistry.RegistryInfo) error {
	return s.put(ctx, auditRecord{
		Event:           "registry_initialized",
		OccurredAt:      time.Now().UTC(),
		Admin:           info.Admin,
		OracleReference: info.OracleReference,
	})
}

// OracleReferenceUpdated archives the oracle reference change
func (s *Sink) OracleReferenceUpdated(ctx context.Context, reference string, updatedBy simpleregistry.Identity) error {
	return s.put(ctx, auditRecord{
		Event:           "oracle_reference_updated",
		OccurredAt:      time.Now().UTC(),
		OracleReference: reference,
		UpdatedBy:       updatedBy,
	})
}

// ContentRegistered archives the registration event
func (s *Sink) ContentRegistered(ctx context.Context, content *simpleregistry.Content) error {
	return s.put(ctx, auditRecord{
		Event:      "content_registered",
		OccurredAt: time.Now().UTC(),
		ContentID:  content.ID,
		Hash:       content.Hash,
		Owner:      content.Owner,
	})
}

// OwnershipTransferred archives the transfer event
func (s *Sink) OwnershipTransferred(ctx context.Context, content *simpleregistry.Content, previousOwner simpleregistry.Identity) error {
	return s.put(ctx, auditRecord{
		Event:         "ownership_transferred",
		OccurredAt:    time.Now().UTC(),
		ContentID:     content.ID,
		Hash:          content.Hash,
		Owner:         content.Owner,
		PreviousOwner: previousOwner,
	})
}

// put uploads one audit record as a JSON object
func (s *Sink) put(ctx context.Context, record auditRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}

	uploader := manager.NewUploader(s.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(record.Event, record.OccurredAt)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload audit record: %w", err)
	}

	return nil
}

// objectKey builds a unique key for one event document. Keys group by event
// name and sort by time within each group.
func (s *Sink) objectKey(event string, at time.Time) string {
	return fmt.Sprintf("%s%s/%s-%s.json", s.keyPrefix, event, at.UTC().Format("20060102T150405.000Z"), uuid.New())
}

// normalizePrefix ensures a non-empty prefix ends with exactly one slash.
func normalizePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/"
}
