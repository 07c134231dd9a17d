package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/binmatrix"
	"github.com/hupe1980/binmatrix/archive"
	"github.com/hupe1980/binmatrix/blobstore"
	"github.com/hupe1980/binmatrix/blobstore/minio"
	"github.com/hupe1980/binmatrix/blobstore/s3"
)

// Config is the YAML configuration file.
//
//	archive:
//	  backend: s3
//	  bucket: my-bucket
//	  prefix: matrices/scores
//	  region: eu-central-1
//	  dynamodb_table: binmatrix-commits
//	  compression: zstd
//	  concurrency: 8
//	  rate_limit: 50MiB
type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
}

// ArchiveConfig selects and tunes the archive backend.
type ArchiveConfig struct {
	// Backend is local, minio or s3.
	Backend string `yaml:"backend"`
	// Path is the root directory of the local backend.
	Path string `yaml:"path"`

	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`

	// AccessKey and SecretKey authenticate against MinIO. They fall back to
	// MINIO_ACCESS_KEY and MINIO_SECRET_KEY.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Insecure  bool   `yaml:"insecure"`

	// DynamoDBTable, when set, keeps the s3 backend's CURRENT pointer in
	// DynamoDB.
	DynamoDBTable string `yaml:"dynamodb_table"`

	Compression string `yaml:"compression"`
	ChunkSize   int64  `yaml:"chunk_size"`
	Concurrency int    `yaml:"concurrency"`
	// RateLimit is bytes per second, e.g. 1048576, "512KiB" or "50MiB".
	RateLimit ByteSize `yaml:"rate_limit"`
}

// DefaultConfig archives into ./binmatrix-archive with ZSTD.
func DefaultConfig() Config {
	return Config{
		Archive: ArchiveConfig{
			Backend:     "local",
			Path:        "binmatrix-archive",
			Compression: "zstd",
		},
	}
}

// LoadConfig reads path over DefaultConfig. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Archive.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c ArchiveConfig) validate() error {
	switch c.Backend {
	case "local":
		if c.Path == "" {
			return fmt.Errorf("archive.path is required for the local backend")
		}
	case "minio", "s3":
		if c.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the %s backend", c.Backend)
		}
		if c.Backend == "minio" && c.Endpoint == "" {
			return fmt.Errorf("archive.endpoint is required for the minio backend")
		}
	default:
		return fmt.Errorf("unknown archive.backend %q: must be local, minio or s3", c.Backend)
	}
	if _, err := archive.ParseCompression(c.Compression); err != nil {
		return err
	}
	return nil
}

// OpenBlobStore connects to the configured backend.
func (c ArchiveConfig) OpenBlobStore(ctx context.Context) (blobstore.BlobStore, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	switch c.Backend {
	case "minio":
		access, secret := c.AccessKey, c.SecretKey
		if access == "" {
			access = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secret == "" {
			secret = os.Getenv("MINIO_SECRET_KEY")
		}
		store, err := minio.New(ctx, minio.Config{
			Endpoint:  c.Endpoint,
			AccessKey: access,
			SecretKey: secret,
			Region:    c.Region,
			Secure:    !c.Insecure,
		}, c.Bucket, c.Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		opts := []s3.Option{s3.WithPrefix(c.Prefix), s3.WithRegion(c.Region)}
		if c.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(c.Endpoint))
		}
		store, err := s3.New(ctx, c.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		if c.DynamoDBTable == "" {
			return store, nil
		}
		awsCfg, err := s3.LoadConfig(ctx, c.Region)
		if err != nil {
			return nil, err
		}
		return s3.NewDDBCommitStoreFromConfig(awsCfg, store, c.DynamoDBTable), nil

	default:
		if err := os.MkdirAll(c.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create archive directory: %w", err)
		}
		return blobstore.NewLocalStore(c.Path), nil
	}
}

// Archiver builds an Archiver over bs from the tuning fields.
func (c ArchiveConfig) Archiver(bs blobstore.BlobStore, logger *binmatrix.Logger) (*archive.Archiver, error) {
	compression, err := archive.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	return archive.New(bs,
		archive.WithCompression(compression),
		archive.WithChunkSize(c.ChunkSize),
		archive.WithConcurrency(c.Concurrency),
		archive.WithRateLimit(int64(c.RateLimit)),
		archive.WithLogger(logger),
	), nil
}
