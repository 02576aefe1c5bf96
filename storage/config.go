package storage

import (
	"errors"
	"fmt"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderMinio = "minio"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "./data"
	DefaultRegion   = "us-east-1"
)

// Config holds blob storage configuration.
type Config struct {
	// Provider selects the backend: local, s3 or minio.
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// Bucket is the s3 or minio bucket name.
	Bucket string `mapstructure:"bucket" json:"bucket"`

	// Region is the AWS region for s3.
	Region string `mapstructure:"region" json:"region"`

	// Endpoint is a custom S3-compatible endpoint for s3, or host:port for minio.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	AccessKey string `mapstructure:"access_key" json:"-"`
	SecretKey string `mapstructure:"secret_key" json:"-"`

	// ForcePathStyle forces path-style S3 addressing.
	ForcePathStyle bool `mapstructure:"force_path_style" json:"force_path_style"`

	// UseSSL enables TLS for minio.
	UseSSL bool `mapstructure:"use_ssl" json:"use_ssl"`

	// CreateBucket creates a missing minio bucket on start.
	CreateBucket bool `mapstructure:"create_bucket" json:"create_bucket"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the fields the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		if c.Bucket == "" {
			return errors.New("storage: bucket is required for s3 provider")
		}
	case ProviderMinio:
		var errs []error
		if c.Endpoint == "" {
			errs = append(errs, errors.New("endpoint is required"))
		}
		if c.Bucket == "" {
			errs = append(errs, errors.New("bucket is required"))
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			errs = append(errs, errors.New("access_key and secret_key are required"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid minio config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
