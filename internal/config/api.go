package config

import (
	"fmt"
	"os"

	"github.com/cairnhq/cairn/pkg/formatting"
	"github.com/cairnhq/cairn/pkg/middleware"
	"github.com/cairnhq/cairn/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CAIRN_CORS_ENABLED",
	Origins:          "CAIRN_CORS_ORIGINS",
	AllowedMethods:   "CAIRN_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CAIRN_CORS_ALLOWED_HEADERS",
	AllowCredentials: "CAIRN_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CAIRN_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "CAIRN_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CAIRN_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("CAIRN_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("CAIRN_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
