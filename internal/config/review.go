package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvReviewAssist        = "CAIRN_REVIEW_ASSIST"
	EnvReviewAssistTimeout = "CAIRN_REVIEW_ASSIST_TIMEOUT"
)

// ReviewConfig holds staged review engine settings. Assist routes the
// describe and assign stages through the configured agent; heuristic
// proposals remain the fallback when a call fails.
type ReviewConfig struct {
	Assist        bool   `toml:"assist"`
	AssistTimeout string `toml:"assist_timeout"`
}

// AssistTimeoutDuration returns AssistTimeout as a time.Duration.
func (c *ReviewConfig) AssistTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AssistTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ReviewConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ReviewConfig) Merge(overlay *ReviewConfig) {
	if overlay.Assist {
		c.Assist = true
	}
	if overlay.AssistTimeout != "" {
		c.AssistTimeout = overlay.AssistTimeout
	}
}

func (c *ReviewConfig) loadDefaults() {
	if c.AssistTimeout == "" {
		c.AssistTimeout = "30s"
	}
}

func (c *ReviewConfig) loadEnv() {
	if v := os.Getenv(EnvReviewAssist); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Assist = b
		}
	}
	if v := os.Getenv(EnvReviewAssistTimeout); v != "" {
		c.AssistTimeout = v
	}
}

func (c *ReviewConfig) validate() error {
	if _, err := time.ParseDuration(c.AssistTimeout); err != nil {
		return fmt.Errorf("invalid assist_timeout: %w", err)
	}
	return nil
}
