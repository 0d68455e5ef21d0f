package config

import (
	"fmt"
	"strings"
	"time"
)

type ObjectStoreBackend string

const (
	ObjectStoreMemory   ObjectStoreBackend = "memory"
	ObjectStorePostgres ObjectStoreBackend = "postgres"
	ObjectStoreGCS      ObjectStoreBackend = "gcs"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

type Config struct {
	Env            string
	HTTPAddr       string
	PublicBaseURL  string
	AllowedOrigins []string

	ObjectStoreBackend         ObjectStoreBackend
	DatabaseURL                string
	GCSBucket                  string
	GoogleCloudCredentialsJSON string

	FalKey          string
	FalQueueURL     string
	FalImageModel   string
	FalVideoModel   string
	FalPollInterval time.Duration

	ImageRetry RetryConfig
	VideoRetry RetryConfig

	ProgressPollInterval time.Duration
	ProgressMaxWait      time.Duration
	SessionRetention     time.Duration

	NotifyWebhookURL string
	DiscordToken     string
	DiscordChannelID string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if strings.TrimSpace(req.value) == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.ObjectStoreBackend {
	case ObjectStoreMemory:
	case ObjectStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when OBJECT_STORE_BACKEND=postgres")
		}
	case ObjectStoreGCS:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when OBJECT_STORE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("OBJECT_STORE_BACKEND must be one of memory, postgres, gcs, got %q", c.ObjectStoreBackend)
	}
	if c.ImageRetry.MaxAttempts <= 0 {
		return fmt.Errorf("IMAGE_RETRY_MAX_ATTEMPTS must be positive, got %d", c.ImageRetry.MaxAttempts)
	}
	if c.VideoRetry.MaxAttempts <= 0 {
		return fmt.Errorf("VIDEO_RETRY_MAX_ATTEMPTS must be positive, got %d", c.VideoRetry.MaxAttempts)
	}
	for _, d := range c.positiveDurationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "PUBLIC_BASE_URL", value: c.PublicBaseURL},
		{name: "FAL_KEY", value: c.FalKey},
		{name: "FAL_QUEUE_URL", value: c.FalQueueURL},
		{name: "FAL_IMAGE_MODEL", value: c.FalImageModel},
		{name: "FAL_VIDEO_MODEL", value: c.FalVideoModel},
	}
}

type durationField struct {
	name  string
	value time.Duration
}

func (c *Config) positiveDurationChecks() []durationField {
	return []durationField{
		{name: "FAL_POLL_INTERVAL", value: c.FalPollInterval},
		{name: "IMAGE_RETRY_INITIAL_DELAY", value: c.ImageRetry.InitialDelay},
		{name: "VIDEO_RETRY_INITIAL_DELAY", value: c.VideoRetry.InitialDelay},
		{name: "PROGRESS_POLL_INTERVAL", value: c.ProgressPollInterval},
		{name: "PROGRESS_MAX_WAIT", value: c.ProgressMaxWait},
		{name: "SESSION_RETENTION", value: c.SessionRetention},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
