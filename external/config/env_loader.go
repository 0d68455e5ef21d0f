package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/fanreel/internal/config"
	"github.com/joho/godotenv"
)

// dotenvFiles are read outside production only. Variables already present in
// the environment are never overridden.
var dotenvFiles = []string{".env.local", ".env"}

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	HTTPAddr                   string        `env:"HTTP_ADDR" envDefault:":8080"`
	PublicBaseURL              string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	AllowedOrigins             []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	ObjectStoreBackend         string        `env:"OBJECT_STORE_BACKEND" envDefault:"memory"`
	DatabaseURL                string        `env:"DATABASE_URL"`
	GCSBucket                  string        `env:"GCS_BUCKET"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	FalKey                     string        `env:"FAL_KEY,required"`
	FalQueueURL                string        `env:"FAL_QUEUE_URL" envDefault:"https://queue.fal.run"`
	FalImageModel              string        `env:"FAL_IMAGE_MODEL" envDefault:"fal-ai/flux/dev"`
	FalVideoModel              string        `env:"FAL_VIDEO_MODEL" envDefault:"fal-ai/kling-video/v1/standard/image-to-video"`
	FalPollInterval            time.Duration `env:"FAL_POLL_INTERVAL" envDefault:"1s"`
	ImageRetryMaxAttempts      int           `env:"IMAGE_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	ImageRetryInitialDelay     time.Duration `env:"IMAGE_RETRY_INITIAL_DELAY" envDefault:"2s"`
	VideoRetryMaxAttempts      int           `env:"VIDEO_RETRY_MAX_ATTEMPTS" envDefault:"3"`
	VideoRetryInitialDelay     time.Duration `env:"VIDEO_RETRY_INITIAL_DELAY" envDefault:"5s"`
	ProgressPollInterval       time.Duration `env:"PROGRESS_POLL_INTERVAL" envDefault:"1s"`
	ProgressMaxWait            time.Duration `env:"PROGRESS_MAX_WAIT" envDefault:"60s"`
	SessionRetention           time.Duration `env:"SESSION_RETENTION" envDefault:"168h"`
	NotifyWebhookURL           string        `env:"NOTIFY_WEBHOOK_URL"`
	DiscordToken               string        `env:"DISCORD_TOKEN"`
	DiscordChannelID           string        `env:"DISCORD_CHANNEL_ID"`
}

func Load() (*internalconfig.Config, error) {
	loadDotenv()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		HTTPAddr:                   raw.HTTPAddr,
		PublicBaseURL:              strings.TrimRight(raw.PublicBaseURL, "/"),
		AllowedOrigins:             trimAll(raw.AllowedOrigins),
		ObjectStoreBackend:         internalconfig.ObjectStoreBackend(strings.ToLower(strings.TrimSpace(raw.ObjectStoreBackend))),
		DatabaseURL:                raw.DatabaseURL,
		GCSBucket:                  raw.GCSBucket,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		FalKey:                     raw.FalKey,
		FalQueueURL:                strings.TrimRight(raw.FalQueueURL, "/"),
		FalImageModel:              raw.FalImageModel,
		FalVideoModel:              raw.FalVideoModel,
		FalPollInterval:            raw.FalPollInterval,
		ImageRetry: internalconfig.RetryConfig{
			MaxAttempts:  raw.ImageRetryMaxAttempts,
			InitialDelay: raw.ImageRetryInitialDelay,
		},
		VideoRetry: internalconfig.RetryConfig{
			MaxAttempts:  raw.VideoRetryMaxAttempts,
			InitialDelay: raw.VideoRetryInitialDelay,
		},
		ProgressPollInterval: raw.ProgressPollInterval,
		ProgressMaxWait:      raw.ProgressMaxWait,
		SessionRetention:     raw.SessionRetention,
		NotifyWebhookURL:     raw.NotifyWebhookURL,
		DiscordToken:         raw.DiscordToken,
		DiscordChannelID:     raw.DiscordChannelID,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv() {
	if e := os.Getenv("ENV"); e == "" || e == "production" {
		return
	}
	for _, f := range dotenvFiles {
		// missing files are expected
		_ = godotenv.Load(f)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
