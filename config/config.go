package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	MongoURI string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	DBName   string `envconfig:"MONGODB_DB" default:"yamdb"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"yamdb@mail.com"`

	// When set, a successful token request clears the stored confirmation
	// code, so a leaked code cannot be used to mint tokens indefinitely.
	RotateConfirmationCode bool `envconfig:"ROTATE_CONFIRMATION_CODE" default:"false"`

	// Importer-only: credentials for reading CSV fixtures from S3.
	S3Bucket      string `envconfig:"AWS_S3_BUCKET"`
	S3Region      string `envconfig:"AWS_REGION" default:"us-east-1"`
	S3AccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	S3SecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations that cannot serve requests safely.
func (c *Config) Validate() error {
	if c.JWTSecret == "" || c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set to a strong secret (not the default)")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// MailEnabled reports whether outbound confirmation-code email is configured.
// Without SMTP settings sign-up still works; codes are only logged.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
