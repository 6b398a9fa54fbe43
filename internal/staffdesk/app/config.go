package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	DatabaseFile string `env:"STAFFDESK_DATABASE_FILE" envDefault:"staffdesk.db"`

	// Session tokens are minted by the identity backend and verified
	// here with the shared secret.
	SessionSecret string `env:"STAFFDESK_SESSION_SECRET"`
	SessionIssuer string `env:"STAFFDESK_SESSION_ISSUER"`

	// BaseURL is the public dashboard origin used in invitation links
	// and emails.
	BaseURL     string `env:"STAFFDESK_BASE_URL" envDefault:"http://localhost:3000"`
	ProductName string `env:"STAFFDESK_PRODUCT_NAME" envDefault:"Staffdesk"`

	EmailAPIURL string `env:"STAFFDESK_EMAIL_API_URL" envDefault:"https://api.resend.com/emails"`
	EmailAPIKey string `env:"STAFFDESK_EMAIL_API_KEY"`
	EmailFrom   string `env:"STAFFDESK_EMAIL_FROM" envDefault:"Staffdesk <noreply@localhost>"`

	// IdentityDriver selects the account backend: "httpapi" for the
	// hosted admin API, "local" for the in-process store.
	IdentityDriver     string `env:"STAFFDESK_IDENTITY_DRIVER" envDefault:"httpapi"`
	IdentityAPIURL     string `env:"STAFFDESK_IDENTITY_API_URL"`
	IdentityServiceKey string `env:"STAFFDESK_IDENTITY_SERVICE_KEY"`

	InvitationTTL        time.Duration `env:"STAFFDESK_INVITATION_TTL" envDefault:"168h"`
	OutboundCallTimeout  time.Duration `env:"STAFFDESK_OUTBOUND_TIMEOUT" envDefault:"5s"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	// SeedAdmin* bootstrap the first admin on an empty database.
	SeedAdminEmail    string `env:"STAFFDESK_SEED_ADMIN_EMAIL"`
	SeedAdminName     string `env:"STAFFDESK_SEED_ADMIN_NAME" envDefault:"Administrator"`
	SeedAdminPassword string `env:"STAFFDESK_SEED_ADMIN_PASSWORD"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if cfg.SessionSecret == "" {
		return errors.New("STAFFDESK_SESSION_SECRET is required")
	}
	switch cfg.IdentityDriver {
	case "httpapi":
		if cfg.IdentityAPIURL == "" {
			return errors.New("STAFFDESK_IDENTITY_API_URL is required for the httpapi identity driver")
		}
		if cfg.IdentityServiceKey == "" {
			return errors.New("STAFFDESK_IDENTITY_SERVICE_KEY is required for the httpapi identity driver")
		}
	case "local":
	default:
		return fmt.Errorf("unknown identity driver %q", cfg.IdentityDriver)
	}
	return nil
}
