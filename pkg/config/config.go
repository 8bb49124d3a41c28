// Package config loads daemon configuration from environment variables
// (and an optional config file) and validates it before anything else
// starts.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jobkeep/go-reminders/pkg/adapters/aws_ses"
	"github.com/jobkeep/go-reminders/pkg/adapters/gmail"
	"github.com/jobkeep/go-reminders/pkg/adapters/resend"
	"github.com/jobkeep/go-reminders/pkg/adapters/smtp"
	"github.com/jobkeep/go-reminders/pkg/mailer"
)

// envPrefix namespaces every variable, e.g. REMIND_MAILER_PROVIDER.
const envPrefix = "REMIND"

// Config is the root daemon configuration.
type Config struct {
	Mailer      MailerConfig      `mapstructure:"mailer"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	LogLevel    string            `mapstructure:"log_level"`
}

// MailerConfig selects and configures the email provider.
type MailerConfig struct {
	Provider    string `mapstructure:"provider"`
	FromName    string `mapstructure:"from_name"`
	FromAddress string `mapstructure:"from_address"`

	SMTP   SMTPConfig   `mapstructure:"smtp"`
	Gmail  GmailConfig  `mapstructure:"gmail"`
	Resend ResendConfig `mapstructure:"resend"`
	SES    SESConfig    `mapstructure:"ses"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	StartTLS bool   `mapstructure:"starttls"`
}

type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type SESConfig struct {
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// PersistenceConfig points the daemon at the job/user store it reads on
// startup.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// SchedulerConfig tunes reminder scheduling.
type SchedulerConfig struct {
	// Intervals overrides the default reminder offsets for users without
	// an explicit preference. Unknown labels are ignored downstream.
	Intervals []string `mapstructure:"intervals"`
}

// Defaults returns a runnable configuration: console provider, in-file
// SQLite store, standard intervals.
func Defaults() Config {
	return Config{
		Mailer: MailerConfig{
			Provider:    mailer.ProviderConsole,
			FromName:    "JobKeep Reminders",
			FromAddress: "reminders@jobkeep.app",
			SMTP:        SMTPConfig{Port: 587, StartTLS: true},
			SES:         SESConfig{Region: "us-east-1"},
		},
		Persistence: PersistenceConfig{
			Driver: "sqlite",
			DSN:    "file:jobkeep.db?cache=shared&mode=rwc",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the environment, layered over Defaults.
// When cfgFile is non-empty it is read first and the environment still
// wins.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Defaults())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mailer.provider", d.Mailer.Provider)
	v.SetDefault("mailer.from_name", d.Mailer.FromName)
	v.SetDefault("mailer.from_address", d.Mailer.FromAddress)
	v.SetDefault("mailer.smtp.host", d.Mailer.SMTP.Host)
	v.SetDefault("mailer.smtp.port", d.Mailer.SMTP.Port)
	v.SetDefault("mailer.smtp.username", d.Mailer.SMTP.Username)
	v.SetDefault("mailer.smtp.password", d.Mailer.SMTP.Password)
	v.SetDefault("mailer.smtp.starttls", d.Mailer.SMTP.StartTLS)
	v.SetDefault("mailer.gmail.client_id", d.Mailer.Gmail.ClientID)
	v.SetDefault("mailer.gmail.client_secret", d.Mailer.Gmail.ClientSecret)
	v.SetDefault("mailer.gmail.refresh_token", d.Mailer.Gmail.RefreshToken)
	v.SetDefault("mailer.resend.api_key", d.Mailer.Resend.APIKey)
	v.SetDefault("mailer.ses.region", d.Mailer.SES.Region)
	v.SetDefault("mailer.ses.profile", d.Mailer.SES.Profile)
	v.SetDefault("persistence.driver", d.Persistence.Driver)
	v.SetDefault("persistence.dsn", d.Persistence.DSN)
	v.SetDefault("scheduler.intervals", d.Scheduler.Intervals)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate checks cross-field consistency for the selected provider.
func (c Config) Validate() error {
	switch c.Mailer.Provider {
	case mailer.ProviderSMTP:
		if c.Mailer.SMTP.Host == "" {
			return fmt.Errorf("config: mailer.smtp.host required for smtp provider")
		}
	case mailer.ProviderGmail:
		if c.Mailer.Gmail.ClientID == "" || c.Mailer.Gmail.ClientSecret == "" || c.Mailer.Gmail.RefreshToken == "" {
			return fmt.Errorf("config: gmail provider requires client_id, client_secret and refresh_token")
		}
	case mailer.ProviderResend:
		if c.Mailer.Resend.APIKey == "" {
			return fmt.Errorf("config: mailer.resend.api_key required for resend provider")
		}
	case mailer.ProviderSES, mailer.ProviderConsole:
		// SES resolves credentials from the AWS chain; console needs nothing.
	case "":
		return fmt.Errorf("config: mailer.provider required")
	default:
		return fmt.Errorf("config: unknown mailer provider %q", c.Mailer.Provider)
	}

	if c.Mailer.Provider != mailer.ProviderConsole && c.Mailer.FromAddress == "" {
		return fmt.Errorf("config: mailer.from_address required")
	}

	switch c.Persistence.Driver {
	case "sqlite", "memory":
	case "":
		return fmt.Errorf("config: persistence.driver required")
	default:
		return fmt.Errorf("config: unknown persistence driver %q", c.Persistence.Driver)
	}
	if c.Persistence.Driver == "sqlite" && c.Persistence.DSN == "" {
		return fmt.Errorf("config: persistence.dsn required for sqlite driver")
	}
	return nil
}

// MailerSettings converts to the mailer package's provider config.
func (c Config) MailerSettings() mailer.Config {
	return mailer.Config{
		Provider:    c.Mailer.Provider,
		FromName:    c.Mailer.FromName,
		FromAddress: c.Mailer.FromAddress,
		SMTP: smtp.Config{
			Host:        c.Mailer.SMTP.Host,
			Port:        c.Mailer.SMTP.Port,
			Username:    c.Mailer.SMTP.Username,
			Password:    c.Mailer.SMTP.Password,
			UseStartTLS: c.Mailer.SMTP.StartTLS,
		},
		Gmail: gmail.Config{
			ClientID:     c.Mailer.Gmail.ClientID,
			ClientSecret: c.Mailer.Gmail.ClientSecret,
			RefreshToken: c.Mailer.Gmail.RefreshToken,
		},
		Resend: resend.Config{
			APIKey: c.Mailer.Resend.APIKey,
		},
		SES: aws_ses.Config{
			Region:  c.Mailer.SES.Region,
			Profile: c.Mailer.SES.Profile,
		},
	}
}
