package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env               string        `mapstructure:"ENV"`
	Port              string        `mapstructure:"PORT"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	TicketingURL      string        `mapstructure:"TICKETING_URL"`
	TicketingToken    string        `mapstructure:"TICKETING_TOKEN"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	SystemAgentEmails string        `mapstructure:"SYSTEM_AGENT_EMAILS"`
	RegionGroups      string        `mapstructure:"REGION_GROUPS"`
	FallbackGroupID   int           `mapstructure:"FALLBACK_GROUP_ID"`
	CORSAllowed       string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("FALLBACK_GROUP_ID", 1)
	v.SetDefault("SYSTEM_AGENT_EMAILS", "")
	v.SetDefault("REGION_GROUPS", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SystemEmails splits the configured system-account exclusion list.
func (c Config) SystemEmails() []string {
	if strings.TrimSpace(c.SystemAgentEmails) == "" {
		return nil
	}
	parts := strings.Split(c.SystemAgentEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
