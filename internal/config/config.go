package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DiagramPath    string `envconfig:"DIAGRAM_PATH" default:"./data/diagram.svg"`
	FallbackURL    string `envconfig:"FALLBACK_URL" default:""`
	WebDir         string `envconfig:"WEB_DIR" default:"./web"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	RedirectHosts  string `envconfig:"REDIRECT_HOSTS" default:"google.com"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into its entries.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

// Redirects splits RedirectHosts into its entries.
func (c *Config) Redirects() []string {
	return splitList(c.RedirectHosts)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
