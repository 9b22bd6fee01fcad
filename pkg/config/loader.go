package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering (low -> high):
//  1. defaults (Default())
//  2. YAML file, from the path argument or LABS_CONFIG
//  3. environment (prefix LABS_; double underscore nests, so
//     LABS_EMAIL__SERVER sets email.server)
//
// A .env file in the working directory is read first, so API keys can live
// there instead of the shell environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("LABS_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	envProvider := env.Provider("LABS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "LABS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("METRICDUCK_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return &cfg, nil
}
