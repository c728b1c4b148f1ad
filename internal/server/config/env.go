package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/proofofplace/internal/flagx"
	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment variable read by the server.
const EnvPrefix = "POP_"

// parseEnv overlays POP_* environment variables onto config. When -env-file
// is given, that file is loaded first; variables already present in the
// process environment take precedence over it. Errors panic.
func parseEnv(config *Config) {
	if path := flagx.EnvFile(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
