package config

import "os"

// Environment variables recognised by the server. They override the JSON
// file and are overridden by flags.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvAuthDomain   = "AUTH0_DOMAIN"
	EnvAuthAudience = "AUTH0_API_AUDIENCE"
)

func parseEnv(config *Config) {
	if v, ok := os.LookupEnv(EnvDatabaseURL); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(EnvAuthDomain); ok {
		config.AuthDomain = v
	}
	if v, ok := os.LookupEnv(EnvAuthAudience); ok {
		config.AuthAudience = v
	}
}
