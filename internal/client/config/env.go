package config

const (
	EnvToken       = "CASHBOOK_TOKEN"
	EnvCacheSecret = "CASHBOOK_CACHE_SECRET"
)

// parseEnv reads the secrets that never belong in a config file.
func parseEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := getenv(EnvCacheSecret); v != "" {
		cfg.CacheSecret = v
	}
}
