// Package config loads runtime configuration for the cashbook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: CASHBOOK_TOKEN and CASHBOOK_CACHE_SECRET.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the REST API
//	-i int      notification poll interval (seconds)
//	-s string   durable store driver: sqlite, leveldb or memory
//	-d string   durable store path
//	-t string   bearer token to start the session with
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8000/api/",
//	  "request_timeout": "12s",
//	  "store_driver": "sqlite",
//	  "store_path": "cashbook.db",
//	  "cache_default_ttl": "5m",
//	  "cache_max_size": 100,
//	  "cache_cleanup_interval": "1h",
//	  "poll_interval": "30s",
//	  "account_debounce": "100ms",
//	  "membership_debounce": "300ms",
//	  "pending_grace": "2m",
//	  "sequence_guard": true,
//	  "realtime_url": "",
//	  "realtime_queue": "",
//	  "log_format": "auto"
//	}
//
// Secrets (token, cache secret) are never read from the JSON file.
package config
