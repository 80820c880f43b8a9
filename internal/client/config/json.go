package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/flagx"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero so absent keys keep defaults.
type JsonConfig struct {
	APIBaseURL           *string         `json:"api_base_url"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	StoreDriver          *string         `json:"store_driver"`
	StorePath            *string         `json:"store_path"`
	CacheDefaultTTL      *timex.Duration `json:"cache_default_ttl"`
	CacheMaxSize         *int            `json:"cache_max_size"`
	CacheCleanupInterval *timex.Duration `json:"cache_cleanup_interval"`
	PollInterval         *timex.Duration `json:"poll_interval"`
	AccountDebounce      *timex.Duration `json:"account_debounce"`
	MembershipDebounce   *timex.Duration `json:"membership_debounce"`
	PendingGrace         *timex.Duration `json:"pending_grace"`
	SequenceGuard        *bool           `json:"sequence_guard"`
	RealtimeURL          *string         `json:"realtime_url"`
	RealtimeQueue        *string         `json:"realtime_queue"`
	LogFormat            *string         `json:"log_format"`
}

// parseJson overlays cfg with the JSON file named by -c or -config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %q: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config %q: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}

func (jc JsonConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.StorePath, jc.StorePath)
	setDuration(&cfg.CacheDefaultTTL, jc.CacheDefaultTTL)
	if jc.CacheMaxSize != nil {
		cfg.CacheMaxSize = *jc.CacheMaxSize
	}
	setDuration(&cfg.CacheCleanupInterval, jc.CacheCleanupInterval)
	setDuration(&cfg.PollInterval, jc.PollInterval)
	setDuration(&cfg.AccountDebounce, jc.AccountDebounce)
	setDuration(&cfg.MembershipDebounce, jc.MembershipDebounce)
	setDuration(&cfg.PendingGrace, jc.PendingGrace)
	if jc.SequenceGuard != nil {
		cfg.SequenceGuard = *jc.SequenceGuard
	}
	setString(&cfg.RealtimeURL, jc.RealtimeURL)
	setString(&cfg.RealtimeQueue, jc.RealtimeQueue)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
