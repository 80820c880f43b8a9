package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only the flags listed in the package doc are considered; everything else
// in args is filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-s", "-d", "-t"})

	fs := flag.NewFlagSet("cashbook", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the REST API")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "notification poll interval (in seconds)")
	fs.StringVar(&cfg.StoreDriver, "s", cfg.StoreDriver, "durable store driver (sqlite, leveldb, memory)")
	fs.StringVar(&cfg.StorePath, "d", cfg.StorePath, "durable store path")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	// -i only overrides when given, so sub-second JSON values survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.PollInterval = time.Duration(*pollInterval) * time.Second
		}
	})
	return nil
}
