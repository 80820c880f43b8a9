package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/config"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
)

// newLogger builds the logger named by format. The returned func flushes it.
// Auto picks text on a terminal and JSON otherwise.
func newLogger(format string, w io.Writer) (logging.Logger, func() error, error) {
	noop := func() error { return nil }
	switch format {
	case config.LogFormatAuto, "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return logging.NewTextLogger(w, slog.LevelInfo), noop, nil
		}
		return logging.NewJSONLogger(w, slog.LevelInfo), noop, nil
	case config.LogFormatText:
		return logging.NewTextLogger(w, slog.LevelInfo), noop, nil
	case config.LogFormatJSON:
		return logging.NewJSONLogger(w, slog.LevelInfo), noop, nil
	case config.LogFormatZap:
		zl, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("building zap logger: %w", err)
		}
		l := logging.NewZapLogger(zl)
		return l, l.Sync, nil
	}
	return nil, nil, fmt.Errorf("unknown log format %q", format)
}
