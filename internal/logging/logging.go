// Package logging builds the CLI's debug logger. The interactive shell owns
// the terminal, so logs never go to stdout/stderr; when FATHOM_DEBUG=1 they
// are written to a file under the state directory, otherwise logging is a
// no-op.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fathomhq/fathom-cli/internal/config"
)

// New returns the process logger. The caller should defer Sync.
func New() (*zap.Logger, error) {
	if os.Getenv("FATHOM_DEBUG") != "1" {
		return zap.NewNop(), nil
	}

	path, err := config.DebugLogPath()
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
