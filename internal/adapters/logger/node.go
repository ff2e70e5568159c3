package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

// LevelEnv names the environment variable holding the initial log level
// (debug, info, warn or error). The --verbose flag still overrides it.
const LevelEnv = "STRATA_LOG_LEVEL"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(context.Context) (ports.Logger, error) {
			return FromEnv(os.Getenv(LevelEnv))
		},
	})
}

// FromEnv creates a Logger at the given level name. An empty name means info.
func FromEnv(level string) (*Logger, error) {
	l, _ := New().(*Logger)
	if level == "" {
		return l, nil
	}
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid log level"), "env", LevelEnv)
	}
	l.SetLevel(lv)
	return l, nil
}
