package executor

import (
	"context"
	"crypto/sha256"

	"github.com/tvmbox/emulator-host/pkg/emulation"
	"go.uber.org/zap"
)

// engineCache owns the at-most-one live engine handle. Engine construction
// parses and validates the whole configuration blob, so repeated emulations
// against the same configuration must not pay that cost per call. The cache
// key is content identity (a hash of the config), not object identity,
// because callers rebuild their configuration value per call.
type engineCache struct {
	disp   *dispatcher
	logger *zap.Logger

	live       bool
	handle     uint64
	configHash [32]byte
	verbosity  emulation.Verbosity
}

func newEngineCache(disp *dispatcher, logger *zap.Logger) *engineCache {
	return &engineCache{
		disp:   disp,
		logger: logger.With(zap.String("component", "engine-cache")),
	}
}

// handleFor returns the cached engine handle when both the configuration
// content and the verbosity match; otherwise it destroys the old handle (if
// any) and constructs a new one. Cache fields are only assigned after a
// successful construction, so a failed create never leaves a half-cached
// handle behind.
func (c *engineCache) handleFor(ctx context.Context, config string, verbosity emulation.Verbosity) (uint64, error) {
	hash := sha256.Sum256([]byte(config))

	if c.live && c.verbosity == verbosity && c.configHash == hash {
		c.logger.Debug("reusing engine handle",
			zap.String("verbosity", verbosity.String()),
		)
		return c.handle, nil
	}

	if c.live {
		if _, err := c.disp.invoke(ctx, emulation.FuncDestroyEmulator, c.handle); err != nil {
			return 0, err
		}
		c.live = false
		c.logger.Debug("destroyed stale engine handle")
	}

	handle, err := c.disp.invoke(ctx, emulation.FuncCreateEmulator, config, int(verbosity))
	if err != nil {
		return 0, err
	}
	if handle == 0 {
		return 0, &CreateEngineError{}
	}

	c.live = true
	c.handle = handle
	c.configHash = hash
	c.verbosity = verbosity

	c.logger.Debug("created engine handle",
		zap.String("verbosity", verbosity.String()),
		zap.Int("config_bytes", len(config)),
	)
	return handle, nil
}
