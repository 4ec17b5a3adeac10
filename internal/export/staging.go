package export

import (
	"log/slog"
	"os"

	derrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// beginStaging creates a fresh sibling staging directory for dist.
func beginStaging(dist string) (string, error) {
	stage := dist + "_stage"
	if err := os.RemoveAll(stage); err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "remove stale staging directory").
			WithContext("path", stage).Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", derrors.WrapError(err, derrors.CategoryFileSystem, "create staging directory").
			WithContext("path", stage).Build()
	}
	return stage, nil
}

// promoteStaging replaces dist with the staging directory. The previous output is kept
// as dist.prev until the rename succeeded.
func promoteStaging(stage, dist string, logger *slog.Logger) error {
	prev := dist + ".prev"
	if err := os.RemoveAll(prev); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "remove previous backup").
			WithContext("path", prev).Build()
	}
	if _, err := os.Stat(dist); err == nil {
		if err := os.Rename(dist, prev); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "backup existing output").
				WithContext("path", dist).Build()
		}
	}
	if err := os.Rename(stage, dist); err != nil {
		// put the old output back
		_ = os.Rename(prev, dist)
		return derrors.WrapError(err, derrors.CategoryFileSystem, "promote staging").
			WithContext("path", dist).Build()
	}
	if err := os.RemoveAll(prev); err != nil {
		logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	logger.Debug("Promoted staging directory", logfields.Path(dist))
	return nil
}

// abortStaging removes the staging directory after a failed build.
func abortStaging(stage string, logger *slog.Logger) {
	if err := os.RemoveAll(stage); err != nil {
		logger.Warn("Failed to remove staging directory after abort", logfields.Path(stage), logfields.Error(err))
	}
}
