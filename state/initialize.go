package state

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// LoadStylesheet reads the user stylesheet named in the configuration, if
// any. Its content is appended to the generated style element.
func (e *LocalEnv) LoadStylesheet() error {
	if e.Cfg == nil || len(e.Cfg.Transform.StylesheetPath) == 0 {
		return nil
	}
	data, err := os.ReadFile(e.Cfg.Transform.StylesheetPath)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}
	e.UserStylesheet = string(data)
	e.Rpt.Store("stylesheet.css", e.Cfg.Transform.StylesheetPath)
	if e.Log != nil {
		e.Log.Debug("User stylesheet loaded", zap.String("path", e.Cfg.Transform.StylesheetPath), zap.Int("size", len(data)))
	}
	return nil
}
