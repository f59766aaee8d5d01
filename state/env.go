// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"svgdx/config"
	"svgdx/doc"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by transform subcommand
	NoDirs         bool
	Overwrite      bool
	UserStylesheet string
	// RunID identifies a single program run in logs and output names.
	RunID string

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// TransformOptions returns pipeline options built from the loaded
// configuration and the user stylesheet.
func (e *LocalEnv) TransformOptions() doc.Options {
	if e.Cfg == nil {
		o := doc.DefaultOptions()
		o.UserStylesheet = e.UserStylesheet
		return o
	}
	o := e.Cfg.Transform.Options()
	o.UserStylesheet = e.UserStylesheet
	return o
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
