// Package state defines shared program state.
package state

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"icssc/composes"
	"icssc/config"
)

type envKey struct{}

// Stats counts stylesheets handled during a run.
type Stats struct {
	Processed atomic.Int64
	Unchanged atomic.Int64
	Skipped   atomic.Int64
	Failed    atomic.Int64
	Warnings  atomic.Int64
}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// identifies run in logs and debug report
	RunID uuid.UUID

	// used by compose subcommand
	NoDirs    bool
	Overwrite bool
	CodePage  encoding.Encoding
	// scoped names produced by earlier tooling, keyed by stylesheet path
	Scoped map[string][]composes.Message

	Stats Stats

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

// ScopedFor returns scoped records for a stylesheet, records without path
// apply to every stylesheet.
func (e *LocalEnv) ScopedFor(path string) []composes.Message {
	if len(e.Scoped) == 0 {
		return nil
	}
	out := append([]composes.Message{}, e.Scoped[""]...)
	if len(path) > 0 {
		out = append(out, e.Scoped[path]...)
	}
	return out
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
