package convert

import (
	"context"
	"fmt"
	"io"
	"path"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"icssc/composes"
	"icssc/css"
	"icssc/scope"
	"icssc/state"
)

// job is a single stylesheet discovered in the source.
type job struct {
	// path relative to the source, slash separated
	src string
	// where it came from, for logs
	origin string
	open   func() (io.ReadCloser, error)
}

type pipeline struct {
	env *state.LocalEnv
	dst string
	log *zap.Logger

	mu   sync.Mutex
	errs error
}

func newPipeline(env *state.LocalEnv, dst string, log *zap.Logger) *pipeline {
	return &pipeline{env: env, dst: dst, log: log}
}

func (p *pipeline) fail(src string, err error) {
	p.env.Stats.Failed.Add(1)
	p.log.Error("Unable to process stylesheet", zap.String("file", src), zap.Error(err))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = multierr.Append(p.errs, fmt.Errorf("%s: %w", src, err))
}

// run processes jobs with bounded parallelism. Failure of one stylesheet does
// not stop others, all failures are returned together. Cancellation of ctx
// stops scheduling of new jobs.
func (p *pipeline) run(ctx context.Context, jobs []job) error {
	workers := p.env.Cfg.Processing.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.processSheet(gctx, j); err != nil {
				p.fail(j.src, err)
			}
			return nil
		})
	}
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return multierr.Append(err, p.errs)
}

// processSheet runs all stages for one stylesheet: decoding, parsing, optional
// local scoping, composition and output.
func (p *pipeline) processSheet(ctx context.Context, j job) (rerr error) {
	env := p.env
	log := p.log.With(zap.String("file", j.src))

	var outName string
	log.Debug("Processing starting", zap.String("from", j.origin))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("processing panic: %v", r)
			return
		}
		if rerr == nil {
			log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outName))
		}
	}(time.Now())

	raw, err := readJob(j)
	if err != nil {
		return err
	}
	env.Rpt.StoreData(path.Join("input", j.src), raw)

	data, enc, err := decode(raw, env.CodePage)
	if err != nil {
		return err
	}
	log.Debug("Stylesheet decoded", zap.String("encoding", enc), zap.Int("size", len(data)))

	sheet, err := css.NewParser(log).Parse(data, j.src)
	if err != nil {
		return fmt.Errorf("unable to parse stylesheet: %w", err)
	}
	var warnings []string
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet parsing problem", zap.String("problem", w))
		warnings = append(warnings, w)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var plan *scope.Plan
	if env.Cfg.Scope.Enable {
		plan, err = scope.Prepare(sheet, scope.Options{
			Mode:    env.Cfg.Scope.Mode,
			Pattern: env.Cfg.Scope.NamePattern,
			File:    j.src,
			Logger:  log,
		})
		if err != nil {
			return fmt.Errorf("unable to scope stylesheet: %w", err)
		}
		for _, w := range plan.Warnings {
			log.Warn("Scoping problem", zap.String("problem", w))
			warnings = append(warnings, w)
		}
	}

	scoped := env.ScopedFor(j.src)
	if plan != nil {
		scoped = append(scoped, plan.Records()...)
	}
	res, err := composes.Process(sheet, composes.Options{
		Strictness: env.Cfg.Composition.Strictness,
		File:       j.src,
		Scoped:     scoped,
		Properties: env.Cfg.Composition.Properties,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("unable to resolve composition: %w", err)
	}
	for _, w := range res.Warnings {
		log.Warn("Composition problem", zap.String("selector", w.Selector), zap.String("property", w.Property), zap.String("problem", w.Text))
		warnings = append(warnings, w.String())
	}
	env.Stats.Warnings.Add(int64(len(warnings)))

	if plan != nil {
		if err := plan.Apply(sheet); err != nil {
			return fmt.Errorf("unable to apply scoped names: %w", err)
		}
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(path.Join("state", j.src+".txt"), []byte(res.String()))
	}

	outName = outputPath(j.src, p.dst, env.NoDirs)
	if err := writeOutput(outName, []byte(sheet.String()), env.Overwrite); err != nil {
		return err
	}
	env.Rpt.Store(path.Join("output", j.src), outName)

	if env.Cfg.Processing.Records {
		records := res.Records
		if plan != nil {
			records = append(plan.Records(), records...)
		}
		rf := newRecordsFile(j.src, outName, env.RunID.String(), enc, records, res.Exports, warnings)
		if err := rf.write(recordsPath(outName, env.Cfg.Processing.RecordsSuffix), env.Overwrite); err != nil {
			return fmt.Errorf("unable to write records: %w", err)
		}
	}

	if res.Changed || plan != nil {
		env.Stats.Processed.Add(1)
	} else {
		env.Stats.Unchanged.Add(1)
	}
	return nil
}

func readJob(j job) ([]byte, error) {
	r, err := j.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}
	return data, nil
}
