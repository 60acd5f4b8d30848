// Package convert implements the compose command: it finds stylesheets in
// files, directories and zip archives and runs composition on each of them.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"icssc/archive"
	"icssc/common"
	"icssc/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compose")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if cmd.Bool("strict") {
		env.Cfg.Composition.Strictness = common.StrictnessError
	}
	if cmd.Bool("scope") {
		env.Cfg.Scope.Enable = true
	}
	if cmd.Bool("records") {
		env.Cfg.Processing.Records = true
	}
	env.NoDirs = cmd.Bool("nodirs")
	env.Overwrite = cmd.Bool("overwrite") || env.Cfg.Processing.Overwrite

	if name := cmd.String("scoped"); len(name) > 0 {
		scoped, skipped, err := loadScoped(name)
		if err != nil {
			return err
		}
		env.Scoped = scoped
		env.Rpt.Store("scoped.yaml", name)
		log.Debug("Scoped names loaded", zap.String("file", name), zap.Int("files", len(scoped)), zap.Int("skipped", skipped))
	}

	// Zip does not define file name encoding and old stylesheets may have no
	// @charset, code page covers both
	if cp := cmd.String("codepage"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Using code page for non UTF-8 names and content", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("run", env.RunID))
	defer func(start time.Time) {
		log.Info("Processing completed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Int64("processed", env.Stats.Processed.Load()),
			zap.Int64("unchanged", env.Stats.Unchanged.Load()),
			zap.Int64("skipped", env.Stats.Skipped.Load()),
			zap.Int64("failed", env.Stats.Failed.Load()),
			zap.Int64("warnings", env.Stats.Warnings.Load()))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process finds stylesheets under src and handles them independently of CLI
// framework.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	jobs, err := discover(ctx, src, env, log)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		log.Warn("Nothing to process", zap.String("source", src))
		return nil
	}
	log.Debug("Stylesheets found", zap.Int("count", len(jobs)))
	return newPipeline(env, dst, log).run(ctx, jobs)
}

// discover determines input type: directory, archive (possibly with path
// inside of it) or single stylesheet.
func discover(ctx context.Context, src string, env *state.LocalEnv, log *zap.Logger) ([]job, error) {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist, probably path in archive
			continue
		}

		if fi.IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail, it would be simple file
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			return discoverDir(ctx, head, env, log)
		}

		if !fi.Mode().IsRegular() {
			return nil, fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			inner := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			jobs, err := discoverArchive(head, filepath.ToSlash(inner), "", env, log)
			if err != nil {
				return nil, fmt.Errorf("unable to process archive: %w", err)
			}
			return jobs, nil
		}

		if len(tail) == 0 && isStylesheet(head, env.Cfg.Processing.Extensions) {
			return []job{fileJob(filepath.Base(head), head)}, nil
		}
		return nil, fmt.Errorf("input was not recognized as stylesheet (%s)", head)
	}
	return nil, fmt.Errorf("input source was not found (%s)", src)
}

func fileJob(src, path string) job {
	return job{
		src:    src,
		origin: path,
		open:   func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// discoverDir walks directory tree collecting stylesheets and looking inside
// archives. Result is in natural order of relative paths.
func discoverDir(ctx context.Context, dir string, env *state.LocalEnv, log *zap.Logger) ([]job, error) {
	var jobs []job
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", name), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if isStylesheet(name, env.Cfg.Processing.Extensions) {
			jobs = append(jobs, fileJob(rel, name))
			return nil
		}

		isArchive, err := isArchiveFile(name)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", name), zap.Error(err))
			env.Stats.Skipped.Add(1)
			return nil
		}
		if !isArchive {
			log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", name))
			env.Stats.Skipped.Add(1)
			return nil
		}
		inner, err := discoverArchive(name, "", path.Dir(rel), env, log)
		if err != nil {
			log.Error("Unable to process archive", zap.String("file", name), zap.Error(err))
			env.Stats.Failed.Add(1)
			return nil
		}
		jobs = append(jobs, inner...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(jobs, func(a, b job) int {
		switch {
		case a.src == b.src:
			return 0
		case natural.Less(a.src, b.src):
			return -1
		}
		return 1
	})
	return jobs, nil
}

// discoverArchive lists stylesheets inside archive under pathIn, placing them
// under pathOut.
func discoverArchive(name, pathIn, pathOut string, env *state.LocalEnv, log *zap.Logger) ([]job, error) {
	var jobs []job
	match := func(entry string) bool {
		return isStylesheet(entry, env.Cfg.Processing.Extensions)
	}
	err := archive.Walk(name, pathIn, match, func(arc string, f *zip.File) error {
		inArchive := f.Name
		if cp := env.CodePage; cp != nil && f.NonUTF8 {
			if n, err := cp.NewDecoder().String(inArchive); err == nil {
				inArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", inArchive), zap.Error(err))
			}
		}
		// archive is closed when walk ends, content has to be read now
		data, err := readEntry(f)
		if err != nil {
			log.Error("Unable to read file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			env.Stats.Failed.Add(1)
			return nil
		}
		jobs = append(jobs, job{
			src:    path.Join(pathOut, inArchive),
			origin: arc + "#" + f.Name,
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		log.Debug("Nothing to process", zap.String("archive", name))
	}
	return jobs, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
