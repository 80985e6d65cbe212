package fitsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/trainload"
)

// DirResult is the outcome of LoadDir.
type DirResult struct {
	// Activities are the decoded files, sorted by file name.
	Activities []*Activity
	// Skipped combines the errors of files that failed to decode. Use
	// multierr.Errors to list them.
	Skipped error
}

// LoadDir analyzes every .fit file directly inside dir in parallel. A file
// that fails to decode is skipped and reported in DirResult.Skipped; only an
// unreadable directory or a cancelled context fails the call.
func LoadDir(ctx context.Context, dir string, cfg Config, log logrus.FieldLogger) (*DirResult, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read FIT directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".fit") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	activities := make([]*Activity, len(paths))
	failures := make([]error, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := AnalyzeFile(path, cfg)
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", filepath.Base(path), err)
				log.WithError(err).WithField("file", path).Warn("skipping FIT file")
				return nil
			}
			log.WithFields(logrus.Fields{
				"file": path,
				"tss":  a.TrainingStress,
				"date": a.Record.StartDateLocal,
			}).Debug("decoded FIT file")
			activities[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Activity, 0, len(activities))
	for _, a := range activities {
		if a != nil {
			out = append(out, a)
		}
	}
	log.WithFields(logrus.Fields{"dir": dir, "decoded": len(out), "files": len(paths)}).Info("loaded FIT directory")
	return &DirResult{Activities: out, Skipped: multierr.Combine(failures...)}, nil
}

// Records returns the core record of every decoded activity.
func (r *DirResult) Records() []trainload.Record {
	out := make([]trainload.Record, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.Record)
	}
	return out
}
