package service

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/flowchart/internal/translate"
)

// FileResult holds the outcome of translating one file of a batch.
type FileResult struct {
	Path        string
	Translation *Translation
	// Err is non-nil if this file failed; other files are unaffected.
	Err error
}

// TranslateFiles translates paths in parallel, at most Workers at a time.
// A failing file is reported in its FileResult and does not stop the batch;
// the returned error is non-nil only when ctx is canceled. Results keep the
// order of paths.
func (s *Service) TranslateFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, path := range paths {
		s.emit(ProgressEvent{Path: path, Status: ProgressPending})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FileResult{Path: path, Err: err}
				return err
			}
			s.emit(ProgressEvent{Path: path, Status: ProgressWorking})

			t, err := s.TranslateFile(gctx, path)
			results[i] = FileResult{Path: path, Translation: t, Err: err}
			if err != nil {
				s.logger.Warn("skipping file", "path", path, "err", err)
				s.emit(ProgressEvent{Path: path, Status: ProgressFailed, Message: err.Error()})
				return nil
			}
			s.emit(ProgressEvent{Path: path, Status: ProgressComplete})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// TranslateDir walks root and translates every file with a recognized
// extension, skipping the configured excluded directories.
func (s *Service) TranslateDir(ctx context.Context, root string) ([]FileResult, error) {
	paths, err := s.SourceFiles(root)
	if err != nil {
		return nil, err
	}
	s.logger.Info("translating directory", "root", root, "files", len(paths))
	return s.TranslateFiles(ctx, paths)
}

// SourceFiles lists the translatable files under root in lexical order.
func (s *Service) SourceFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && slices.Contains(s.opts.ExcludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, err := translate.DetectLanguage(path); err == nil {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

// emit sends a progress event if a callback is registered.
func (s *Service) emit(ev ProgressEvent) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(ev)
	}
}
