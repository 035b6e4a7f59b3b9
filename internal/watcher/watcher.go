package watcher

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"document-gpt/internal/parser"
)

// Indexer ingests a single document file.
type Indexer interface {
	IndexFile(ctx context.Context, path string) error
}

// Watcher indexes supported documents dropped into the upload directory.
type Watcher struct {
	fs  *fsnotify.Watcher
	ix  Indexer
	dir string
}

func New(dir string, ix Indexer) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}
	return &Watcher{fs: fs, ix: ix, dir: dir}, nil
}

// Run blocks until the context is cancelled, indexing every supported
// file created in the watched directory. Indexing failures are logged
// and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	log.Info().Str("dir", w.dir).Msg("watching upload directory")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == 0 {
				continue
			}
			if !parser.Supported(event.Name) {
				continue
			}
			if err := w.ix.IndexFile(ctx, event.Name); err != nil {
				log.Error().Err(err).Str("file", event.Name).Msg("auto-indexing failed")
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
