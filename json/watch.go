package json

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/cosap/voicechat"
	"github.com/fsnotify/fsnotify"
)

// Watch reports the stored credentials each time the credential file is
// written, replaced or removed by any process. The channel is closed when ctx
// is done.
func (s *CredentialStore) Watch(ctx context.Context, logger *slog.Logger) (<-chan voicechat.Credentials, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dir := filepath.Dir(s.path)
	name := filepath.Base(s.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan voicechat.Credentials)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name || ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
					continue
				}
				creds, err := s.Load(ctx)
				if err != nil {
					logger.Warn("reloading credentials", "error", err)
					continue
				}
				select {
				case out <- creds:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("credential watcher", "error", err)
			}
		}
	}()
	return out, nil
}
