package config

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"call-harvester-go/internal/logger"
)

// Watch reloads a tenant's settings whenever its YAML file is rewritten and
// reports the result through onChange. Runs until ctx is done.
func Watch(ctx context.Context, onChange func(Tenant)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(ClientsDir()); err != nil {
		watcher.Close()
		return err
	}
	log := logger.New().WithField("module", "config")
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				name := filepath.Base(evt.Name)
				if !strings.HasSuffix(name, ".yaml") {
					continue
				}
				tenantID := strings.TrimSuffix(name, ".yaml")
				t, err := Load(tenantID)
				if err != nil {
					log.WithField("tenant", tenantID).WithError(err).Error("tenant config reload failed")
					continue
				}
				log.WithField("tenant", tenantID).Info("tenant config reloaded")
				onChange(t)
			case err := <-watcher.Errors:
				log.WithError(err).Error("config watcher error")
			}
		}
	}()
	return nil
}
