package schedule

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/gridrace-service-manager-go/log"
	"github.com/mpapenbr/gridrace-service-manager-go/pkg/model"
)

// Provider holds the current timetable. It is safe for concurrent use.
type Provider struct {
	mu       sync.RWMutex
	schedule *model.Schedule
	log      *log.Logger
	onChange func(*model.Schedule)
}

type ProviderOption func(*Provider)

func WithLogger(l *log.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = l
	}
}

// WithOnChange registers a callback which is called after a successful reload
func WithOnChange(cb func(*model.Schedule)) ProviderOption {
	return func(p *Provider) {
		p.onChange = cb
	}
}

func NewProvider(s *model.Schedule, opts ...ProviderOption) *Provider {
	p := &Provider{
		schedule: s,
		log:      log.Default().Named("schedule"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Get() *model.Schedule {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.schedule
}

func (p *Provider) Set(s *model.Schedule) {
	p.mu.Lock()
	p.schedule = s
	p.mu.Unlock()
}

// Reload loads path and replaces the current timetable.
// On error the current timetable is kept.
func (p *Provider) Reload(path string) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	p.Set(s)
	p.log.Info("schedule loaded",
		log.String("file", path),
		log.Int("slots", len(s.Slots)))
	if p.onChange != nil {
		p.onChange(s)
	}
	return nil
}

// Watch reloads the timetable whenever path changes until ctx is done.
// The parent directory is watched so that editors replacing the file are noticed.
//
//nolint:gocognit // by design
func (p *Provider) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("context done, stopping schedule watch")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			p.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := p.Reload(abs); err != nil {
					p.log.Warn("could not reload schedule, keeping current",
						log.String("file", abs), log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
