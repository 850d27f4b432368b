package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events one save produces.
const debounce = 200 * time.Millisecond

// Manager holds the configuration the daemon was started with. The file is
// watched but never re-applied: a change on disk is only reported.
type Manager struct {
	path    string
	config  *Config
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	// OnChange, when set, receives each valid configuration read after the
	// file changed, with the top-level sections that differ from the running
	// configuration.
	OnChange func(c *Config, sections []string)
}

func NewManager() (*Manager, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return NewManagerFrom(configPath)
}

func NewManagerFrom(configPath string) (*Manager, error) {
	log.Printf("Config manager: initializing configuration system...")

	config, err := LoadFrom(configPath)
	if err != nil {
		log.Printf("Config manager: failed to load initial configuration: %v", err)
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	log.Printf("Config manager: initialization completed successfully")
	return &Manager{path: configPath, config: config}, nil
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) GetConfig() *Config {
	configCopy := *m.config
	configCopy.Injection.Backends = append([]string(nil), m.config.Injection.Backends...)
	return &configCopy
}

func (m *Manager) StartWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Editors replace the file on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	m.wg.Add(1)
	go m.watchLoop(ctx)

	log.Printf("Config manager: watching %s for changes", m.path)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()
	configFileName := filepath.Base(m.path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(debounce)
			}

		case <-timer.C:
			m.checkChanged()

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) checkChanged() {
	newConfig, err := decodeFile(m.path)
	if err != nil {
		log.Printf("Config manager: changed config cannot be read: %v", err)
		return
	}
	if err := newConfig.Validate(); err != nil {
		log.Printf("Config manager: changed config is invalid: %v", err)
		return
	}

	sections := changedSections(m.config, newConfig)
	if len(sections) == 0 {
		return
	}
	log.Printf("Config manager: %s changed (%s), restart whisperclip to apply", m.path, strings.Join(sections, ", "))
	if m.OnChange != nil {
		m.OnChange(newConfig, sections)
	}
}

// changedSections lists the toml names of the sections that differ.
func changedSections(old, next *Config) []string {
	var sections []string
	ov, nv := reflect.ValueOf(*old), reflect.ValueOf(*next)
	t := ov.Type()
	for i := 0; i < t.NumField(); i++ {
		if !reflect.DeepEqual(ov.Field(i).Interface(), nv.Field(i).Interface()) {
			sections = append(sections, t.Field(i).Tag.Get("toml"))
		}
	}
	return sections
}
