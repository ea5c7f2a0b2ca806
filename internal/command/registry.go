package command

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codewing-ai/codewing/internal/config"
	"github.com/codewing-ai/codewing/internal/logging"
)

// Registry resolves command identifiers to fully merged commands. User
// commands can be swapped at runtime; builtins and the base are fixed.
type Registry struct {
	mu       sync.RWMutex
	base     Command
	builtins map[string]*Command
	order    []string
	user     map[string]*config.CommandConfig
}

// NewRegistry builds a registry over the builtin catalog plus the user
// commands from cfg.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		base:     baseCommand,
		builtins: make(map[string]*Command, len(builtinCommands)),
	}
	for i := range builtinCommands {
		c := &builtinCommands[i]
		r.builtins[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	if cfg != nil {
		r.SetUserCommands(cfg.Commands)
	}
	return r
}

// SetUserCommands replaces the user-defined command set. A user command whose
// id matches a builtin overrides that builtin's fields; an unmatched id adds a
// new command. A user command with only a label gets its id derived from it.
func (r *Registry) SetUserCommands(cmds []config.CommandConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(r.builtins))
	for id := range r.builtins {
		known[id] = true
	}

	r.user = make(map[string]*config.CommandConfig, len(cmds))
	r.order = r.order[:0]
	for _, c := range builtinCommands {
		r.order = append(r.order, c.ID)
	}
	for i := range cmds {
		c := &cmds[i]
		id := c.ID
		if id == "" {
			id = Slugify(c.Label)
		}
		r.user[id] = c
		if !known[id] {
			known[id] = true
			r.order = append(r.order, id)
		}
	}
}

// Resolve returns the merged command for id. Resolution never fails: an
// unknown id yields the base command with the id attached, so callers always
// have a usable template.
func (r *Registry) Resolve(id string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := merge(r.user[id], r.builtins[id], r.base)
	if out.ID == "" {
		out.ID = id
	}
	return out
}

// All returns every registered command, builtins first in catalog order, then
// user additions in configuration order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.order))
	for _, id := range r.order {
		c := merge(r.user[id], r.builtins[id], r.base)
		if c.ID == "" {
			c.ID = id
		}
		out = append(out, c)
	}
	return out
}

// Categories groups commands by category, sorted by category name.
func (r *Registry) Categories() map[string][]Command {
	out := make(map[string][]Command)
	for _, c := range r.All() {
		out[c.Category] = append(out[c.Category], c)
	}
	return out
}

// CategoryNames returns the sorted list of category names in use.
func (r *Registry) CategoryNames() []string {
	cats := r.Categories()
	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// watchDebounce coalesces the write bursts editors produce when saving.
const watchDebounce = 200 * time.Millisecond

// Watch reloads user commands whenever the config file changes, until ctx is
// canceled. Reload failures keep the previous command set.
func (r *Registry) Watch(ctx context.Context, cfg *config.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which would drop a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(cfg.ConfigPath())); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		logger := logging.Logger()
		var timer *time.Timer
		reload := func() {
			fresh, err := config.Load()
			if err != nil {
				logger.Warn("config reload failed, keeping previous commands", "error", err)
				return
			}
			r.SetUserCommands(fresh.Commands)
			logger.Info("reloaded user commands", "count", len(fresh.Commands))
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != cfg.ConfigPath() {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}
