// Package loader provides the default filesystem-backed vm.ModuleLoader:
// resolving a dotted import path to a source file and, opt-in, watching
// loaded files so a long-running host (a REPL, a dev server) can notice
// on-disk edits instead of serving a stale compiled module forever.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileModuleLoader resolves `import a.b` to <Root>/a/b<Ext> (Ext defaults
// to ".hebi"). It satisfies the vm.ModuleLoader interface structurally
// (Load(path string) (src, displayName string, err error)) without
// importing internal/vm, keeping this package's dependency direction
// one-way.
type FileModuleLoader struct {
	Root string
	Ext  string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	changed map[string]bool
}

// New returns a loader rooted at root, with the default ".hebi" extension.
func New(root string) *FileModuleLoader {
	return &FileModuleLoader{Root: root, Ext: ".hebi", changed: map[string]bool{}}
}

// Load reads the file for path, starting (lazily, on first use) a watcher
// on it so later edits are reported through Changed.
func (l *FileModuleLoader) Load(path string) (string, string, error) {
	file := l.resolve(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", file, err)
	}
	l.watch(file)
	return string(data), file, nil
}

func (l *FileModuleLoader) resolve(path string) string {
	ext := l.Ext
	if ext == "" {
		ext = ".hebi"
	}
	segs := strings.Split(path, ".")
	return filepath.Join(append([]string{l.Root}, segs...)...) + ext
}

func (l *FileModuleLoader) watch(file string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return // best-effort: run without live-reload rather than fail Load
		}
		l.watcher = w
		go l.run()
	}
	_ = l.watcher.Add(file)
}

func (l *FileModuleLoader) run() {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.mu.Lock()
				l.changed[ev.Name] = true
				l.mu.Unlock()
			}
		case _, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Changed reports and clears whether file has been modified on disk since
// it was last loaded. A host re-imports by evicting its own module cache
// entry and calling Load again; this package only tracks the signal.
func (l *FileModuleLoader) Changed(file string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	v := l.changed[file]
	delete(l.changed, file)
	return v
}

// Close stops the underlying filesystem watcher, if one was ever started.
func (l *FileModuleLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}
