package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("watch")

// Files 维护目录下所有待扫描文件的注册表
type Files struct {
	dirty  atomic.Bool
	path   string
	target string
	ext    string
	States map[uint64]*FileState `json:"states"`
	ch     chan *FileState
	done   chan struct{}
}

// NewFiles loads the registry at registryPath, scans the directory of
// target for files sharing its base name and extension, and starts
// watching the directory for new ones. The watcher goroutine runs
// until ctx is cancelled.
func NewFiles(ctx context.Context, registryPath, target string) (*Files, error) {
	r := &Files{
		States: make(map[uint64]*FileState),
		path:   registryPath,
		target: target,
		ext:    filepath.Ext(target),
		ch:     make(chan *FileState, 1),
		done:   make(chan struct{}),
	}
	if _, err := os.Stat(r.path); err == nil {
		states, err := loadRegistry(r.path)
		if err != nil {
			return nil, err
		}
		r.States = states
	}
	dir := filepath.Dir(r.target)
	base := filepath.Base(r.target)
	if err := r.scanFiles(dir, base); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %v", err)
	}
	if err := r.Save(); err != nil {
		return nil, fmt.Errorf("failed to save registry: %v", err)
	}
	if err := r.watchDirectory(ctx, dir); err != nil {
		return nil, fmt.Errorf("failed to start watching directory: %v", err)
	}
	return r, nil
}

func loadRegistry(path string) (map[uint64]*FileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %v", err)
	}
	states := make(map[uint64]*FileState)
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry: %v", err)
	}
	return states, nil
}

func (r *Files) List() <-chan *FileState {
	return r.ch
}

func (r *Files) SetDirty() {
	r.dirty.Store(true)
}

func (r *Files) Save() error {
	if !r.dirty.Load() {
		return nil
	}
	data, err := json.MarshalIndent(r.States, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %v", err)
	}
	// 先写临时文件再重命名，保证原子性
	tempFile := r.path + ".tmp"
	if errx := os.WriteFile(tempFile, data, 0o644); errx != nil {
		return fmt.Errorf("failed to write registry file: %v", errx)
	}
	if err := os.Rename(tempFile, r.path); err != nil {
		return fmt.Errorf("failed to rename registry file: %v", err)
	}
	r.dirty.Store(false)
	return nil
}

// scanFiles registers files already present, e.g. rotated copies of
// the target.
func (r *Files) scanFiles(dir, base string) error {
	fileName := strings.TrimSuffix(base, r.ext)
	pattern := fmt.Sprintf("^(%s).*%s$", regexp.QuoteMeta(fileName), regexp.QuoteMeta(r.ext))
	targetRegex := regexp.MustCompile(pattern)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	states := make(map[uint64]*FileState)
	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if !targetRegex.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		state, err := NewFileState(path)
		if err != nil {
			continue
		}
		states[state.Inode] = state
	}
	// carry over known offsets so restarts resume where they stopped
	for inode, state := range states {
		if oldState := r.States[inode]; oldState != nil {
			state.Offset = oldState.Offset
		}
	}
	r.States = states
	r.SetDirty()
	return nil
}

func (r *Files) addFile(ctx context.Context, state *FileState) {
	if oldState := r.States[state.Inode]; oldState != nil {
		oldState.Path = state.Path
		oldState.Size = state.Size
		oldState.Created = state.Created
		oldState.Modified = state.Modified
		return
	}
	r.States[state.Inode] = state
	select {
	case r.ch <- state:
	case <-ctx.Done():
	}
}

// Close persists the registry. The watcher goroutine exits with the
// context passed to NewFiles; Done reports when it has.
func (r *Files) Close() error {
	return r.Save()
}

// Done is closed once the watcher goroutine has stopped.
func (r *Files) Done() <-chan struct{} {
	return r.done
}

func (r *Files) watchDirectory(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %v", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory: %v", err)
	}
	go func() {
		defer close(r.done)
		defer watcher.Close()
		for _, state := range r.States {
			select {
			case r.ch <- state:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-watcher.Events:
				if event.Op&fsnotify.Create == fsnotify.Create {
					name := event.Name
					if !strings.HasSuffix(name, r.ext) {
						continue
					}
					state, err := NewFileState(name)
					if err != nil {
						log.Errorf("failed to stat new file %s: %v", name, err)
						continue
					}
					r.addFile(ctx, state)
				}
			case err := <-watcher.Errors:
				log.Errorf("watcher error: %v", err)
			}
		}
	}()
	return nil
}
