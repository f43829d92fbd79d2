package flourish

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long a file must stay quiet before it is reloaded.
// Editors often write a file several times per save.
const reloadDebounce = 100 * time.Millisecond

// LayoutWatcher watches a layout file and delivers a freshly parsed Layout
// each time it changes on disk. Files that fail to parse are reported on
// Errors and the previous layout stays in place.
type LayoutWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	Layouts chan *Layout
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
	done    chan struct{}
}

// WatchLayout starts watching path. The containing directory is watched so
// that editors which save by rename are picked up.
func WatchLayout(path string) (*LayoutWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("layout: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("layout: watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("layout: watch %s: %w", path, err)
	}
	lw := &LayoutWatcher{
		path:    abs,
		watcher: w,
		Layouts: make(chan *Layout, 4),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go lw.run()
	return lw, nil
}

// Path returns the absolute path being watched.
func (w *LayoutWatcher) Path() string {
	return w.path
}

// Close stops the watcher. Layouts and Errors are closed once the watch
// goroutine has exited. Safe to call more than once.
func (w *LayoutWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *LayoutWatcher) run() {
	defer func() {
		close(w.Layouts)
		close(w.Errors)
		close(w.done)
	}()
	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				debounce.Reset(reloadDebounce)
			}
		case <-debounce.C:
			l, err := LoadLayout(w.path)
			if err != nil {
				w.sendErr(err)
				continue
			}
			select {
			case w.Layouts <- l:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendErr(err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *LayoutWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return abs == w.path
}

// sendErr reports err without blocking. When an error is already pending the
// new one is dropped.
func (w *LayoutWatcher) sendErr(err error) {
	select {
	case w.Errors <- err:
	default:
		debugf("layout watcher: dropped error: %v", err)
	}
}

// Reload replaces page with a page built from the newest layout waiting on
// w, if any. It never blocks. On a build error the old page is kept and
// returned alongside the error.
func (w *LayoutWatcher) Reload(scene *Scene, page *Page) (*Page, error) {
	latest := w.drain()
	if latest == nil {
		return page, nil
	}
	next, err := latest.Build(scene)
	if err != nil {
		return page, err
	}
	var top float64
	cam := scene.primaryCamera()
	if cam != nil {
		top = cam.ScrollTop()
	}
	if page != nil {
		page.Unmount()
	}
	if cam != nil {
		cam.SetBounds(next.Bounds())
		cam.SetScrollTop(top)
	}
	return next, nil
}

// drain returns the newest pending layout, or nil.
func (w *LayoutWatcher) drain() *Layout {
	var latest *Layout
	for {
		select {
		case l, ok := <-w.Layouts:
			if !ok {
				return latest
			}
			latest = l
		default:
			return latest
		}
	}
}
