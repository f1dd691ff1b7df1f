package loader

import (
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watcher tails an input file for appended (word, vector) records,
// emitting each new record on Entries as it is written. It assumes
// the file is only ever appended to, never rewritten in place.
type Watcher struct {
	w      *fsnotify.Watcher
	path   string
	offset int64
	entC   chan Entry
	errC   chan error
	done   chan struct{}
}

// Watch opens path, reads its current contents, and begins watching
// it for appended lines. The initial contents are returned directly;
// subsequent appends arrive on the returned Watcher's Entries channel.
func Watch(path string) ([]Entry, *Watcher, error) {
	initial, size, err := readAll(path)
	if err != nil {
		return nil, nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, nil, err
	}
	w := &Watcher{
		w:      fw,
		path:   path,
		offset: size,
		entC:   make(chan Entry, 64),
		errC:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return initial, w, nil
}

func readAll(path string) ([]Entry, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	entries, err := Read(f)
	if err != nil {
		return nil, 0, err
	}
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, err
	}
	return entries, size, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.drainAppends()
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			select {
			case w.errC <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) drainAppends() {
	f, err := os.Open(w.path)
	if err != nil {
		w.errC <- err
		return
	}
	defer f.Close()

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		w.errC <- err
		return
	}
	entries, err := Read(f)
	if err != nil {
		w.errC <- err
		return
	}
	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		w.errC <- err
		return
	}
	w.offset = pos
	for _, e := range entries {
		w.entC <- e
	}
}

// Entries returns the channel on which newly appended records are
// delivered.
func (w *Watcher) Entries() <-chan Entry { return w.entC }

// Errors returns the channel on which watch errors are delivered.
func (w *Watcher) Errors() <-chan error { return w.errC }

// Close stops watching and releases the underlying file handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}
