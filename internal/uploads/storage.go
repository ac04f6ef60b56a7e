package uploads

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotExist is returned by a Backend when the named object is missing.
var ErrNotExist = stderrors.New("uploads: object does not exist")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name        string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	ModTime     time.Time `json:"createdAt"`
}

// Backend stores named blobs. Names are flat: no directories.
type Backend interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (int64, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error)
	List(ctx context.Context) ([]ObjectInfo, error)
	// Delete removes name. A missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// LocalBackend keeps objects in a directory on disk.
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalBackend{dir: dir}, nil
}

func (b *LocalBackend) Dir() string { return b.dir }

func (b *LocalBackend) Save(_ context.Context, name string, r io.Reader, _ string) (int64, error) {
	f, err := os.Create(filepath.Join(b.dir, name))
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return 0, err
	}
	return n, nil
}

func (b *LocalBackend) Open(_ context.Context, name string) (io.ReadCloser, *ObjectInfo, error) {
	f, err := os.Open(filepath.Join(b.dir, name))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotExist
		}
		return nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, nil, ErrNotExist
	}
	return f, &ObjectInfo{Name: name, Size: st.Size(), ModTime: st.ModTime()}, nil
}

func (b *LocalBackend) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(b.dir, name))
	if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns regular files, newest first.
func (b *LocalBackend) List(_ context.Context) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}
	out := make([]ObjectInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ObjectInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(objs []ObjectInfo) {
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].ModTime.After(objs[j].ModTime)
	})
}
