// Package uploads stores user-submitted files and hands back the URL they
// are served under.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core"
)

// ErrTooLarge rejects files above the configured size limit.
var ErrTooLarge = errors.New("file too large")

type Store interface {
	// Save persists the file contents under a fresh key derived from the
	// original filename and returns the URL it will be served under.
	Save(filename string, src io.Reader) (string, error)
}

type localStore struct {
	dir       string
	urlPrefix string
	maxSize   int64
	nowFunc   func() time.Time
}

var _ Store = (*localStore)(nil)

func NewLocalStore(conf *core.Config) (*localStore, error) {
	if err := os.MkdirAll(conf.Uploads.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &localStore{
		dir:       conf.Uploads.Dir,
		urlPrefix: conf.Uploads.URLPrefix,
		maxSize:   conf.Uploads.MaxSize,
		nowFunc:   time.Now,
	}, nil
}

func (store *localStore) Save(filename string, src io.Reader) (string, error) {
	key := makeKey(store.nowFunc(), filename)

	dst, err := os.Create(filepath.Join(store.dir, key))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(src, store.maxSize+1))
	if err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	if written > store.maxSize {
		os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return path.Join(store.urlPrefix, key), nil
}

// makeKey prefixes the sanitized original filename with a timestamp so
// repeated uploads of the same file never collide.
func makeKey(now time.Time, filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("%d-%s", now.Unix(), name)
}

// memoryStore keeps uploads in a map. It backs the tests.
type memoryStore struct {
	mutex     sync.Mutex
	urlPrefix string
	files     map[string][]byte
}

var _ Store = (*memoryStore)(nil)

func NewMemoryStore(urlPrefix string) *memoryStore {
	return &memoryStore{
		urlPrefix: urlPrefix,
		files:     make(map[string][]byte),
	}
}

func (store *memoryStore) Save(filename string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", errors.Wrap(err, "reading upload")
	}
	key := makeKey(time.Now(), filename)

	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.files[key] = data
	return path.Join(store.urlPrefix, key), nil
}
