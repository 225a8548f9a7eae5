package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
)

// Object is a document kept by the memory store.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps objects in memory. Its signed URLs are not served.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]Object
	failOn  map[string]bool
}

var _ core.ObjectStore = (*MemoryStore)(nil) // interface compliance check

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: make(map[string]Object), failOn: make(map[string]bool)}
}

func (store *MemoryStore) Upload(ctx context.Context, path, contentType string, body io.Reader, size int64) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for part := range store.failOn {
		if strings.Contains(path, part) {
			return errors.New("upload rejected")
		}
	}
	var buf bytes.Buffer
	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			return errors.Wrap(err, "reading object")
		}
	}
	store.objects[path] = Object{ContentType: contentType, Data: buf.Bytes()}
	return nil
}

func (store *MemoryStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if _, ok := store.objects[path]; !ok {
		return "", core.ErrObjectNotFound
	}
	exp := core.NowFunc().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s/%s?expires=%d", store.bucket, url.PathEscape(path), exp), nil
}

// Get returns the object stored at path.
func (store *MemoryStore) Get(path string) (Object, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	obj, ok := store.objects[path]
	return obj, ok
}

// Len returns the number of stored objects.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.objects)
}

// FailUploads makes uploads fail when their path contains part.
func (store *MemoryStore) FailUploads(part string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.failOn[part] = true
}
