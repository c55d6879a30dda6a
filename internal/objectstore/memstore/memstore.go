// Package memstore is an in-memory objectstore.Store double, a
// byte-slice map keyed by "bucket/path", used by internal/filecatalog
// tests so they never need a live S3-compatible endpoint.
package memstore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/objectstore"
)

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
	lastMod     time.Time
}

// Store is a mutex-guarded in-memory Store implementation.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
}

// New returns an empty Store.
func New() *Store {
	return &Store{buckets: make(map[string]map[string]object)}
}

func key(bucket, path string) string { return bucket + "/" + path }

func (s *Store) Upload(ctx context.Context, bucket, path string, data io.Reader, contentType string, metadata map[string]string) (objectstore.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return objectstore.UploadResult{}, apperr.New(apperr.NotFound, "bucket not found")
	}

	buf, err := io.ReadAll(data)
	if err != nil {
		return objectstore.UploadResult{}, apperr.Wrap(apperr.Internal, "read upload body", err)
	}

	b[path] = object{data: buf, contentType: contentType, metadata: metadata, lastMod: time.Now()}
	return objectstore.UploadResult{ETag: "mem-" + path, Size: int64(len(buf)), Version: "1"}, nil
}

func (s *Store) Download(ctx context.Context, bucket, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "bucket not found")
	}
	obj, ok := b[path]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "object not found")
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Delete(ctx context.Context, bucket, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return false, apperr.New(apperr.NotFound, "bucket not found")
	}
	if _, ok := b[path]; !ok {
		return false, nil
	}
	delete(b, path)
	return true, nil
}

func (s *Store) Exists(ctx context.Context, bucket, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return false, nil
	}
	_, ok = b[path]
	return ok, nil
}

func (s *Store) Stat(ctx context.Context, bucket, path string) (objectstore.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return objectstore.Metadata{}, apperr.New(apperr.NotFound, "bucket not found")
	}
	obj, ok := b[path]
	if !ok {
		return objectstore.Metadata{}, apperr.New(apperr.NotFound, "object not found")
	}
	return objectstore.Metadata{
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		ETag:         "mem-" + path,
		LastModified: obj.lastMod,
		UserMetadata: obj.metadata,
	}, nil
}

func (s *Store) List(ctx context.Context, bucket, prefix string, recursive bool) ([]objectstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "bucket not found")
	}

	var out []objectstore.ObjectInfo
	for path, obj := range b {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if !recursive {
			rest := strings.TrimPrefix(path, prefix)
			if strings.Contains(rest, "/") {
				continue
			}
		}
		out = append(out, objectstore.ObjectInfo{
			Path:         path,
			Size:         int64(len(obj.data)),
			ETag:         "mem-" + path,
			LastModified: obj.lastMod,
		})
	}
	return out, nil
}

func (s *Store) PresignedReadURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if exists, _ := s.Exists(ctx, bucket, path); !exists {
		return "", apperr.New(apperr.NotFound, "object not found")
	}
	return "mem://" + bucket + "/" + path + "?ttl=" + ttl.String(), nil
}

func (s *Store) CreateBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; ok {
		return apperr.New(apperr.Conflict, "bucket already exists")
	}
	s.buckets[bucket] = make(map[string]object)
	return nil
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *Store) DeleteBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		return apperr.New(apperr.NotFound, "bucket not found")
	}
	delete(s.buckets, bucket)
	return nil
}

func (s *Store) ListBuckets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		out = append(out, name)
	}
	return out, nil
}

func (s *Store) Copy(ctx context.Context, srcBucket, srcPath, dstBucket, dstPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sb, ok := s.buckets[srcBucket]
	if !ok {
		return apperr.New(apperr.NotFound, "source bucket not found")
	}
	obj, ok := sb[srcPath]
	if !ok {
		return apperr.New(apperr.NotFound, "source object not found")
	}
	db, ok := s.buckets[dstBucket]
	if !ok {
		return apperr.New(apperr.NotFound, "destination bucket not found")
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	db[dstPath] = object{data: cp, contentType: obj.contentType, metadata: obj.metadata, lastMod: time.Now()}
	return nil
}
