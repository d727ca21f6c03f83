package exports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"pantrycore/internal/blob"
)

// ObjectStore persists export artifacts. Put fails when the key exists.
type ObjectStore interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (Artifact, error)
	Get(ctx context.Context, key string) (Artifact, []byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Artifact, error)
}

// BlobObjectStore adapts a blob.Store into an ObjectStore.
type BlobObjectStore struct {
	blobs blob.Store
}

// NewBlobObjectStore wraps blobs as an export artifact store.
func NewBlobObjectStore(blobs blob.Store) *BlobObjectStore {
	return &BlobObjectStore{blobs: blobs}
}

func artifactFromInfo(info blob.Info) Artifact {
	return Artifact{
		Key:         info.Key,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		URL:         info.URL,
		CreatedAt:   info.LastModified,
	}
}

func (s *BlobObjectStore) Put(ctx context.Context, key string, payload []byte, contentType string) (Artifact, error) {
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return Artifact{}, err
	}
	return artifactFromInfo(info), nil
}

func (s *BlobObjectStore) Get(ctx context.Context, key string) (Artifact, []byte, error) {
	info, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return Artifact{}, nil, err
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return Artifact{}, nil, err
	}
	return artifactFromInfo(info), payload, nil
}

func (s *BlobObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.blobs.Delete(ctx, key)
}

func (s *BlobObjectStore) List(ctx context.Context, prefix string) ([]Artifact, error) {
	infos, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Artifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, artifactFromInfo(info))
	}
	return out, nil
}

// MemoryObjectStore is an in-memory ObjectStore for tests.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject

	// FailPut, when set, makes every Put return this error.
	FailPut error
}

type storedObject struct {
	artifact Artifact
	payload  []byte
}

// NewMemoryObjectStore constructs an empty in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]storedObject)}
}

func (s *MemoryObjectStore) Put(_ context.Context, key string, payload []byte, contentType string) (Artifact, error) {
	if s.FailPut != nil {
		return Artifact{}, s.FailPut
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return Artifact{}, fmt.Errorf("object %s already exists", key)
	}
	artifact := Artifact{
		Key:         key,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		URL:         fmt.Sprintf("https://object-store.local/%s", key),
		CreatedAt:   time.Now().UTC(),
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.objects[key] = storedObject{artifact: artifact, payload: cp}
	return artifact, nil
}

func (s *MemoryObjectStore) Get(_ context.Context, key string) (Artifact, []byte, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return Artifact{}, nil, fmt.Errorf("object %s not found", key)
	}
	payload := make([]byte, len(obj.payload))
	copy(payload, obj.payload)
	return obj.artifact, payload, nil
}

func (s *MemoryObjectStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

func (s *MemoryObjectStore) List(_ context.Context, prefix string) ([]Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(s.objects))
	for key, obj := range s.objects {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			out = append(out, obj.artifact)
		}
	}
	return out, nil
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
