package store

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps files in a process-local map. Entries live until the
// process exits; there is no eviction.
type MemoryStore struct {
	mu     sync.RWMutex
	files  map[string]*StoredFile
	nextID IDGenerator
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files:  make(map[string]*StoredFile),
		nextID: GenerateID,
		now:    time.Now,
	}
}

// Put generates an identifier, retrying on the (unlikely) event of a
// collision, and inserts the file.
func (s *MemoryStore) Put(_ context.Context, f NewFile) (string, error) {
	for attempt := 1; attempt <= MaxIDAttempts; attempt++ {
		id, err := s.nextID()
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		if _, taken := s.files[id]; taken {
			s.mu.Unlock()
			slog.Warn("file id collision, retrying", "attempt", attempt)
			continue
		}
		s.files[id] = &StoredFile{
			ID:        id,
			Name:      f.Name,
			MimeType:  f.MimeType,
			SizeBytes: f.SizeBytes,
			Content:   f.Content,
			CreatedAt: s.now().UTC(),
			Author:    f.Author,
		}
		s.mu.Unlock()
		return id, nil
	}
	return "", ErrIDExhausted
}

// Get returns a copy of the stored file so callers cannot mutate the entry.
func (s *MemoryStore) Get(_ context.Context, id string) (*StoredFile, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	f, ok := s.files[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	out := *f
	return &out, nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	if !ValidID(id) {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[id]
	return ok, nil
}

// Len returns the number of stored files.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *MemoryStore) Count(context.Context) (int64, error) {
	return int64(s.Len()), nil
}
