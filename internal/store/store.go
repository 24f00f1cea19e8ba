// Package store holds the data model and the persistence adapters. The unit
// of persistence is the whole Document: every backend reads and writes it in
// one piece, with no partial updates and no locking across requests.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the persistence capability injected into the service: read the
// whole document, replace the whole document. Backends are selected at
// construction time, never by branching on environment inside data access.
type Store interface {
	Read(ctx context.Context) (Document, error)
	Write(ctx context.Context, doc Document) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore keeps the document in process memory, serialized like the
// durable backends so callers never share mutable state with the store. It
// is the serverless fallback and the default for tests; everything is lost
// on restart.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Read(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return NewDocument(), nil
	}
	var doc Document
	if err := json.Unmarshal(s.data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *MemoryStore) Write(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
