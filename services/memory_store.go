package services

import (
	"context"
	"sync"
	"time"

	"github.com/VP171097/vitality/models"
)

// MemoryDocumentStore is a DocumentGateway with the same contract as the
// Postgres-backed store, held entirely in memory. It backs local
// development (DOC_STORE=memory) and the tests.
type MemoryDocumentStore struct {
	mu   sync.Mutex
	docs map[subKey]*memoryDoc
	subs *subscribers
	hub  *RealtimeHub

	// Names optionally seeds display names for default settings documents.
	Names map[uint]string

	now func() time.Time
}

type memoryDoc struct {
	data    []byte
	version int64
}

func NewMemoryDocumentStore(hub *RealtimeHub) *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs: make(map[subKey]*memoryDoc),
		subs: newSubscribers(),
		hub:  hub,
		now:  time.Now,
	}
}

func (s *MemoryDocumentStore) LoadAndSubscribe(_ context.Context, userID uint, kind models.DocKind) (Snapshot, <-chan Snapshot, func(), error) {
	s.mu.Lock()
	doc, err := s.loadOrCreateLocked(userID, kind)
	s.mu.Unlock()
	if err != nil {
		return Snapshot{}, nil, nil, err
	}

	snap := Snapshot{Kind: kind, Data: doc.data, Version: doc.version}
	ch, cancel := s.subs.add(subKey{userID, kind})
	return snap, ch, cancel, nil
}

func (s *MemoryDocumentStore) WriteMergePatch(_ context.Context, userID uint, kind models.DocKind, patch map[string]any) (int64, error) {
	s.mu.Lock()
	doc, err := s.loadOrCreateLocked(userID, kind)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	merged, err := mergeTopLevel(doc.data, patch)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	doc.data = merged
	doc.version++
	snap := Snapshot{Kind: kind, Data: merged, Version: doc.version}
	s.mu.Unlock()

	s.subs.push(subKey{userID, kind}, snap)
	if s.hub != nil {
		s.hub.BroadcastDocument(userID, snap)
	}
	return snap.Version, nil
}

func (s *MemoryDocumentStore) loadOrCreateLocked(userID uint, kind models.DocKind) (*memoryDoc, error) {
	key := subKey{userID, kind}
	if doc, ok := s.docs[key]; ok {
		return doc, nil
	}
	data, err := defaultDocument(kind, s.Names[userID], s.now())
	if err != nil {
		return nil, err
	}
	doc := &memoryDoc{data: data, version: 1}
	s.docs[key] = doc
	return doc, nil
}
