package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/VP171097/vitality/models"
)

// Snapshot is one full document as delivered to subscribers. Versions are
// monotonic per (user, kind) so stale pushes can be recognized and dropped.
type Snapshot struct {
	Kind    models.DocKind  `json:"kind"`
	Data    json.RawMessage `json:"data"`
	Version int64           `json:"version"`
}

// DocumentGateway abstracts the per-user document store: load the current
// snapshot, subscribe to subsequent full-document pushes, and persist
// top-level merge patches. Writes are fire-and-forget from the caller's
// point of view; local optimistic state is considered committed.
type DocumentGateway interface {
	// LoadAndSubscribe materializes a default document when none exists,
	// then returns the current snapshot, a push stream and an unsubscribe
	// function.
	LoadAndSubscribe(ctx context.Context, userID uint, kind models.DocKind) (Snapshot, <-chan Snapshot, func(), error)

	// WriteMergePatch merges the patch into the stored document at the top
	// level and pushes the new snapshot to every subscriber. It returns the
	// version assigned to the write.
	WriteMergePatch(ctx context.Context, userID uint, kind models.DocKind, patch map[string]any) (int64, error)
}

// ErrUnknownDocKind is returned for kinds outside the four known documents.
var ErrUnknownDocKind = errors.New("unknown document kind")

// defaultDocument builds the payload materialized for a missing document.
func defaultDocument(kind models.DocKind, displayName string, now time.Time) ([]byte, error) {
	switch kind {
	case models.DocSettings:
		return json.Marshal(models.DefaultSettings(displayName, now))
	case models.DocLogs:
		return json.Marshal(models.LogsDoc{Data: []models.DailyLog{}})
	case models.DocFood:
		return json.Marshal(models.FoodDoc{Data: models.FoodBuckets{}})
	case models.DocActivity:
		return json.Marshal(models.ActivityDoc{Data: models.ActivityBuckets{}})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocKind, kind)
	}
}

// mergeTopLevel applies a top-level JSON merge: every key in patch replaces
// the stored key wholesale, keys absent from patch stay untouched.
func mergeTopLevel(stored []byte, patch map[string]any) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(stored) > 0 {
		if err := json.Unmarshal(stored, &doc); err != nil {
			return nil, fmt.Errorf("decode stored document: %w", err)
		}
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode patch field %q: %w", k, err)
		}
		doc[k] = raw
	}
	return json.Marshal(doc)
}

type subKey struct {
	userID uint
	kind   models.DocKind
}

// subscribers fans snapshots out to per-(user,kind) channels. Slow
// subscribers are skipped rather than blocking a write; they catch up on
// the next push since every push carries the full document.
type subscribers struct {
	mu   sync.RWMutex
	subs map[subKey]map[chan Snapshot]struct{}
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[subKey]map[chan Snapshot]struct{})}
}

func (s *subscribers) add(key subKey) (chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[chan Snapshot]struct{})
	}
	s.subs[key][ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			if set := s.subs[key]; set != nil {
				delete(set, ch)
				if len(set) == 0 {
					delete(s.subs, key)
				}
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *subscribers) push(key subKey, snap Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[key] {
		select {
		case ch <- snap:
		default:
		}
	}
}

// GormDocumentStore keeps the four documents per user as JSONB rows and
// notifies in-process subscribers plus the websocket hub on every write.
type GormDocumentStore struct {
	db   *gorm.DB
	hub  *RealtimeHub
	subs *subscribers
	now  func() time.Time
}

func NewGormDocumentStore(db *gorm.DB, hub *RealtimeHub) *GormDocumentStore {
	return &GormDocumentStore{db: db, hub: hub, subs: newSubscribers(), now: time.Now}
}

func (s *GormDocumentStore) LoadAndSubscribe(ctx context.Context, userID uint, kind models.DocKind) (Snapshot, <-chan Snapshot, func(), error) {
	row, err := s.loadOrCreate(ctx, userID, kind)
	if err != nil {
		return Snapshot{}, nil, nil, err
	}

	snap := Snapshot{Kind: kind, Data: row.Data, Version: row.Version}
	ch, cancel := s.subs.add(subKey{userID, kind})
	return snap, ch, cancel, nil
}

func (s *GormDocumentStore) WriteMergePatch(ctx context.Context, userID uint, kind models.DocKind, patch map[string]any) (int64, error) {
	row, err := s.loadOrCreate(ctx, userID, kind)
	if err != nil {
		return 0, err
	}

	merged, err := mergeTopLevel(row.Data, patch)
	if err != nil {
		return 0, err
	}

	row.Data = merged
	row.Version++
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return 0, fmt.Errorf("persist document %s/%d: %w", kind, userID, err)
	}

	snap := Snapshot{Kind: kind, Data: merged, Version: row.Version}
	s.broadcast(userID, snap)
	return row.Version, nil
}

func (s *GormDocumentStore) loadOrCreate(ctx context.Context, userID uint, kind models.DocKind) (*models.UserDocument, error) {
	var row models.UserDocument
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load document %s/%d: %w", kind, userID, err)
	}

	data, err := defaultDocument(kind, s.displayName(ctx, userID), s.now())
	if err != nil {
		return nil, err
	}
	row = models.UserDocument{UserID: userID, Kind: string(kind), Data: data, Version: 1}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("materialize default %s/%d: %w", kind, userID, err)
	}
	return &row, nil
}

func (s *GormDocumentStore) displayName(ctx context.Context, userID uint) string {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		logrus.WithError(err).WithField("userID", userID).Debug("no display name for default settings")
		return ""
	}
	return user.DisplayName
}

func (s *GormDocumentStore) broadcast(userID uint, snap Snapshot) {
	s.subs.push(subKey{userID, snap.Kind}, snap)
	if s.hub != nil {
		s.hub.BroadcastDocument(userID, snap)
	}
}
