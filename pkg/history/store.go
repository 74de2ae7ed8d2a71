package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-homeval/pkg/blobstore"
	"github.com/goliatone/go-homeval/pkg/model"
)

const (
	// DefaultKey is the blob key the snapshot lives under.
	DefaultKey = "predictions"
	// DefaultLinger is how long a removed record stays in Departing.
	DefaultLinger = 800 * time.Millisecond
)

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the blob key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger attaches a logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLinger sets how long removed records stay in Departing. Zero or less
// finalises removals immediately.
func WithLinger(d time.Duration) Option {
	return func(s *Store) {
		s.linger = d
	}
}

type departure struct {
	record model.PredictionRecord
	timer  *time.Timer
}

// Store owns the in-memory collection and its persisted snapshot. It is safe
// for concurrent use.
type Store struct {
	mu        sync.Mutex
	blob      blobstore.Store
	key       string
	logger    *zap.Logger
	linger    time.Duration
	records   []model.PredictionRecord
	pending   string
	departing []*departure
}

// Open reads the snapshot once. A missing snapshot yields an empty history;
// an unreadable or corrupt one is logged and also yields an empty history.
// Individual records that fail to decode are skipped, and duplicates are
// dropped keeping the first occurrence.
func Open(ctx context.Context, blob blobstore.Store, opts ...Option) (*Store, error) {
	if blob == nil {
		return nil, errors.New("history: blob store is required")
	}
	s := &Store{
		blob:   blob,
		key:    DefaultKey,
		logger: zap.L(),
		linger: DefaultLinger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.records = s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) []model.PredictionRecord {
	data, err := s.blob.Get(ctx, s.key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("history snapshot unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	return decodeSnapshot(data, s.logger.With(zap.String("key", s.key)))
}

func decodeSnapshot(data []byte, logger *zap.Logger) []model.PredictionRecord {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("history snapshot corrupt, starting empty", zap.Error(err))
		return nil
	}

	out := make([]model.PredictionRecord, 0, len(raw))
	for idx, item := range raw {
		var rec model.PredictionRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			logger.Warn("skipping unreadable history record", zap.Int("index", idx), zap.Error(err))
			continue
		}
		if indexOfIdentity(out, rec) >= 0 {
			logger.Debug("dropping duplicate history record", zap.String("id", rec.ID))
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []model.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PredictionRecord(nil), s.records...)
}

// Len reports the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get looks a record up by ID.
func (s *Store) Get(id string) (model.PredictionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.records[idx], true
	}
	return model.PredictionRecord{}, false
}

// Append prepends rec and persists the collection. A record with the same
// identity already present makes this a no-op and added is false. When
// persisting fails the in-memory collection is left unchanged.
func (s *Store) Append(ctx context.Context, rec model.PredictionRecord) (added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOfIdentity(s.records, rec) >= 0 {
		return false, nil
	}
	rec.PendingRemoval = false

	next := make([]model.PredictionRecord, 0, len(s.records)+1)
	next = append(next, rec)
	next = append(next, s.records...)
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	s.records = next
	return true, nil
}

// MarkForDelete starts a two-phase delete. A previous mark is replaced.
func (s *Store) MarkForDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}
	s.pending = id
	return nil
}

// Pending returns the ID marked for deletion, if any.
func (s *Store) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.pending != ""
}

// CancelDelete drops the pending mark without touching any record.
func (s *Store) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = ""
}

// ConfirmDelete removes the marked record and persists the result before
// returning. The removed record is handed to Departing.
func (s *Store) ConfirmDelete(ctx context.Context) (model.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == "" {
		return model.PredictionRecord{}, ErrNoPendingDelete
	}
	id := s.pending
	idx := s.indexOf(id)
	if idx < 0 {
		s.pending = ""
		return model.PredictionRecord{}, fmt.Errorf("%w: %q", ErrRecordNotFound, id)
	}

	removed := s.records[idx]
	next := make([]model.PredictionRecord, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return model.PredictionRecord{}, err
	}
	s.records = next
	s.pending = ""

	removed.PendingRemoval = true
	s.depart(removed)
	return removed, nil
}

// Departing lists removed records still awaiting finalisation, oldest
// removal first. Each has PendingRemoval set.
func (s *Store) Departing() []model.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PredictionRecord, 0, len(s.departing))
	for _, d := range s.departing {
		out = append(out, d.record)
	}
	return out
}

// Finalize drops a departing record ahead of its timer.
func (s *Store) Finalize(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalize(id)
}

// Close stops pending finalisation timers. The blob store is not closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.departing {
		if d.timer != nil {
			d.timer.Stop()
		}
	}
	s.departing = nil
	return nil
}

func (s *Store) depart(rec model.PredictionRecord) {
	if s.linger <= 0 {
		return
	}
	d := &departure{record: rec}
	id := rec.ID
	d.timer = time.AfterFunc(s.linger, func() {
		s.Finalize(id)
	})
	s.departing = append(s.departing, d)
}

func (s *Store) finalize(id string) {
	for idx, d := range s.departing {
		if d.record.ID != id {
			continue
		}
		if d.timer != nil {
			d.timer.Stop()
		}
		s.departing = append(s.departing[:idx], s.departing[idx+1:]...)
		return
	}
}

func (s *Store) persist(ctx context.Context, records []model.PredictionRecord) error {
	if records == nil {
		records = []model.PredictionRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("history: encode snapshot: %w", err)
	}
	if err := s.blob.Put(ctx, s.key, data); err != nil {
		s.logger.Error("history snapshot not persisted", zap.String("key", s.key), zap.Error(err))
		return fmt.Errorf("history: persist snapshot: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for idx, rec := range s.records {
		if rec.ID == id {
			return idx
		}
	}
	return -1
}

func indexOfIdentity(records []model.PredictionRecord, rec model.PredictionRecord) int {
	for idx, existing := range records {
		if existing.SameIdentity(rec) {
			return idx
		}
	}
	return -1
}
