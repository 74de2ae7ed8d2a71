package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/goliatone/go-homeval/pkg/blobstore"
	"github.com/goliatone/go-homeval/pkg/history"
	"github.com/goliatone/go-homeval/pkg/model"
)

func record(id string, price float64) model.PredictionRecord {
	return model.PredictionRecord{
		ID:             id,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		InputFeatures:  model.FeatureVector{Bedrooms: 3, Zipcode: "98001"},
		PredictedPrice: price,
		PriceRangeLow:  price * 0.95,
		PriceRangeHigh: price * 1.05,
		Confidence:     92,
		Currency:       "USD",
	}
}

func ids(records []model.PredictionRecord) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}

func openStore(t *testing.T, blob blobstore.Store, opts ...history.Option) *history.Store {
	t.Helper()
	opts = append([]history.Option{history.WithLogger(zaptest.NewLogger(t))}, opts...)
	store, err := history.Open(context.Background(), blob, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshotIDs(t *testing.T, blob blobstore.Store) []string {
	t.Helper()
	data, err := blob.Get(context.Background(), history.DefaultKey)
	require.NoError(t, err)
	var records []model.PredictionRecord
	require.NoError(t, json.Unmarshal(data, &records))
	return ids(records)
}

func TestAppend_NewestFirstAndPersisted(t *testing.T) {
	blob := blobstore.NewMemory()
	store := openStore(t, blob)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		added, err := store.Append(ctx, record(id, 100))
		require.NoError(t, err)
		assert.True(t, added)
	}

	assert.Equal(t, []string{"c", "b", "a"}, ids(store.Records()))
	assert.Equal(t, []string{"c", "b", "a"}, snapshotIDs(t, blob))
}

func TestAppend_DuplicateIDIsNoop(t *testing.T) {
	blob := blobstore.NewMemory()
	store := openStore(t, blob)
	ctx := context.Background()

	_, err := store.Append(ctx, record("same", 100))
	require.NoError(t, err)
	added, err := store.Append(ctx, record("same", 200))
	require.NoError(t, err)

	assert.False(t, added)
	assert.Equal(t, 1, store.Len())
	rec, ok := store.Get("same")
	require.True(t, ok)
	assert.Equal(t, 100.0, rec.PredictedPrice)
	assert.Equal(t, []string{"same"}, snapshotIDs(t, blob))
}

func TestAppend_IDLessRecordsDedupOnFeatures(t *testing.T) {
	store := openStore(t, blobstore.NewMemory())
	ctx := context.Background()

	first := record("", 100)
	second := record("", 300)
	third := record("", 100)
	third.InputFeatures.Bedrooms = 4

	for _, rec := range []model.PredictionRecord{first, second, third} {
		_, err := store.Append(ctx, rec)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Len())
}

func TestOpen_DedupsAndToleratesLegacyRecords(t *testing.T) {
	blob := blobstore.NewMemory()
	snapshot := `[
		{"id": "n1", "createdAt": "2025-02-01T00:00:00Z", "inputFeatures": {"bedrooms": 3}, "predictedPrice": 500},
		{"id": 1718000000000, "timestamp": "2024-06-10T06:13:20.000Z", "prediction": 37575000, "zipcode": "400001"},
		{"id": "n1", "predictedPrice": 999},
		"not a record",
		{"id": "n2"}
	]`
	require.NoError(t, blob.Put(context.Background(), history.DefaultKey, []byte(snapshot)))

	store := openStore(t, blob)
	records := store.Records()
	require.Equal(t, []string{"n1", "1718000000000", "n2"}, ids(records))
	assert.Equal(t, 500.0, records[0].PredictedPrice)
	assert.Equal(t, 37575000.0, records[1].PredictedPrice)
	assert.Equal(t, "400001", records[1].InputFeatures.Zipcode)
	assert.Equal(t, model.LegacyCurrency, records[1].Currency)
	assert.Zero(t, records[2].PredictedPrice)
}

func TestOpen_CorruptSnapshotFallsBackToEmpty(t *testing.T) {
	blob := blobstore.NewMemory()
	require.NoError(t, blob.Put(context.Background(), history.DefaultKey, []byte(`{not json`)))

	store := openStore(t, blob)
	assert.Equal(t, 0, store.Len())

	_, err := store.Append(context.Background(), record("fresh", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, snapshotIDs(t, blob))
}

func TestOpen_ReadErrorFallsBackToEmpty(t *testing.T) {
	store := openStore(t, &failingBlob{getErr: errors.New("disk on fire")})
	assert.Equal(t, 0, store.Len())
}

func TestDelete_TwoPhase(t *testing.T) {
	blob := blobstore.NewMemory()
	store := openStore(t, blob, history.WithLinger(time.Hour))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := store.Append(ctx, record(id, 1))
		require.NoError(t, err)
	}

	require.NoError(t, store.MarkForDelete("b"))
	pending, ok := store.Pending()
	require.True(t, ok)
	assert.Equal(t, "b", pending)

	store.CancelDelete()
	_, ok = store.Pending()
	assert.False(t, ok)
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(store.Records()))

	_, err := store.ConfirmDelete(ctx)
	require.ErrorIs(t, err, history.ErrNoPendingDelete)

	require.NoError(t, store.MarkForDelete("c"))
	removed, err := store.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", removed.ID)
	assert.True(t, removed.PendingRemoval)

	assert.Equal(t, []string{"d", "b", "a"}, ids(store.Records()))
	assert.Equal(t, []string{"d", "b", "a"}, snapshotIDs(t, blob))

	departing := store.Departing()
	require.Len(t, departing, 1)
	assert.Equal(t, "c", departing[0].ID)
	assert.True(t, departing[0].PendingRemoval)

	store.Finalize("c")
	assert.Empty(t, store.Departing())
}

func TestDelete_LingerTimerFinalizes(t *testing.T) {
	store := openStore(t, blobstore.NewMemory(), history.WithLinger(10*time.Millisecond))
	ctx := context.Background()
	_, err := store.Append(ctx, record("x", 1))
	require.NoError(t, err)

	require.NoError(t, store.MarkForDelete("x"))
	_, err = store.ConfirmDelete(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(store.Departing()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestDelete_UnknownID(t *testing.T) {
	store := openStore(t, blobstore.NewMemory())
	require.ErrorIs(t, store.MarkForDelete("ghost"), history.ErrRecordNotFound)
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	blob := &failingBlob{Memory: blobstore.NewMemory()}
	store := openStore(t, blob)
	ctx := context.Background()

	_, err := store.Append(ctx, record("kept", 1))
	require.NoError(t, err)

	blob.putErr = errors.New("quota exceeded")
	_, err = store.Append(ctx, record("lost", 1))
	require.Error(t, err)
	assert.Equal(t, []string{"kept"}, ids(store.Records()))

	require.NoError(t, store.MarkForDelete("kept"))
	_, err = store.ConfirmDelete(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"kept"}, ids(store.Records()))
	assert.Empty(t, store.Departing())
}

func TestRecordsReturnsCopy(t *testing.T) {
	store := openStore(t, blobstore.NewMemory())
	_, err := store.Append(context.Background(), record("a", 1))
	require.NoError(t, err)

	records := store.Records()
	records[0].PredictedPrice = 42
	rec, _ := store.Get("a")
	assert.Equal(t, 1.0, rec.PredictedPrice)
}

type failingBlob struct {
	*blobstore.Memory
	getErr error
	putErr error
}

func (f *failingBlob) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.Memory == nil {
		return nil, blobstore.ErrNotFound
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingBlob) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Memory.Put(ctx, key, value)
}

func (f *failingBlob) Delete(ctx context.Context, key string) error {
	if f.Memory == nil {
		return nil
	}
	return f.Memory.Delete(ctx, key)
}

func (f *failingBlob) Close() error {
	return nil
}
