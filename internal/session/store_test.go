package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpulse/internal/dataprocessing"
	"pushpulse/pkg/contracts/domain"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(nil)

	created := store.Create()
	require.NotEmpty(t, created.ID)
	assert.NotNil(t, created.Tables)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(nil)
	_, err := store.Get("nope")
	assert.Error(t, err)
}

func TestStoreReplaceTables(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	first := map[string]domain.NamedTable{
		"revenue.csv": {Name: "revenue.csv"},
	}
	warnings := []domain.UploadWarning{{File: "bad.csv", Message: "unreadable"}}

	updated, err := store.ReplaceTables(sess.ID, first, warnings)
	require.NoError(t, err)
	assert.Len(t, updated.Tables, 1)
	assert.Len(t, updated.Warnings, 1)

	// A second upload replaces, never merges
	second := map[string]domain.NamedTable{
		"ctrrate.csv": {Name: "ctrrate.csv"},
	}
	updated, err = store.ReplaceTables(sess.ID, second, nil)
	require.NoError(t, err)
	require.Len(t, updated.Tables, 1)
	_, hasOld := updated.Tables["revenue.csv"]
	assert.False(t, hasOld)
	assert.Empty(t, updated.Warnings, "stale warnings must not survive a re-upload")
}

func TestStoreSetDateRange(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	r := &dataprocessing.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	updated, err := store.SetDateRange(sess.ID, r)
	require.NoError(t, err)
	require.NotNil(t, updated.DateRange)

	updated, err = store.SetDateRange(sess.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.DateRange)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	_, err := store.ReplaceTables(sess.ID, map[string]domain.NamedTable{
		"revenue.csv": {Name: "revenue.csv"},
	}, []domain.UploadWarning{{File: "x.csv", Message: "bad"}})
	require.NoError(t, err)

	cleared, err := store.Clear(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Tables)
	assert.Empty(t, cleared.Warnings)
	assert.Nil(t, cleared.DateRange)

	// Session itself survives a clear
	_, err = store.Get(sess.ID)
	assert.NoError(t, err)
}

func TestStoreDelete(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	require.NoError(t, store.Delete(sess.ID))
	assert.Equal(t, 0, store.Len())

	_, err := store.Get(sess.ID)
	assert.Error(t, err)
	assert.Error(t, store.Delete(sess.ID))
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	_, err := store.ReplaceTables(sess.ID, map[string]domain.NamedTable{
		"revenue.csv": {Name: "revenue.csv"},
	}, nil)
	require.NoError(t, err)

	snap, err := store.Get(sess.ID)
	require.NoError(t, err)

	// Mutating the snapshot's table map must not leak into the store
	delete(snap.Tables, "revenue.csv")

	fresh, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Len(t, fresh.Tables, 1)
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore(nil)
	sess := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.ReplaceTables(sess.ID, map[string]domain.NamedTable{
				"revenue.csv": {Name: "revenue.csv"},
			}, nil)
		}()
		go func() {
			defer wg.Done()
			store.Get(sess.ID)
		}()
	}
	wg.Wait()

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tables, 1)
}
