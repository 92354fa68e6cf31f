package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func newTestGeneration(createdAt time.Time) *Generation {
	return &Generation{
		Selection:       []string{"platter.starter"},
		Tier:            "segmented",
		IncludeOptional: true,
		Services:        []string{"svc.api", "svc.redis"},
		StartOrder:      []string{"redis", "api"},
		ComposeYAML:     "version: \"3.9\"\nservices: {}\n",
		Valid:           true,
		Warnings:        []string{"Potential port conflict on 5432 for service 'postgres'"},
		CreatedAt:       createdAt,
	}
}

// =============================================================================
// Store Tests
// =============================================================================

func TestNewSQLiteStore_RunsMigrations(t *testing.T) {
	store := setupTestStore(t)

	count, err := store.CountGenerations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateGeneration_AssignsIDAndTime(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	gen := newTestGeneration(time.Time{})
	require.NoError(t, store.CreateGeneration(ctx, gen))

	_, err := uuid.Parse(gen.ID)
	assert.NoError(t, err)
	assert.False(t, gen.CreatedAt.IsZero())
}

func TestGetGeneration_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 1, 12, 30, 0, 1500, time.UTC)
	gen := newTestGeneration(createdAt)
	require.NoError(t, store.CreateGeneration(ctx, gen))

	got, err := store.GetGeneration(ctx, gen.ID)
	require.NoError(t, err)

	assert.Equal(t, gen.ID, got.ID)
	assert.Equal(t, []string{"platter.starter"}, got.Selection)
	assert.Equal(t, "segmented", got.Tier)
	assert.True(t, got.IncludeOptional)
	assert.False(t, got.IncludeSuggested)
	assert.Equal(t, []string{"svc.api", "svc.redis"}, got.Services)
	assert.Equal(t, []string{"redis", "api"}, got.StartOrder)
	assert.Equal(t, gen.ComposeYAML, got.ComposeYAML)
	assert.True(t, got.Valid)
	assert.Equal(t, gen.Warnings, got.Warnings)
	assert.Equal(t, []string{}, got.Errors)
	assert.True(t, createdAt.Equal(got.CreatedAt))
}

func TestGetGeneration_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetGeneration(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "GetGeneration", storeErr.Op)
	assert.Equal(t, "missing", storeErr.ID)
}

func TestCreateGeneration_DuplicateID(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	gen := newTestGeneration(time.Now())
	require.NoError(t, store.CreateGeneration(ctx, gen))

	dup := newTestGeneration(time.Now())
	dup.ID = gen.ID
	err := store.CreateGeneration(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestListGenerations_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		gen := newTestGeneration(base.Add(time.Duration(i) * time.Second))
		require.NoError(t, store.CreateGeneration(ctx, gen))
		ids = append(ids, gen.ID)
	}

	all, err := store.ListGenerations(ctx, DefaultListOptions())
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID)
	assert.Equal(t, ids[0], all[4].ID)

	page, err := store.ListGenerations(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)
}

func TestListGenerations_Empty(t *testing.T) {
	store := setupTestStore(t)

	all, err := store.ListGenerations(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestDeleteGeneration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	gen := newTestGeneration(time.Now())
	require.NoError(t, store.CreateGeneration(ctx, gen))
	require.NoError(t, store.DeleteGeneration(ctx, gen.ID))

	_, err := store.GetGeneration(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteGeneration(ctx, gen.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPruneGenerations(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cutoff := base.Add(10 * time.Second)

	tests := []struct {
		name        string
		keep        int
		wantDeleted int
		wantLeft    int
	}{
		{"age only", 0, 3, 2},
		{"keep protects newest old records", 4, 1, 4},
		{"keep larger than table", 10, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			ctx := context.Background()

			// Three before the cutoff, two after
			for _, offset := range []int{1, 2, 3, 20, 30} {
				gen := newTestGeneration(base.Add(time.Duration(offset) * time.Second))
				require.NoError(t, store.CreateGeneration(ctx, gen))
			}

			deleted, err := store.PruneGenerations(ctx, cutoff, tt.keep)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, deleted)

			count, err := store.CountGenerations(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLeft, count)
		})
	}
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx Store) error {
		for i := 0; i < 2; i++ {
			if err := tx.CreateGeneration(ctx, newTestGeneration(time.Now())); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	count, err := store.CountGenerations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWithTx_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateGeneration(ctx, newTestGeneration(time.Now())); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	count, err := store.CountGenerations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// =============================================================================
// Options Tests
// =============================================================================

func TestListOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   ListOptions
		want ListOptions
	}{
		{"defaults", ListOptions{}, ListOptions{Limit: 100}},
		{"capped", ListOptions{Limit: 5000, Offset: 3}, ListOptions{Limit: 1000, Offset: 3}},
		{"negative offset", ListOptions{Limit: 10, Offset: -1}, ListOptions{Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestStoreError_Message(t *testing.T) {
	err := NewStoreError("GetGeneration", "abc", "generation not found", ErrNotFound)
	assert.Equal(t, "GetGeneration generation abc: generation not found", err.Error())
	assert.Equal(t, "Close: failed", NewStoreError("Close", "", "failed", nil).Error())

	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.False(t, IsNotFound(NewStoreError("CreateGeneration", "abc", "taken", ErrDuplicateID)))
}
