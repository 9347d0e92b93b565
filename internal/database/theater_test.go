package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartelerahq/cartelera/internal/domain"
)

func TestTheaterStoreAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTheaterRepo(zerolog.Nop(), db)

	storeTestTheater(t, db, "cinemateca")
	storeTestTheater(t, db, "cine-tonala")

	theaters, err := repo.ListBySource(ctx, domain.SourceColombiaCom)
	require.NoError(t, err)
	require.Len(t, theaters, 2)
	// Ordered by name.
	assert.Equal(t, "Theater cine-tonala", theaters[0].Name)
	assert.Equal(t, "Theater cinemateca", theaters[1].Name)
}

func TestTheaterStoreUpsertsBySlug(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTheaterRepo(zerolog.Nop(), db)

	theater := storeTestTheater(t, db, "cinemateca")

	updated := &domain.Theater{
		Name:       "Cinemateca de Bogota",
		Slug:       "cinemateca",
		City:       "Bogota",
		Source:     domain.SourceColombiaCom,
		ListingURL: theater.ListingURL,
		IsActive:   true,
	}
	require.NoError(t, repo.Store(ctx, updated))

	theaters, err := repo.ListBySource(ctx, domain.SourceColombiaCom)
	require.NoError(t, err)
	require.Len(t, theaters, 1)
	assert.Equal(t, "Cinemateca de Bogota", theaters[0].Name)
	assert.Equal(t, theater.ID, theaters[0].ID)
}

func TestListBySourceSkipsInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTheaterRepo(zerolog.Nop(), db)

	theater := storeTestTheater(t, db, "cinemateca")
	theater.IsActive = false
	require.NoError(t, repo.Store(ctx, theater))

	theaters, err := repo.ListBySource(ctx, domain.SourceColombiaCom)
	require.NoError(t, err)
	assert.Empty(t, theaters)
}
