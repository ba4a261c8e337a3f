package anonymize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veil/internal/classification"
	"veil/internal/sealing"
	"veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

func sampleRecord(createdAt time.Time, categories ...string) *Record {
	env := sealing.Envelope{
		IV:         []byte("0123456789ab"),
		Ciphertext: []byte("ciphertext"),
		AuthTag:    []byte("0123456789abcdef"),
		Algorithm:  "aes-256-gcm",
		KeyID:      "k1",
	}
	return &Record{
		ID:          domain.NewRecordID(),
		CompanyID:   "acme",
		AnonymousID: "anon-1",
		Envelope:    env,
		Classification: classification.DataClassification{
			Level:           classification.LevelConfidential,
			Categories:      categories,
			RetentionPeriod: 30 * 24 * time.Hour,
		},
		Checksum:  sealing.Checksum(env),
		Version:   1,
		CreatedAt: createdAt,
	}
}

func TestInMemoryStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := sampleRecord(time.Now(), classification.HealthData)

	require.NoError(t, store.Save(ctx, rec))
	assert.ErrorIs(t, store.Save(ctx, rec), sentinel.ErrConflict)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got.Envelope.Ciphertext[0] = 'X'
	again, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, byte('c'), again.Envelope.Ciphertext[0], "reads are copies")

	require.NoError(t, store.Delete(ctx, rec.ID))
	assert.ErrorIs(t, store.Delete(ctx, rec.ID), sentinel.ErrNotFound)
	_, err = store.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_SingleSuccessor(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	first := sampleRecord(time.Now())
	require.NoError(t, store.Save(ctx, first))

	second := sampleRecord(time.Now())
	second.Version, second.SupersedesID = 2, first.ID
	require.NoError(t, store.Save(ctx, second))

	third := sampleRecord(time.Now())
	third.Version, third.SupersedesID = 2, first.ID
	assert.ErrorIs(t, store.Save(ctx, third), sentinel.ErrSuperseded)

	require.NoError(t, store.Delete(ctx, second.ID))
	assert.NoError(t, store.Save(ctx, third), "deleting the successor frees the slot")
}

func TestInMemoryStore_ListCreatedBefore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := sampleRecord(base, classification.PersonalIdentifiers, classification.HealthData)
	older := sampleRecord(base.Add(-time.Hour))
	fresh := sampleRecord(base.Add(48 * time.Hour))
	for _, r := range []*Record{old, older, fresh} {
		require.NoError(t, store.Save(ctx, r))
	}

	metas, err := store.ListCreatedBefore(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, older.ID, metas[0].ID)
	assert.Equal(t, old.ID, metas[1].ID)
	assert.Equal(t, []string{classification.HealthData, classification.PersonalIdentifiers}, metas[1].Categories)
	assert.Equal(t, 30*24*time.Hour, metas[1].RetentionPeriod)
}
