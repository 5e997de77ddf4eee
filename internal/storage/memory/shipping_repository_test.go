package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greenlogist/internal/domain"
	"github.com/vladislavdragonenkov/greenlogist/internal/storage/memory"
)

func newShippingRequest(t *testing.T, id string, createdAt time.Time) domain.ShippingRequest {
	t.Helper()
	origin, err := domain.NewLocation("1 Farm Road", "Fresno", "US")
	require.NoError(t, err)
	destination, err := domain.NewLocation("5 Market St", "San Francisco", "US")
	require.NoError(t, err)
	req, err := domain.NewShippingRequest(id, "producer-1", "product-1", kg(t, "20"), origin, destination, createdAt.Add(48*time.Hour), "keep cool", createdAt)
	require.NoError(t, err)
	return req
}

func TestShippingRepository_CreateGetList(t *testing.T) {
	repo := memory.NewShippingRepository()
	base := time.Now().UTC()

	require.NoError(t, repo.Create(newShippingRequest(t, "s1", base)))
	require.NoError(t, repo.Create(newShippingRequest(t, "s2", base.Add(time.Minute))))
	require.ErrorIs(t, repo.Create(newShippingRequest(t, "s1", base)), domain.ErrVersionConflict)

	got, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ShippingStatusPending, got.Status)

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, domain.ErrShippingRequestNotFound)

	list, err := repo.ListByProducer("producer-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
}

func TestShippingRepository_SaveChecksVersion(t *testing.T) {
	repo := memory.NewShippingRepository()
	req := newShippingRequest(t, "s1", time.Now().UTC())
	require.NoError(t, repo.Create(req))

	require.NoError(t, req.UpdateStatus(domain.ShippingStatusScheduled, time.Now().UTC()))
	require.NoError(t, repo.Save(req))
	require.ErrorIs(t, repo.Save(req), domain.ErrVersionConflict)

	stored, err := repo.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ShippingStatusScheduled, stored.Status)
}
