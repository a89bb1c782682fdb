package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videowall/server/internal/domain"
	"github.com/videowall/server/internal/repository/viewconfig"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc)
}

func intPtr(n int) *int { return &n }

func TestRepo_SaveAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	cfg, err := viewconfig.FromDomain(domain.ViewConfig{
		Id:       "cfg-1",
		Name:     "morning wall",
		ViewMode: domain.Layout2x2,
		Slots:    []*int{intPtr(3), nil, intPtr(7), nil},
	})
	require.NoError(t, err)

	require.NoError(t, r.Save(ctx, cfg))

	got, err := r.Get(ctx, "cfg-1")
	require.NoError(t, err)

	dom, err := got.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, "morning wall", dom.Name)
	assert.Equal(t, domain.Layout2x2, dom.ViewMode)
	require.Len(t, dom.Slots, 4)
	assert.Equal(t, 3, *dom.Slots[0])
	assert.Nil(t, dom.Slots[1])
	assert.Equal(t, 7, *dom.Slots[2])
}

func TestRepo_GetMissing(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, viewconfig.ErrNotFound)
}

func TestRepo_ListOrder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		cfg, err := viewconfig.FromDomain(domain.ViewConfig{
			Id:       id,
			Name:     "wall " + id,
			ViewMode: domain.Layout1x2,
		})
		require.NoError(t, err)
		require.NoError(t, r.Save(ctx, cfg))
	}

	configs, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 3)
	assert.Equal(t, "b", configs[0].Id)
	assert.Equal(t, "a", configs[1].Id)
	assert.Equal(t, "c", configs[2].Id)
}

func TestRepo_Delete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	cfg, err := viewconfig.FromDomain(domain.ViewConfig{Id: "cfg-1", Name: "wall", ViewMode: domain.Layout1x1})
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, cfg))

	require.NoError(t, r.Delete(ctx, "cfg-1"))

	_, err = r.Get(ctx, "cfg-1")
	assert.ErrorIs(t, err, viewconfig.ErrNotFound)

	configs, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, configs)

	assert.ErrorIs(t, r.Delete(ctx, "cfg-1"), viewconfig.ErrNotFound)
}
