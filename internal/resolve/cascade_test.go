package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/webcache"
)

type mockProvider struct {
	mock.Mock
	name string
}

func newMockProvider(t *testing.T, name string) *mockProvider {
	m := &mockProvider{name: name}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Lookup(ctx context.Context, name, postcode string) (string, error) {
	args := m.Called(ctx, name, postcode)
	return args.String(0), args.Error(1)
}

func newStore(t *testing.T) *webcache.Store {
	t.Helper()
	return webcache.New(context.Background(), nil)
}

func strPtr(s string) *string { return &s }

func TestResolve_CacheHitShortCircuits(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	store.Set(ctx, "The Red Lion", "CM1 1AA", strPtr("https://redlion.example"))

	live := newMockProvider(t, "overpass")
	offline := newMockProvider(t, "offline")
	c := NewCascade(store, live, WithOffline(offline))

	res, err := c.Resolve(ctx, "The Red Lion", "CM1 1AA")
	require.NoError(t, err)
	assert.Equal(t, Result{Website: "https://redlion.example", Source: SourceCache, Found: true}, res)
	live.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_CachedNullShortCircuits(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	store.Set(ctx, "The Swan", "CM2 2BB", nil)

	live := newMockProvider(t, "overpass")
	search := newMockProvider(t, "search")
	c := NewCascade(store, live, WithSearch(search))

	res, err := c.Resolve(ctx, "The Swan", "CM2 2BB")
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.False(t, res.Found)
}

func TestResolve_LiveHitIsCached(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, "The Crown", "CO1 1AA").Return("https://crown.example", nil).Once()

	c := NewCascade(store, live)
	res, err := c.Resolve(ctx, "The Crown", "CO1 1AA")
	require.NoError(t, err)
	assert.Equal(t, SourceOverpass, res.Source)

	res, err = c.Resolve(ctx, "The Crown", "CO1 1AA")
	require.NoError(t, err)
	assert.Equal(t, Result{Website: "https://crown.example", Source: SourceCache, Found: true}, res)
}

func TestResolve_LiveNotFoundCachesNullAndSkipsOffline(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, "The Bell", "SS1 1AA").Return("", ErrNotFound)
	offline := newMockProvider(t, "offline")
	search := newMockProvider(t, "search")
	search.On("Lookup", mock.Anything, "The Bell", "SS1 1AA").Return("https://bell.example", nil)

	c := NewCascade(store, live, WithOffline(offline), WithSearch(search))
	res, err := c.Resolve(ctx, "The Bell", "SS1 1AA")
	require.NoError(t, err)
	assert.Equal(t, Result{Website: "https://bell.example", Source: SourceSearch, Found: true}, res)

	hit, ok := store.Get("The Bell", "SS1 1AA")
	require.True(t, ok)
	assert.True(t, hit.Absent)
}

func TestResolve_LiveUnavailableUsesOffline(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, "The Anchor", "CM9 4LQ").Return("", ErrUnavailable)
	offline := newMockProvider(t, "offline")
	offline.On("Lookup", mock.Anything, "The Anchor", "CM9 4LQ").Return("https://anchor.example", nil)

	c := NewCascade(store, live, WithOffline(offline))
	res, err := c.Resolve(ctx, "The Anchor", "CM9 4LQ")
	require.NoError(t, err)
	assert.Equal(t, Result{Website: "https://anchor.example", Source: SourceOffline, Found: true}, res)

	_, ok := store.Get("The Anchor", "CM9 4LQ")
	assert.False(t, ok, "offline results are not cached")
}

func TestResolve_NothingFound(t *testing.T) {
	ctx := context.Background()
	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return("", ErrUnavailable)
	offline := newMockProvider(t, "offline")
	offline.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return("", ErrNotFound)
	search := newMockProvider(t, "search")
	search.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	c := NewCascade(newStore(t), live, WithOffline(offline), WithSearch(search))
	res, err := c.Resolve(ctx, "The Plough", "RM1 1AA")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, res.Source)
}

func TestResolve_InvalidInput(t *testing.T) {
	live := newMockProvider(t, "overpass")
	c := NewCascade(newStore(t), live)

	for _, tc := range [][2]string{{"", "CM1 1AA"}, {"The Bull", ""}, {"  ", " "}} {
		_, err := c.Resolve(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestResolve_MalformedPostcode(t *testing.T) {
	store := newStore(t)
	live := newMockProvider(t, "overpass")
	search := newMockProvider(t, "search")
	c := NewCascade(store, live, WithSearch(search))

	for _, pc := range []string{"NOT-A-POSTCODE", "CM1", "12345"} {
		res, err := c.Resolve(context.Background(), "The Swan", pc)
		assert.ErrorIs(t, err, ErrInvalidInput, pc)
		assert.False(t, res.Found)

		_, ok := store.Get("The Swan", pc)
		assert.False(t, ok, "no cache entry for %q", pc)
	}
	live.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
	search.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, mock.Anything, mock.Anything).Return("", context.Canceled)
	offline := newMockProvider(t, "offline")

	c := NewCascade(nil, live, WithOffline(offline))
	_, err := c.Resolve(ctx, "The Ship", "CO2 2AA")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_NoCache(t *testing.T) {
	live := newMockProvider(t, "overpass")
	live.On("Lookup", mock.Anything, "The Ship", "CO2 2AA").Return("https://ship.example", nil)

	res, err := NewCascade(nil, live).Resolve(context.Background(), "The Ship", "CO2 2AA")
	require.NoError(t, err)
	assert.True(t, res.Found)
}
