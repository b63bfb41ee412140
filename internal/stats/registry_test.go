package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/briangreenhill/steamstats/cache"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Years())

	store, fetch := cache.NewMemoryCache(), newFakeFetcher()
	for _, y := range []int{2023, 2025, 2022, 2024} {
		r.Register(NewYearService(store, fetch, nil, YearConfig{Year: y, DefaultSteamID: defaultID}))
	}
	assert.Equal(t, []int{2025, 2024, 2023, 2022}, r.Years())

	svc, ok := r.Get(2024)
	assert.True(t, ok)
	assert.Equal(t, 2024, svc.Year())

	_, ok = r.Get(2019)
	assert.False(t, ok)

	replacement := NewYearService(store, fetch, nil, YearConfig{Year: 2024})
	r.Register(replacement)
	got, _ := r.Get(2024)
	assert.Same(t, replacement, got)
	assert.Len(t, r.Years(), 4)
}
