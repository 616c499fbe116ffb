package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/magiconair/properties/assert"
	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/skybound/internal/models"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func cachedOffer() models.Offer {
	seats := 4
	return models.Offer{
		ID:       "SAB-7",
		Provider: models.ProviderSabre,
		Segments: []models.FlightSegment{{
			AirlineCode:      "EK",
			AirlineName:      "Emirates",
			FlightNumber:     "EK653",
			DepartureAirport: "MLE",
			ArrivalAirport:   "TPE",
			DepartureTime:    time.Date(2026, 11, 2, 8, 30, 0, 0, time.FixedZone("", 5*3600)),
			ArrivalTime:      time.Date(2026, 11, 2, 17, 0, 0, 0, time.FixedZone("", 8*3600)),
		}},
		BasePrice:      21000,
		Currency:       "TWD",
		CabinClass:     models.CabinEconomy,
		AvailableSeats: &seats,
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, c := newRedisCache(t, 5*time.Minute)

	_, ok := c.Get(ctx, baseParams())
	assert.Equal(t, ok, false)

	want := cachedOffer()
	err := c.Set(ctx, baseParams(), Entry{
		Offers:             []models.Offer{want},
		ProvidersQueried:   2,
		ProvidersSucceeded: 2,
		DroppedOffers:      1,
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, mr.TTL(generateKey(baseParams())), 5*time.Minute)

	entry, ok := c.Get(ctx, baseParams())
	assert.Equal(t, ok, true)
	assert.Equal(t, entry.ProvidersQueried, 2)
	assert.Equal(t, entry.ProvidersSucceeded, 2)
	assert.Equal(t, entry.DroppedOffers, 1)
	assert.Equal(t, len(entry.Offers), 1)

	got := entry.Offers[0]
	assert.Equal(t, got.ID, want.ID)
	assert.Equal(t, *got.AvailableSeats, 4)
	assert.Equal(t, got.GroupKey(), want.GroupKey())
	assert.Equal(t, got.Segments[0].DepartureTime.Equal(want.Segments[0].DepartureTime), true)
	assert.Equal(t, got.Segments[0].ArrivalTime.Equal(want.Segments[0].ArrivalTime), true)

	other := baseParams()
	other.DepartureDate = "2026-11-03"
	_, ok = c.Get(ctx, other)
	assert.Equal(t, ok, false)
}

func TestRedisCacheExpires(t *testing.T) {
	ctx := context.Background()
	mr, c := newRedisCache(t, time.Minute)

	assert.Equal(t, c.Set(ctx, baseParams(), Entry{Offers: []models.Offer{cachedOffer()}}), nil)
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, baseParams())
	assert.Equal(t, ok, false)
}

func TestRedisCacheUnreadableEntryIsMiss(t *testing.T) {
	mr, c := newRedisCache(t, time.Minute)
	assert.Equal(t, mr.Set(generateKey(baseParams()), `[{"id":"AMA-1"}]`), nil)

	_, ok := c.Get(context.Background(), baseParams())
	assert.Equal(t, ok, false)
}

func TestRedisCacheUnavailableIsMiss(t *testing.T) {
	mr, c := newRedisCache(t, time.Minute)
	mr.Close()

	_, ok := c.Get(context.Background(), baseParams())
	assert.Equal(t, ok, false)
	assert.Equal(t, c.Set(context.Background(), baseParams(), Entry{}) != nil, true)
}
