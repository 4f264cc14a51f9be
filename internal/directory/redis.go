package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/accessride/internal/apperrors"
	"github.com/example/accessride/internal/models"
)

// RedisDirectory keeps driver positions in a Redis GEO key, full documents
// in per-driver hashes and the availability roster in a sorted set keyed by
// first-seen time, so enumeration order is stable across queries.
type RedisDirectory struct {
	client *redis.Client
	geoKey string
}

func NewRedisDirectory(addr, password, geoKey string) *RedisDirectory {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisDirectory{client: c, geoKey: geoKey}
}

// NewRedisDirectoryWithClient is used by tests and by callers that manage
// the client lifecycle themselves.
func NewRedisDirectoryWithClient(c *redis.Client, geoKey string) *RedisDirectory {
	return &RedisDirectory{client: c, geoKey: geoKey}
}

func metaKey(id string) string { return "driver:meta:" + id }

func (r *RedisDirectory) rosterKey() string { return r.geoKey + ":available" }

func (r *RedisDirectory) Upsert(ctx context.Context, d models.Driver) error {
	d.Updated = time.Now()
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal driver %s: %w", d.ID, err)
	}
	if _, err := r.client.GeoAdd(ctx, r.geoKey, &redis.GeoLocation{
		Longitude: d.Loc.Geopoint.Lon,
		Latitude:  d.Loc.Geopoint.Lat,
		Name:      d.ID,
	}).Result(); err != nil {
		return fmt.Errorf("geoadd driver %s: %w", d.ID, err)
	}
	if err := r.client.HSet(ctx, metaKey(d.ID), map[string]interface{}{
		"doc":     string(doc),
		"updated": d.Updated.Format(time.RFC3339),
	}).Err(); err != nil {
		return fmt.Errorf("hset driver %s: %w", d.ID, err)
	}
	return r.setRoster(ctx, d.ID, d.Available)
}

func (r *RedisDirectory) setRoster(ctx context.Context, id string, available bool) error {
	if available {
		// NX keeps the original score, preserving enumeration order for
		// drivers that flap availability.
		return r.client.ZAddNX(ctx, r.rosterKey(), redis.Z{
			Score:  float64(time.Now().UnixNano()),
			Member: id,
		}).Err()
	}
	return r.client.ZRem(ctx, r.rosterKey(), id).Err()
}

func (r *RedisDirectory) Get(ctx context.Context, id string) (*models.Driver, error) {
	m, err := r.client.HGetAll(ctx, metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall driver %s: %w", id, err)
	}
	doc, ok := m["doc"]
	if !ok {
		return nil, apperrors.E(apperrors.NotFound, "driver not found")
	}
	var d models.Driver
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return nil, fmt.Errorf("unmarshal driver %s: %w", id, err)
	}
	return &d, nil
}

func (r *RedisDirectory) SetAvailability(ctx context.Context, id string, available bool) error {
	d, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	d.Available = available
	return r.Upsert(ctx, *d)
}

func (r *RedisDirectory) Available(ctx context.Context) ([]models.Driver, error) {
	ids, err := r.client.ZRange(ctx, r.rosterKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("roster read: %w", err)
	}
	out := make([]models.Driver, 0, len(ids))
	for _, id := range ids {
		d, err := r.Get(ctx, id)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.NotFound {
				continue // roster entry outlived its hash
			}
			return nil, err
		}
		if d.Available {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *RedisDirectory) Close() error { return r.client.Close() }
