package infra_redis_canvas

import (
	"encoding/json"
	"time"

	"github.com/go-redis/redis"
	"github.com/nbelyakov/doodleroom/internal/model"
)

const (
	keyPrefix = "canvas:"
	ttl       = 24 * time.Hour
)

// Cache keeps the latest canvas payload per room so reconnecting clients
// can repaint without replaying the stroke stream.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Set(code string, state model.CanvasState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(keyPrefix+code, raw, ttl).Err()
}

func (c *Cache) Get(code string) (model.CanvasState, bool, error) {
	raw, err := c.client.Get(keyPrefix + code).Bytes()
	if err == redis.Nil {
		return model.CanvasState{}, false, nil
	}
	if err != nil {
		return model.CanvasState{}, false, err
	}

	var state model.CanvasState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.CanvasState{}, false, err
	}
	return state, true, nil
}

func (c *Cache) Delete(code string) error {
	return c.client.Del(keyPrefix + code).Err()
}
