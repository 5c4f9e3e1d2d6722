package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MichaelRouhana/fyp-bet-platform/internal/fixture"
)

// Redis é o subconjunto de go-redis que o cache usa.
type Redis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider decora um fixture.Provider com cache Redis de resultados.
// Só resultados concluídos entram no cache: placar final é imutável.
// A flag de apostas nunca é cacheada (muda a qualquer momento).
type CachedProvider struct {
	Inner fixture.Provider
	Redis Redis
	TTL   time.Duration
}

func NewCachedProvider(inner fixture.Provider, r Redis, ttl time.Duration) *CachedProvider {
	return &CachedProvider{Inner: inner, Redis: r, TTL: ttl}
}

// key gera a chave Redis do resultado de uma partida
func key(fixtureID string) string { return "fixture:result:" + fixtureID }

func (c *CachedProvider) Result(ctx context.Context, fixtureID string) (fixture.Result, error) {
	if b, err := c.Redis.Get(ctx, key(fixtureID)).Bytes(); err == nil {
		var res fixture.Result
		if jerr := json.Unmarshal(b, &res); jerr == nil && res.Concluded {
			return res, nil
		}
	}

	res, err := c.Inner.Result(ctx, fixtureID)
	if err != nil {
		return fixture.Result{}, err
	}

	if res.Concluded {
		if b, jerr := json.Marshal(res); jerr == nil {
			// falha de cache não bloqueia a liquidação
			_ = c.Redis.Set(ctx, key(fixtureID), b, c.TTL).Err()
		}
	}

	return res, nil
}

func (c *CachedProvider) IsBettable(ctx context.Context, fixtureID string) (bool, error) {
	return c.Inner.IsBettable(ctx, fixtureID)
}
