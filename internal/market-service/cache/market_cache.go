package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cricwin-ledger/internal/ledger"
	scache "github.com/radieske/cricwin-ledger/internal/shared/cache"
)

const TTL = 30 * time.Second

// Cache guarda leituras de mercados no Redis. Toda mutação incrementa a geração
// e apaga as chaves; quem leu do banco antes disso não consegue mais gravar.
type Cache struct{ R redis.Cmdable }

func New(r redis.Cmdable) *Cache { return &Cache{R: r} }

const keyGen = "markets:gen"

func keyMarket(id string) string { return "market:" + id }

func keyList(status ledger.MarketStatus) string {
	if status == "" {
		return "markets:list:all"
	}
	return "markets:list:" + string(status)
}

// Generation deve ser lida antes da consulta ao banco e repassada ao Set
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	return scache.Gen(ctx, c.R, keyGen)
}

func (c *Cache) GetMarket(ctx context.Context, id string) (*ledger.Market, bool, error) {
	var m ledger.Market
	ok, err := scache.GetJSON(ctx, c.R, keyMarket(id), &m)
	if !ok || err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (c *Cache) SetMarket(ctx context.Context, gen int64, m *ledger.Market) (bool, error) {
	return scache.SetJSONIfGen(ctx, c.R, keyGen, gen, keyMarket(m.ID), m, TTL)
}

func (c *Cache) GetList(ctx context.Context, status ledger.MarketStatus) ([]ledger.Market, bool, error) {
	var ms []ledger.Market
	ok, err := scache.GetJSON(ctx, c.R, keyList(status), &ms)
	if !ok || err != nil {
		return nil, false, err
	}
	return ms, true, nil
}

func (c *Cache) SetList(ctx context.Context, gen int64, status ledger.MarketStatus, ms []ledger.Market) (bool, error) {
	return scache.SetJSONIfGen(ctx, c.R, keyGen, gen, keyList(status), ms, TTL)
}

// Invalidate avança a geração e remove o mercado e todas as listagens
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.R.Incr(ctx, keyGen).Err(); err != nil {
		return err
	}
	keys := []string{
		keyList(""),
		keyList(ledger.MarketUpcoming),
		keyList(ledger.MarketLive),
		keyList(ledger.MarketFinished),
	}
	if id != "" {
		keys = append(keys, keyMarket(id))
	}
	return c.R.Del(ctx, keys...).Err()
}
