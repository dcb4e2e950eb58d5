package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CatalogCache 商品列表整页缓存。
// 库存数值不进任何缓存：库存读写全部走数据库，预扣才不会有竞态；
// 缓存页里的库存展示可能短暂滞后，只影响显示。
//
// 失效采用版本号方案：商品写入时自增版本号，
// 页面键内嵌版本号，旧版本页面靠TTL自然过期
type CatalogCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

const catalogVersionKey = "catalog:ver"

func NewCatalogCache(rdb redis.UniversalClient, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

// PageKey 按当前版本号生成列表查询的缓存键
func (c *CatalogCache) PageKey(ctx context.Context, query string) string {
	ver, err := c.rdb.Get(ctx, catalogVersionKey).Int64()
	if err != nil {
		ver = 1
	}
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("catalog:v%d:%s", ver, hex.EncodeToString(sum[:]))
}

// Get 读缓存，未命中或Redis异常都返回ok=false。
// 缓存故障不致命，调用方直接回源数据库
func (c *CatalogCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

// Set 写入渲染好的列表页，带统一TTL
func (c *CatalogCache) Set(ctx context.Context, key string, payload []byte) {
	_ = c.rdb.Set(ctx, key, payload, c.ttl).Err()
}

// Bump 版本号+1，所有缓存页一次性失效
func (c *CatalogCache) Bump(ctx context.Context) {
	_ = c.rdb.Incr(ctx, catalogVersionKey).Err()
}

// EventDedup 回调事件去重：网关会重试投递，
// 每个事件ID用SETNX+TTL窗口只认领一次
type EventDedup struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewEventDedup(rdb redis.UniversalClient, ttl time.Duration) *EventDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDedup{rdb: rdb, ttl: ttl}
}

// Claim 首次见到该事件ID时返回true。
// Redis故障时也返回true：支付通知宁可重复处理也不能丢，
// 处理方本身保持幂等
func (d *EventDedup) Claim(ctx context.Context, eventID string) bool {
	ok, err := d.rdb.SetNX(ctx, "webhook:event:"+eventID, "1", d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
