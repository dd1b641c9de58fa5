package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRepo struct {
	rdb    *redis.Client
	maxLen int
	ttl    time.Duration
}

// NewRedisRepo keeps at most maxLen hands. ttl 0 means records never expire.
func NewRedisRepo(rdb *redis.Client, maxLen int, ttl time.Duration) Repo {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}

	return &redisRepo{rdb: rdb, maxLen: maxLen, ttl: ttl}
}

// key 约定：
//
//	kv  : hh:hand:{id}   -> HandRecord JSON
//	list: hh:hands       -> hand ids, newest first, capped at maxLen
const listKey = "hh:hands"

func handKey(id string) string {
	return fmt.Sprintf("hh:hand:%s", id)
}

func (r *redisRepo) Append(ctx context.Context, rec *HandRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal hand %s: %w", rec.ID, err)
	}

	// 即将被挤出列表的旧记录
	evicted, err := r.rdb.LRange(ctx, listKey, int64(r.maxLen-1), -1).Result()
	if err != nil {
		return err
	}

	p := r.rdb.TxPipeline()
	p.Set(ctx, handKey(rec.ID), data, r.ttl)
	p.LRem(ctx, listKey, 0, rec.ID)
	p.LPush(ctx, listKey, rec.ID)
	p.LTrim(ctx, listKey, 0, int64(r.maxLen-1))
	for _, id := range evicted {
		if id != rec.ID {
			p.Del(ctx, handKey(id))
		}
	}
	_, err = p.Exec(ctx)
	return err
}

func (r *redisRepo) Get(ctx context.Context, id string) (*HandRecord, error) {
	data, err := r.rdb.Get(ctx, handKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec HandRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal hand %s: %w", id, err)
	}
	return &rec, nil
}

func (r *redisRepo) Recent(ctx context.Context, n int) ([]*HandRecord, error) {
	if n <= 0 {
		return []*HandRecord{}, nil
	}

	ids, err := r.rdb.LRange(ctx, listKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*HandRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = handKey(id)
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*HandRecord, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// 已过期
			continue
		}

		var rec HandRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal hand %s: %w", ids[i], err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (r *redisRepo) Count(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, listKey).Result()
}
