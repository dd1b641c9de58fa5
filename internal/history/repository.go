package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for an unknown hand id
var ErrNotFound = errors.New("hand record not found")

// DefaultMaxLen is how many hands a repository keeps when none is configured
const DefaultMaxLen = 1000

// Repo 定义对牌局历史的抽象操作
type Repo interface {
	// Append 保存一手牌；超出容量时丢弃最旧的记录
	Append(ctx context.Context, rec *HandRecord) error
	// Get 按 hand id 读取
	Get(ctx context.Context, id string) (*HandRecord, error)
	// Recent 最近 n 手，最新在前
	Recent(ctx context.Context, n int) ([]*HandRecord, error)
	// Count 当前保存的手数
	Count(ctx context.Context) (int64, error)
}
