// 包 runstate：按数据集互斥的运行锁与最近一次运行的汇总（Redis）
// 约束：客户端为 nil 时锁与汇总均为空操作
package runstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"roadnet/internal/logger"
	"roadnet/internal/validate"
)

// ErrRunInProgress：同一数据集已有运行持有锁
var ErrRunInProgress = errors.New("another run holds the dataset lock")

const keyPrefix = "roadnet:"

func lockKey(dataset string) string    { return keyPrefix + "lock:" + dataset }
func summaryKey(dataset string) string { return keyPrefix + "summary:" + dataset }

// 只删除自己持有的锁，避免过期后误删他人的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lease：持有中的锁
type Lease struct {
	rc    *redis.Client
	key   string
	token string
}

// Lock：SET NX 抢占数据集锁，ttl 到期自动释放
func Lock(ctx context.Context, rc *redis.Client, dataset string, ttl time.Duration) (*Lease, error) {
	if rc == nil {
		return &Lease{}, nil
	}
	l := &Lease{rc: rc, key: lockKey(dataset), token: uuid.NewString()}
	ok, err := rc.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, dataset)
	}
	logger.L().Debug("run_lock_acquired", "key", l.key, "ttl", ttl)
	return l, nil
}

// Release：释放锁；锁已过期或被他人持有时不做任何事
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.rc == nil {
		return nil
	}
	n, err := releaseScript.Run(ctx, l.rc, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if n == 0 {
		logger.L().Warn("run_lock_lost", "key", l.key)
	}
	return nil
}

// PublishSummary：写入哈希 roadnet:summary:<dataset>，字段 v<code> 为违规数，
// clean 为 1/0，finished_at 为 RFC3339 时间
func PublishSummary(ctx context.Context, rc *redis.Client, dataset string, res *validate.Result, ttl time.Duration) error {
	if rc == nil || res == nil {
		return nil
	}
	fields := map[string]any{
		"finished_at": time.Now().UTC().Format(time.RFC3339),
		"clean":       boolInt(res.Clean()),
	}
	for _, row := range res.Summary() {
		fields["v"+strconv.Itoa(int(row.Code))] = row.Invalid
	}
	key := summaryKey(dataset)
	pipe := rc.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
