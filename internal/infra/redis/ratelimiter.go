package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kursadbilgin/bulk-submission-engine/internal/ratelimit"
)

const (
	defaultLimitPerWindow int64 = 10
	defaultWindow               = time.Minute
	keyPrefix                   = "throttle:upload"
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*UploadThrottle)(nil)

// UploadThrottle is a fixed-window counter per account shared by every API
// instance through Redis.
type UploadThrottle struct {
	client *goredis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	script *goredis.Script
}

func NewUploadThrottle(client *goredis.Client, limit int, window time.Duration) (*UploadThrottle, error) {
	return newUploadThrottle(client, int64(limit), window, time.Now)
}

func newUploadThrottle(
	client *goredis.Client,
	limit int64,
	window time.Duration,
	nowFn func() time.Time,
) (*UploadThrottle, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limit <= 0 {
		limit = defaultLimitPerWindow
	}
	if window < time.Second {
		window = defaultWindow
	}
	if nowFn == nil {
		nowFn = time.Now
	}

	return &UploadThrottle{
		client: client,
		limit:  limit,
		window: window,
		now:    nowFn,
		script: allowScript,
	}, nil
}

// Allow counts one upload for accountID and reports whether it fits in the
// current window.
func (t *UploadThrottle) Allow(ctx context.Context, accountID string) (bool, error) {
	if t == nil || t.client == nil || t.script == nil {
		return false, fmt.Errorf("upload throttle is not initialized")
	}

	account := strings.TrimSpace(accountID)
	if account == "" {
		return false, fmt.Errorf("account id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	seconds := int64(t.window / time.Second)
	bucket := t.now().UTC().Unix() / seconds
	key := fmt.Sprintf("%s:%s:%d", keyPrefix, account, bucket)

	result, err := t.script.Run(ctx, t.client, []string{key}, t.limit, seconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate upload throttle: %w", err)
	}

	return result == 1, nil
}
