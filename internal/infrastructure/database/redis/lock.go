package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// ErrLockHeld is returned by Acquire when another holder owns the lock.
var ErrLockHeld = appErrors.New(appErrors.ErrCodeConflict, "lock already held")

// releaseScript deletes the lock only when the caller still owns it, so a
// slow worker can never release a lock re-acquired by someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Lock is a single-instance distributed lock. Workers take it per company
// so a re-delivered task is not processed twice concurrently.
type Lock struct {
	cmds   commands
	logger logging.Logger
	key    string
	token  string
	ttl    time.Duration
}

// NewLock prepares a lock for the given key. The lock is not taken until
// Acquire succeeds.
func NewLock(client *Client, log logging.Logger, key string, ttl time.Duration) *Lock {
	return newLockWithCommands(client, log, key, ttl)
}

func newLockWithCommands(cmds commands, log logging.Logger, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Lock{
		cmds:   cmds,
		logger: log,
		key:    "lock:" + key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire takes the lock, returning ErrLockHeld when it is owned elsewhere.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.cmds.setNX(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to acquire lock")
	}
	if !ok {
		return ErrLockHeld
	}
	l.logger.Debug("lock acquired", logging.String("key", l.key))
	return nil
}

// Release frees the lock if this instance still owns it. Releasing a lock
// that expired or changed hands is a no-op.
func (l *Lock) Release(ctx context.Context) error {
	res, err := l.cmds.eval(ctx, releaseScript, []string{l.key}, l.token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to release lock")
	}
	if n, ok := res.(int64); ok && n == 0 {
		l.logger.Warn("lock expired before release", logging.String("key", l.key))
	}
	return nil
}
