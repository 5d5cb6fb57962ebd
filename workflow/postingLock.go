package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// AcquirePostingLock serializes ledger propagation per origin across
// instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquirePostingLock(tx *gorm.DB, scope string) error {
	lockName := fmt.Sprintf("posting:%s", scope)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for scope=%s", scope)
	}
	return nil
}

func ReleasePostingLock(tx *gorm.DB, scope string) {
	lockName := fmt.Sprintf("posting:%s", scope)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// acquireRedisLock takes a best-effort distributed lock when redis is
// available. The MySQL advisory lock remains the real serialization; this
// only shortens the window in which two instances pile onto the same row.
func acquireRedisLock(ctx context.Context, scope string) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, "PostingLock:"+scope, 30*time.Second, nil)
	if err != nil {
		return nil
	}
	return lock
}

func releaseRedisLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
