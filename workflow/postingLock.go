package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/zentabooks/erpcore_backend/config"
	"gorm.io/gorm"
)

// AcquireTenantPostingLock serializes posting per tenant across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireTenantPostingLock(tx *gorm.DB, tenantId string) error {
	lockName := fmt.Sprintf("posting:%s", tenantId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for tenant_id=%s", tenantId)
	}
	return nil
}

func ReleaseTenantPostingLock(tx *gorm.DB, tenantId string) {
	lockName := fmt.Sprintf("posting:%s", tenantId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireRedisPostingLock takes the cross-instance redis lock for a tenant.
// Returns nil lock when redis is not configured: redis locks reduce
// contention, the database's unique journal index is what guarantees
// correctness.
func AcquireRedisPostingLock(ctx context.Context, tenantId string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, "posting:"+tenantId, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 25),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("could not obtain redis posting lock for tenant_id=%s", tenantId)
		}
		return nil, err
	}
	return lock, nil
}

func ReleaseRedisPostingLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
