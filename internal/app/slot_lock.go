package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/cimillas/interview-slots/internal/domain"
	"github.com/cimillas/interview-slots/internal/lock"
	"go.uber.org/zap"
)

// SlotLocker serializes hold creation and confirmation on one slot across
// API instances. The database row lock stays authoritative; this only sheds
// contention before transactions start.
type SlotLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func slotLockKey(slotRecordID string, slotIndex int) string {
	return fmt.Sprintf("slot:%s:%d", slotRecordID, slotIndex)
}

func acquireSlot(ctx context.Context, locker SlotLocker, logger *zap.Logger, slotRecordID string, slotIndex int) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	key := slotLockKey(slotRecordID, slotIndex)
	unlock, err := locker.Lock(ctx, key)
	if err == nil {
		return unlock, nil
	}
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, domain.ErrSlotBusy
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	logger.Warn("slot lock unavailable, continuing on row lock", zap.String("key", key), zap.Error(err))
	return func() {}, nil
}
