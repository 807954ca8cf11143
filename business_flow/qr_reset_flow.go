package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/repository"
)

// QrResetFlow returns a code to the unclaimed state: owner and object are
// nulled, the code is deactivated, and the occasion reference is kept so the
// code stays attributable to the batch it was printed for. Admins may reset
// any code; a user may reset only a code they own.
type QrResetFlow interface {
	Reset(ctx context.Context, qrID uuid.UUID, actor *Principal) error
}

type QrResetFlowImpl struct {
	qrRepo      repository.QrCodeRepository
	objectRepo  repository.ObjectRepository
	rc          *redis.Client
	cacheConfig *config.CacheConfig
	db          *gorm.DB
}

func NewQrResetFlow(
	qrRepo repository.QrCodeRepository,
	objectRepo repository.ObjectRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) QrResetFlow {
	return &QrResetFlowImpl{
		qrRepo:      qrRepo,
		objectRepo:  objectRepo,
		rc:          rc,
		cacheConfig: cacheConfig,
		db:          db,
	}
}

func (f *QrResetFlowImpl) Reset(ctx context.Context, qrID uuid.UUID, actor *Principal) error {
	if actor == nil {
		return ErrNotQrOwner
	}

	code, err := f.qrRepo.ByID(ctx, qrID)
	if err != nil {
		return NewBusinessError("QR_LOOKUP_FAILED", "Failed to lookup qr code", err)
	}
	if code == nil {
		return ErrQrNotFound
	}
	if !actor.IsAdmin() {
		if code.UserID == nil || *code.UserID != actor.ID {
			return ErrNotQrOwner
		}
	}

	objectID := code.ObjectID

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if _, err := f.qrRepo.Reset(txCtx, qrID); err != nil {
			return fmt.Errorf("failed to reset qr code: %w", err)
		}
		// The detached object row is deleted rather than left orphaned; the
		// next claim creates a fresh one.
		if objectID != nil {
			if err := f.objectRepo.Delete(txCtx, *objectID); err != nil {
				return fmt.Errorf("failed to delete detached object: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return NewBusinessError("RESET_QR_FAILED", "Failed to reset qr code", err)
	}

	InvalidateScanCache(ctx, f.rc, f.cacheConfig, qrID)
	return nil
}
