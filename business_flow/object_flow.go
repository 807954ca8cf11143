package businessflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/app/services"
	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
	"github.com/skanfy/qr-backend/utils"
)

// ObjectFlow covers the claim protocol: attaching an object to a code claims
// it for the caller, detaching removes the payload but keeps ownership.
//
// Attach is the correctness-critical path. The claim is a single conditional
// update guarded by "object_id IS NULL"; when two callers race on the same
// unclaimed code, exactly one update reports a row affected and the other
// caller gets a conflict. The object row and the claim commit in one
// transaction, so a lost race never leaves an orphan object behind.
type ObjectFlow interface {
	Attach(ctx context.Context, qrID uuid.UUID, req *dto.AttachObjectRequest, user *Principal) (*dto.ScanResponse, error)
	Update(ctx context.Context, qrID uuid.UUID, req *dto.UpdateObjectRequest, user *Principal) (*dto.ObjectResponse, error)
	Detach(ctx context.Context, qrID uuid.UUID, user *Principal) error
	Info(ctx context.Context, qrID uuid.UUID, user *Principal) (*dto.ObjectResponse, error)
	ListMine(ctx context.Context, user *Principal) (*dto.ListMyObjectsResponse, error)
}

type ObjectFlowImpl struct {
	qrRepo      repository.QrCodeRepository
	objectRepo  repository.ObjectRepository
	userRepo    repository.UserRepository
	imageHost   services.ImageHost
	rc          *redis.Client
	cacheConfig *config.CacheConfig
	db          *gorm.DB
}

func NewObjectFlow(
	qrRepo repository.QrCodeRepository,
	objectRepo repository.ObjectRepository,
	userRepo repository.UserRepository,
	imageHost services.ImageHost,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	db *gorm.DB,
) ObjectFlow {
	return &ObjectFlowImpl{
		qrRepo:      qrRepo,
		objectRepo:  objectRepo,
		userRepo:    userRepo,
		imageHost:   imageHost,
		rc:          rc,
		cacheConfig: cacheConfig,
		db:          db,
	}
}

func (f *ObjectFlowImpl) Attach(ctx context.Context, qrID uuid.UUID, req *dto.AttachObjectRequest, user *Principal) (*dto.ScanResponse, error) {
	if err := f.verifyUser(ctx, user); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrObjectNameRequired
	}

	code, err := f.qrRepo.ByID(ctx, qrID)
	if err != nil {
		return nil, NewBusinessError("QR_LOOKUP_FAILED", "Failed to lookup qr code", err)
	}
	if code == nil {
		return nil, ErrQrNotFound
	}
	if code.ObjectID != nil {
		return nil, ErrObjectAlreadyAttached
	}

	// Image upload happens before the transaction so the external call never
	// holds a database transaction open.
	imageURL, err := f.uploadImage(ctx, req.Image, qrID)
	if err != nil {
		return nil, err
	}

	object := &models.Object{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		AdditionalInfo: req.AdditionalInfo,
		ImageURL:       imageURL,
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.objectRepo.Save(txCtx, object); err != nil {
			return fmt.Errorf("failed to save object: %w", err)
		}
		rows, err := f.qrRepo.AttachObject(txCtx, qrID, object.ID, user.ID)
		if err != nil {
			return fmt.Errorf("failed to claim qr code: %w", err)
		}
		if rows == 0 {
			// Lost the race or the code was furnished meanwhile. Rolling back
			// also discards the object row.
			return ErrObjectAlreadyAttached
		}
		return nil
	})
	if err != nil {
		if IsObjectAlreadyAttached(err) {
			return nil, ErrObjectAlreadyAttached
		}
		return nil, NewBusinessError("ATTACH_OBJECT_FAILED", "Failed to attach object", err)
	}

	InvalidateScanCache(ctx, f.rc, f.cacheConfig, qrID)

	claimed, err := f.qrRepo.ByIDWithRelations(ctx, qrID)
	if err != nil || claimed == nil {
		return nil, NewBusinessError("QR_LOOKUP_FAILED", "Failed to reload qr code", err)
	}
	return FormatScan(claimed, user), nil
}

func (f *ObjectFlowImpl) Update(ctx context.Context, qrID uuid.UUID, req *dto.UpdateObjectRequest, user *Principal) (*dto.ObjectResponse, error) {
	_, object, err := f.ownedObject(ctx, qrID, user)
	if err != nil {
		return nil, err
	}

	if req.Name == nil && req.Description == nil && req.AdditionalInfo == nil && req.Image == nil {
		return FormatObject(object), nil
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrObjectNameRequired
		}
		object.Name = name
	}
	if req.Description != nil {
		object.Description = req.Description
	}
	if req.AdditionalInfo != nil {
		object.AdditionalInfo = req.AdditionalInfo
	}
	if req.Image != nil {
		imageURL, err := f.uploadImage(ctx, req.Image, qrID)
		if err != nil {
			return nil, err
		}
		object.ImageURL = imageURL
	}
	object.UpdatedAt = utils.UTCNow()

	if err := f.objectRepo.Update(ctx, object); err != nil {
		return nil, NewBusinessError("UPDATE_OBJECT_FAILED", "Failed to update object", err)
	}

	InvalidateScanCache(ctx, f.rc, f.cacheConfig, qrID)
	return FormatObject(object), nil
}

func (f *ObjectFlowImpl) Detach(ctx context.Context, qrID uuid.UUID, user *Principal) error {
	_, object, err := f.ownedObject(ctx, qrID, user)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if _, err := f.qrRepo.DetachObject(txCtx, qrID, object.ID); err != nil {
			return fmt.Errorf("failed to detach object: %w", err)
		}
		if err := f.objectRepo.Delete(txCtx, object.ID); err != nil {
			return fmt.Errorf("failed to delete object: %w", err)
		}
		return nil
	})
	if err != nil {
		return NewBusinessError("DETACH_OBJECT_FAILED", "Failed to detach object", err)
	}

	InvalidateScanCache(ctx, f.rc, f.cacheConfig, qrID)
	return nil
}

func (f *ObjectFlowImpl) Info(ctx context.Context, qrID uuid.UUID, user *Principal) (*dto.ObjectResponse, error) {
	_, object, err := f.ownedObject(ctx, qrID, user)
	if err != nil {
		return nil, err
	}
	return FormatObject(object), nil
}

func (f *ObjectFlowImpl) ListMine(ctx context.Context, user *Principal) (*dto.ListMyObjectsResponse, error) {
	if err := f.verifyUser(ctx, user); err != nil {
		return nil, err
	}

	filter := models.QrCodeFilter{UserID: &user.ID, HasObject: utils.ToPtr(true)}
	codes, err := f.qrRepo.ListWithRelations(ctx, filter, "created_at DESC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_OBJECTS_FAILED", "Failed to list objects", err)
	}

	items := make([]dto.MyObjectItem, 0, len(codes))
	for _, code := range codes {
		if code.Object == nil {
			continue
		}
		items = append(items, dto.MyObjectItem{
			QrID:   code.ID.String(),
			Link:   code.Link,
			Object: *FormatObject(code.Object),
		})
	}

	return &dto.ListMyObjectsResponse{Total: len(items), Items: items}, nil
}

// verifyUser checks that the principal is an existing, active user.
func (f *ObjectFlowImpl) verifyUser(ctx context.Context, user *Principal) error {
	if !user.IsUser() {
		return ErrUserNotFound
	}
	row, err := f.userRepo.ByID(ctx, user.ID)
	if err != nil {
		return NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if row == nil {
		return ErrUserNotFound
	}
	if row.IsActive != nil && !*row.IsActive {
		return ErrUserInactive
	}
	return nil
}

// ownedObject loads the code and its object, enforcing that the caller is
// the current owner.
func (f *ObjectFlowImpl) ownedObject(ctx context.Context, qrID uuid.UUID, user *Principal) (*models.QrCode, *models.Object, error) {
	if err := f.verifyUser(ctx, user); err != nil {
		return nil, nil, err
	}

	code, err := f.qrRepo.ByID(ctx, qrID)
	if err != nil {
		return nil, nil, NewBusinessError("QR_LOOKUP_FAILED", "Failed to lookup qr code", err)
	}
	if code == nil {
		return nil, nil, ErrQrNotFound
	}
	if code.UserID == nil || *code.UserID != user.ID {
		return nil, nil, ErrNotQrOwner
	}
	if code.ObjectID == nil {
		return nil, nil, ErrObjectNotAttached
	}

	object, err := f.objectRepo.ByID(ctx, *code.ObjectID)
	if err != nil {
		return nil, nil, NewBusinessError("OBJECT_LOOKUP_FAILED", "Failed to lookup object", err)
	}
	if object == nil {
		return nil, nil, ErrObjectNotFound
	}
	return code, object, nil
}

// uploadImage decodes, sniffs, and uploads an optional inline base64 image.
// Returns nil when no image was provided.
func (f *ObjectFlowImpl) uploadImage(ctx context.Context, encoded *string, qrID uuid.UUID) (*string, error) {
	if encoded == nil || *encoded == "" {
		return nil, nil
	}

	payload := *encoded
	// Tolerate data URIs from browser clients.
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrImageFormatInvalid
	}
	if len(data) > utils.MaxObjectImageBytes {
		return nil, ErrImageTooLarge
	}

	// Registered decoders: png, jpeg, gif, webp.
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrImageFormatInvalid
	}

	url, err := f.imageHost.Upload(ctx, fmt.Sprintf("%s.%s", qrID, format), data)
	if err != nil {
		return nil, NewBusinessError("IMAGE_UPLOAD_FAILED", "Failed to upload object image", ErrImageHostUnavailable)
	}
	return utils.ToPtr(url), nil
}
