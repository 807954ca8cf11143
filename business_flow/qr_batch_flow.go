package businessflow

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/app/services"
	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
	"github.com/skanfy/qr-backend/utils"
)

// QrBatchFlow creates N codes at once under one occasion and one generation
// number, and logs batch provenance. The generation number is computed once
// per invocation so every code of the batch shares it; the allocation and the
// insert run under a process-wide mutex so two batches never pick the same
// number for one occasion. The mutex covers only that critical section.
//
// Rendering is deliberately decoupled from persistence: code rows are
// committed first, then each image is rendered and stored in a second pass.
// A render failure leaves the row without an image, is collected per item,
// and never rolls back the batch.
type QrBatchFlow interface {
	CreateBatch(ctx context.Context, req *dto.CreateBatchRequest, admin *Principal, metadata *ClientMetadata) (*dto.CreateBatchResponse, error)
}

type QrBatchFlowImpl struct {
	qrRepo       repository.QrCodeRepository
	occasionRepo repository.OccasionRepository
	batchRepo    repository.BatchRecordRepository
	adminRepo    repository.AdminRepository
	renderer     services.QrRenderer
	qrConfig     *config.QRConfig
	db           *gorm.DB
}

func NewQrBatchFlow(
	qrRepo repository.QrCodeRepository,
	occasionRepo repository.OccasionRepository,
	batchRepo repository.BatchRecordRepository,
	adminRepo repository.AdminRepository,
	renderer services.QrRenderer,
	qrConfig *config.QRConfig,
	db *gorm.DB,
) QrBatchFlow {
	return &QrBatchFlowImpl{
		qrRepo:       qrRepo,
		occasionRepo: occasionRepo,
		batchRepo:    batchRepo,
		adminRepo:    adminRepo,
		renderer:     renderer,
		qrConfig:     qrConfig,
		db:           db,
	}
}

func (f *QrBatchFlowImpl) CreateBatch(ctx context.Context, req *dto.CreateBatchRequest, admin *Principal, metadata *ClientMetadata) (*dto.CreateBatchResponse, error) {
	if !admin.IsAdmin() {
		return nil, ErrAdminNotFound
	}
	adminRow, err := f.adminRepo.ByID(ctx, admin.ID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOOKUP_FAILED", "Failed to lookup admin", err)
	}
	if adminRow == nil {
		return nil, ErrAdminNotFound
	}
	if req.Count < 1 || req.Count > f.qrConfig.MaxBatchSize {
		return nil, ErrBatchCountOutOfRange
	}

	occasionID, err := uuid.Parse(req.OccasionID)
	if err != nil {
		return nil, ErrOccasionNotFound
	}
	occasion, err := f.occasionRepo.ByID(ctx, occasionID)
	if err != nil {
		return nil, NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
	}
	if occasion == nil {
		return nil, ErrOccasionNotFound
	}

	codes, generation, err := f.allocateBatch(ctx, occasionID, admin.ID, req.Count)
	if err != nil {
		return nil, err
	}

	// Render pass, outside both the transaction and the generation mutex.
	// Per-item failures are collected and logged; the rows already exist
	// either way.
	results := make([]dto.BatchItemResult, 0, len(codes))
	for _, code := range codes {
		item := dto.BatchItemResult{
			ID:         code.ID.String(),
			Link:       code.Link,
			Generation: code.Generation,
		}

		image, renderErr := f.renderer.RenderSVG(ctx, code.Link)
		if renderErr == nil {
			if updErr := f.qrRepo.UpdateRendered(ctx, code.ID, image); updErr != nil {
				renderErr = updErr
			}
		}
		if renderErr != nil {
			log.Printf("qr batch: render failed for %s: %v", code.ID, renderErr)
			item.RenderError = utils.ToPtr(renderErr.Error())
		} else {
			item.Rendered = true
			f.storePNGCopy(ctx, code, occasionID, generation)
		}

		results = append(results, item)
	}

	return &dto.CreateBatchResponse{
		OccasionID: occasionID.String(),
		Generation: generation,
		Count:      len(results),
		Codes:      results,
	}, nil
}

// allocateBatch computes the next generation number for the occasion and
// commits the code rows plus their provenance records. The process-wide mutex
// is held only for this critical section; rendering the codes happens after
// it is released, so a slow render never stalls other batch requests.
func (f *QrBatchFlowImpl) allocateBatch(ctx context.Context, occasionID uuid.UUID, adminID uint, count int) ([]*models.QrCode, int, error) {
	lockQrBatchGen()
	defer unlockQrBatchGen()

	maxGen, err := f.qrRepo.MaxGeneration(ctx, occasionID)
	if err != nil {
		return nil, 0, NewBusinessError("FETCH_GENERATION_FAILED", "Failed to determine next generation number", ErrGenerationUnavailable)
	}
	generation := maxGen + 1

	codes := make([]*models.QrCode, 0, count)
	records := make([]*models.BatchRecord, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		codes = append(codes, &models.QrCode{
			ID:         id,
			IsActive:   false,
			Generation: generation,
			Link:       fmt.Sprintf("%s/%s", f.qrConfig.PublicBaseURL, id),
			OccasionID: &occasionID,
			CreatedAt:  utils.UTCNow(),
			UpdatedAt:  utils.UTCNow(),
		})
		records = append(records, &models.BatchRecord{
			ID:         uuid.New(),
			AdminID:    adminID,
			QrID:       id,
			Generation: generation,
			CreatedAt:  utils.UTCNow(),
		})
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.qrRepo.SaveBatch(txCtx, codes); err != nil {
			return fmt.Errorf("failed to save qr codes: %w", err)
		}
		if err := f.batchRepo.SaveBatch(txCtx, records); err != nil {
			return fmt.Errorf("failed to save batch records: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, NewBusinessError("CREATE_BATCH_FAILED", "Failed to create qr batch", err)
	}

	return codes, generation, nil
}

// storePNGCopy writes a PNG rendition into the per-occasion, per-generation
// folder that the occasion archive download serves from. Failures are logged
// and swallowed; the download endpoint tolerates missing files.
func (f *QrBatchFlowImpl) storePNGCopy(ctx context.Context, code *models.QrCode, occasionID uuid.UUID, generation int) {
	if f.qrConfig.ImageRoot == "" {
		return
	}

	png, err := f.renderer.RenderPNG(ctx, code.Link, f.qrConfig.ImageSize)
	if err != nil {
		log.Printf("qr batch: png render failed for %s: %v", code.ID, err)
		return
	}

	dir := filepath.Join(f.qrConfig.ImageRoot, occasionID.String(), fmt.Sprintf("gen_%d", generation))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("qr batch: mkdir failed for %s: %v", dir, err)
		return
	}
	path := filepath.Join(dir, code.ID.String()+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		log.Printf("qr batch: write failed for %s: %v", path, err)
	}
}
