package businessflow

import (
	"context"
	"strings"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
)

// QrAdminFlow provides the operator read views over the code ledger.
type QrAdminFlow interface {
	ListQrs(ctx context.Context, page, pageSize int) (*dto.ListQrsResponse, error)
	SearchByOccasion(ctx context.Context, occasionName string) (*dto.ListQrsResponse, error)
}

type QrAdminFlowImpl struct {
	qrRepo repository.QrCodeRepository
}

func NewQrAdminFlow(qrRepo repository.QrCodeRepository) QrAdminFlow {
	return &QrAdminFlowImpl{qrRepo: qrRepo}
}

func (f *QrAdminFlowImpl) ListQrs(ctx context.Context, page, pageSize int) (*dto.ListQrsResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	filter := models.QrCodeFilter{}
	total, err := f.qrRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_QRS_FAILED", "Failed to count qr codes", err)
	}

	rows, err := f.qrRepo.ListWithRelations(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_QRS_FAILED", "Failed to list qr codes", err)
	}

	items := make([]dto.ScanResponse, 0, len(rows))
	for _, code := range rows {
		items = append(items, *FormatScan(code, nil))
	}

	return &dto.ListQrsResponse{Total: int(total), Items: items}, nil
}

func (f *QrAdminFlowImpl) SearchByOccasion(ctx context.Context, occasionName string) (*dto.ListQrsResponse, error) {
	name := strings.TrimSpace(occasionName)
	if name == "" {
		return nil, ErrOccasionNameRequired
	}

	rows, err := f.qrRepo.ListByOccasionName(ctx, name)
	if err != nil {
		return nil, NewBusinessError("SEARCH_QRS_FAILED", "Failed to search qr codes by occasion", err)
	}

	items := make([]dto.ScanResponse, 0, len(rows))
	for _, code := range rows {
		items = append(items, *FormatScan(code, nil))
	}

	return &dto.ListQrsResponse{Total: len(items), Items: items}, nil
}
