package businessflow

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
	"github.com/skanfy/qr-backend/utils"
)

// OccasionFlow is the occasion registry: CRUD plus the read-time aggregations
// (generated and furnished counts), the generation-grouped history view, an
// Excel report, and the archive download of rendered PNGs.
type OccasionFlow interface {
	Create(ctx context.Context, req *dto.CreateOccasionRequest, admin *Principal) (*dto.OccasionResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateOccasionRequest, admin *Principal) (*dto.OccasionResponse, error)
	Delete(ctx context.Context, id uuid.UUID, admin *Principal) error
	Get(ctx context.Context, id uuid.UUID) (*dto.OccasionResponse, error)
	List(ctx context.Context, page, pageSize int) (*dto.ListOccasionsResponse, error)
	History(ctx context.Context) (*dto.OccasionHistoryResponse, error)
	ExportExcel(ctx context.Context) (string, []byte, error)
	DownloadArchive(ctx context.Context, id uuid.UUID, generation *int) (string, []byte, error)
}

type OccasionFlowImpl struct {
	occasionRepo repository.OccasionRepository
	qrRepo       repository.QrCodeRepository
	qrConfig     *config.QRConfig
}

func NewOccasionFlow(
	occasionRepo repository.OccasionRepository,
	qrRepo repository.QrCodeRepository,
	qrConfig *config.QRConfig,
) OccasionFlow {
	return &OccasionFlowImpl{
		occasionRepo: occasionRepo,
		qrRepo:       qrRepo,
		qrConfig:     qrConfig,
	}
}

func (f *OccasionFlowImpl) Create(ctx context.Context, req *dto.CreateOccasionRequest, admin *Principal) (*dto.OccasionResponse, error) {
	if !admin.IsAdmin() {
		return nil, ErrAdminNotFound
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrOccasionNameRequired
	}

	occasion := &models.Occasion{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}
	if err := f.occasionRepo.Save(ctx, occasion); err != nil {
		return nil, NewBusinessError("CREATE_OCCASION_FAILED", "Failed to create occasion", err)
	}

	return f.format(ctx, occasion)
}

func (f *OccasionFlowImpl) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateOccasionRequest, admin *Principal) (*dto.OccasionResponse, error) {
	if !admin.IsAdmin() {
		return nil, ErrAdminNotFound
	}

	occasion, err := f.occasionRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
	}
	if occasion == nil {
		return nil, ErrOccasionNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrOccasionNameRequired
		}
		occasion.Name = name
	}
	if req.Description != nil {
		occasion.Description = req.Description
	}
	occasion.UpdatedAt = utils.UTCNow()

	if err := f.occasionRepo.Update(ctx, occasion); err != nil {
		return nil, NewBusinessError("UPDATE_OCCASION_FAILED", "Failed to update occasion", err)
	}
	return f.format(ctx, occasion)
}

// Delete removes the occasion; the database cascades to its codes.
func (f *OccasionFlowImpl) Delete(ctx context.Context, id uuid.UUID, admin *Principal) error {
	if !admin.IsAdmin() {
		return ErrAdminNotFound
	}

	occasion, err := f.occasionRepo.ByID(ctx, id)
	if err != nil {
		return NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
	}
	if occasion == nil {
		return ErrOccasionNotFound
	}

	if err := f.occasionRepo.Delete(ctx, id); err != nil {
		return NewBusinessError("DELETE_OCCASION_FAILED", "Failed to delete occasion", err)
	}
	return nil
}

func (f *OccasionFlowImpl) Get(ctx context.Context, id uuid.UUID) (*dto.OccasionResponse, error) {
	occasion, err := f.occasionRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
	}
	if occasion == nil {
		return nil, ErrOccasionNotFound
	}
	return f.format(ctx, occasion)
}

func (f *OccasionFlowImpl) List(ctx context.Context, page, pageSize int) (*dto.ListOccasionsResponse, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	filter := models.OccasionFilter{}
	total, err := f.occasionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_OCCASIONS_FAILED", "Failed to count occasions", err)
	}

	rows, err := f.occasionRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_OCCASIONS_FAILED", "Failed to list occasions", err)
	}

	items := make([]dto.OccasionResponse, 0, len(rows))
	for _, occasion := range rows {
		item, err := f.format(ctx, occasion)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return &dto.ListOccasionsResponse{Total: int(total), Items: items}, nil
}

// History lists every occasion having at least one code, grouped by
// generation with counts and a derived download handle.
func (f *OccasionFlowImpl) History(ctx context.Context) (*dto.OccasionHistoryResponse, error) {
	counts, err := f.qrRepo.GenerationHistory(ctx)
	if err != nil {
		return nil, NewBusinessError("OCCASION_HISTORY_FAILED", "Failed to load generation history", err)
	}

	grouped := make(map[uuid.UUID][]dto.GenerationGroup)
	order := make([]uuid.UUID, 0)
	for _, row := range counts {
		if _, seen := grouped[row.OccasionID]; !seen {
			order = append(order, row.OccasionID)
		}
		grouped[row.OccasionID] = append(grouped[row.OccasionID], dto.GenerationGroup{
			Generation:  row.Generation,
			Count:       row.Count,
			DownloadURL: fmt.Sprintf("/api/v1/occasions/%s/download?generation=%d", row.OccasionID, row.Generation),
		})
	}

	items := make([]dto.OccasionHistoryItem, 0, len(order))
	for _, occasionID := range order {
		occasion, err := f.occasionRepo.ByID(ctx, occasionID)
		if err != nil {
			return nil, NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
		}
		name := ""
		if occasion != nil {
			name = occasion.Name
		}
		items = append(items, dto.OccasionHistoryItem{
			OccasionID:   occasionID.String(),
			OccasionName: name,
			Generations:  grouped[occasionID],
		})
	}

	return &dto.OccasionHistoryResponse{Items: items}, nil
}

// ExportExcel builds a one-sheet report of all occasions with their counts.
func (f *OccasionFlowImpl) ExportExcel(ctx context.Context) (string, []byte, error) {
	rows, err := f.occasionRepo.ByFilter(ctx, models.OccasionFilter{}, "created_at ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_OCCASIONS_FAILED", "Failed to fetch occasions", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	header := []string{"id", "name", "description", "generated_count", "furnished_count", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for i, occasion := range rows {
		generated, furnished, err := f.counts(ctx, occasion.ID)
		if err != nil {
			return "", nil, err
		}
		description := ""
		if occasion.Description != nil {
			description = *occasion.Description
		}
		record := []any{
			occasion.ID.String(),
			occasion.Name,
			description,
			generated,
			furnished,
			occasion.CreatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return "occasions.xlsx", buf.Bytes(), nil
}

// DownloadArchive zips the rendered PNG copies for an occasion, optionally
// restricted to one generation. Missing folders yield an empty archive, not
// an error; the codes still exist even when their renders failed.
func (f *OccasionFlowImpl) DownloadArchive(ctx context.Context, id uuid.UUID, generation *int) (string, []byte, error) {
	occasion, err := f.occasionRepo.ByID(ctx, id)
	if err != nil {
		return "", nil, NewBusinessError("OCCASION_LOOKUP_FAILED", "Failed to lookup occasion", err)
	}
	if occasion == nil {
		return "", nil, ErrOccasionNotFound
	}

	root := filepath.Join(f.qrConfig.ImageRoot, id.String())
	if generation != nil {
		root = filepath.Join(root, fmt.Sprintf("gen_%d", *generation))
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".png") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(entry, file)
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		return "", nil, NewBusinessError("ARCHIVE_BUILD_FAILED", "Failed to build qr archive", walkErr)
	}
	if err := zw.Close(); err != nil {
		return "", nil, NewBusinessError("ARCHIVE_BUILD_FAILED", "Failed to finalize qr archive", err)
	}

	filename := fmt.Sprintf("occasion_%s.zip", id)
	if generation != nil {
		filename = fmt.Sprintf("occasion_%s_gen_%d.zip", id, *generation)
	}
	return filename, buf.Bytes(), nil
}

func (f *OccasionFlowImpl) counts(ctx context.Context, id uuid.UUID) (int64, int64, error) {
	generated, err := f.qrRepo.Count(ctx, models.QrCodeFilter{OccasionID: &id})
	if err != nil {
		return 0, 0, NewBusinessError("OCCASION_COUNTS_FAILED", "Failed to count occasion codes", err)
	}
	furnished, err := f.qrRepo.Count(ctx, models.QrCodeFilter{OccasionID: &id, HasObject: utils.ToPtr(true)})
	if err != nil {
		return 0, 0, NewBusinessError("OCCASION_COUNTS_FAILED", "Failed to count furnished codes", err)
	}
	return generated, furnished, nil
}

func (f *OccasionFlowImpl) format(ctx context.Context, occasion *models.Occasion) (*dto.OccasionResponse, error) {
	generated, furnished, err := f.counts(ctx, occasion.ID)
	if err != nil {
		return nil, err
	}
	return &dto.OccasionResponse{
		ID:             occasion.ID.String(),
		Name:           occasion.Name,
		Description:    occasion.Description,
		GeneratedCount: generated,
		FurnishedCount: furnished,
		CreatedAt:      occasion.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
