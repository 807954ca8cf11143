package businessflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/repository"
	"github.com/skanfy/qr-backend/utils"
)

// QrScanFlow is the read path invoked when any client presents a code id or
// its canonical link. Scans are strictly read-only: they never claim,
// activate, or otherwise mutate the code. The caller's identity is optional
// context, used only to compute the Owner boolean of the projection.
type QrScanFlow interface {
	ScanByID(ctx context.Context, id uuid.UUID, caller *Principal) (*dto.ScanResponse, error)
	ScanByLink(ctx context.Context, link string, caller *Principal) (*dto.ScanResponse, error)
}

// scanProjection is the cached, caller-independent part of a scan. The Owner
// boolean depends on who asks, so the owning user id is stored alongside and
// Owner is recomputed per caller.
type scanProjection struct {
	Response dto.ScanResponse `json:"response"`
	OwnerID  *uint            `json:"owner_id,omitempty"`
}

type QrScanFlowImpl struct {
	qrRepo      repository.QrCodeRepository
	rc          *redis.Client
	cacheConfig *config.CacheConfig
}

func NewQrScanFlow(qrRepo repository.QrCodeRepository, rc *redis.Client, cacheConfig *config.CacheConfig) QrScanFlow {
	return &QrScanFlowImpl{qrRepo: qrRepo, rc: rc, cacheConfig: cacheConfig}
}

func (f *QrScanFlowImpl) ScanByID(ctx context.Context, id uuid.UUID, caller *Principal) (*dto.ScanResponse, error) {
	if cached := f.fromCache(ctx, id); cached != nil {
		return personalize(cached, caller), nil
	}

	code, err := f.qrRepo.ByIDWithRelations(ctx, id)
	if err != nil {
		return nil, NewBusinessError("QR_LOOKUP_FAILED", "Failed to lookup qr code", err)
	}
	if code == nil {
		return nil, ErrQrNotFound
	}

	proj := &scanProjection{
		Response: *FormatScan(code, nil),
		OwnerID:  code.UserID,
	}
	f.toCache(ctx, id, proj)

	return personalize(proj, caller), nil
}

func (f *QrScanFlowImpl) ScanByLink(ctx context.Context, link string, caller *Principal) (*dto.ScanResponse, error) {
	id, err := ExtractCodeID(link)
	if err != nil {
		return nil, ErrQrNotFound
	}
	return f.ScanByID(ctx, id, caller)
}

// ExtractCodeID pulls the code id out of a canonical link. Full URLs are
// accepted; the trailing path segment must be the code's UUID.
func ExtractCodeID(link string) (uuid.UUID, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(link), "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return uuid.Parse(trimmed)
}

func personalize(proj *scanProjection, caller *Principal) *dto.ScanResponse {
	resp := proj.Response
	resp.Owner = caller.IsUser() && proj.OwnerID != nil && *proj.OwnerID == caller.ID
	return &resp
}

func (f *QrScanFlowImpl) fromCache(ctx context.Context, id uuid.UUID) *scanProjection {
	if f.rc == nil {
		return nil
	}
	bs, err := f.rc.Get(ctx, scanCacheKey(f.cacheConfig, id)).Bytes()
	if err != nil || len(bs) == 0 {
		return nil
	}
	var proj scanProjection
	if err := json.Unmarshal(bs, &proj); err != nil {
		return nil
	}
	return &proj
}

func (f *QrScanFlowImpl) toCache(ctx context.Context, id uuid.UUID, proj *scanProjection) {
	if f.rc == nil {
		return
	}
	if bs, err := json.Marshal(proj); err == nil {
		_ = f.rc.Set(ctx, scanCacheKey(f.cacheConfig, id), bs, utils.ScanCacheTTL).Err()
	}
}

func scanCacheKey(cfg *config.CacheConfig, id uuid.UUID) string {
	prefix := ""
	if cfg != nil {
		prefix = cfg.RedisPrefix
	}
	return prefix + utils.ScanCacheKeyPrefix + id.String()
}

// InvalidateScanCache drops the cached projection for a code. Called by the
// write flows after attach, detach, and reset.
func InvalidateScanCache(ctx context.Context, rc *redis.Client, cfg *config.CacheConfig, id uuid.UUID) {
	if rc == nil {
		return
	}
	_ = rc.Del(ctx, scanCacheKey(cfg, id)).Err()
}
