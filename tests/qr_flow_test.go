package tests

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/app/services"
	businessflow "github.com/skanfy/qr-backend/business_flow"
	"github.com/skanfy/qr-backend/config"
	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
	testingutil "github.com/skanfy/qr-backend/testing"
	"github.com/skanfy/qr-backend/utils"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{Enabled: false}
}

func testQRConfig(imageRoot string) *config.QRConfig {
	return &config.QRConfig{
		PublicBaseURL: "https://skanfy.com/qr",
		ImageSize:     300,
		ImageRoot:     imageRoot,
		MaxBatchSize:  100,
	}
}

func userPrincipal(id uint) *businessflow.Principal {
	return &businessflow.Principal{Kind: businessflow.PrincipalUser, ID: id}
}

func adminPrincipal(id uint) *businessflow.Principal {
	return &businessflow.Principal{Kind: businessflow.PrincipalAdmin, ID: id}
}

func TestQrScanFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		flow := businessflow.NewQrScanFlow(qrRepo, nil, testCacheConfig())
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("AnonymousScan", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			resp, err := flow.ScanByID(ctx, code.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, code.ID.String(), resp.Qr.ID)
			assert.False(t, resp.Owner)
			assert.False(t, resp.HasOwner)
			assert.False(t, resp.Info)
			require.NotNil(t, resp.Occasion)
			assert.Equal(t, occasion.Name, resp.Occasion.Name)
		})

		t.Run("OwnerScan", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			resp, err := flow.ScanByID(ctx, code.ID, userPrincipal(user.ID))
			require.NoError(t, err)
			assert.True(t, resp.Owner)
			assert.True(t, resp.HasOwner)
			assert.True(t, resp.Info)
			require.NotNil(t, resp.Objet)
			assert.Equal(t, object.Name, resp.Objet.Name)
			require.NotNil(t, resp.User)
			assert.Equal(t, user.Email, resp.User.Email)
		})

		t.Run("StrangerScan", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			resp, err := flow.ScanByID(ctx, code.ID, userPrincipal(stranger.ID))
			require.NoError(t, err)
			assert.False(t, resp.Owner)
			assert.True(t, resp.HasOwner)
		})

		t.Run("ScanDoesNotMutate", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = flow.ScanByID(ctx, code.ID, userPrincipal(user.ID))
			require.NoError(t, err)

			after, err := qrRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.False(t, after.IsActive)
			assert.Nil(t, after.UserID)
			assert.Nil(t, after.ObjectID)
		})

		t.Run("ScanByLink", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			resp, err := flow.ScanByLink(ctx, code.Link, nil)
			require.NoError(t, err)
			assert.Equal(t, code.ID.String(), resp.Qr.ID)
		})

		t.Run("NotFound", func(t *testing.T) {
			_, err := flow.ScanByID(ctx, uuid.New(), nil)
			assert.True(t, businessflow.IsQrNotFound(err))

			_, err = flow.ScanByLink(ctx, "https://skanfy.com/qr/not-a-uuid", nil)
			assert.True(t, businessflow.IsQrNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestObjectFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		objectRepo := repository.NewObjectRepository(testDB.DB)
		userRepo := repository.NewUserRepository(testDB.DB)
		imageHost := services.NewMockImageHost()
		flow := businessflow.NewObjectFlow(qrRepo, objectRepo, userRepo, imageHost, nil, testCacheConfig(), testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("AttachClaimsCode", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			req := &dto.AttachObjectRequest{
				Name:        "Backpack",
				Description: utils.ToPtr("Black hiking backpack"),
			}
			resp, err := flow.Attach(ctx, code.ID, req, userPrincipal(user.ID))
			require.NoError(t, err)
			assert.True(t, resp.Owner)
			assert.True(t, resp.HasOwner)
			assert.True(t, resp.Info)
			assert.True(t, resp.Qr.IsActive)
			require.NotNil(t, resp.Objet)
			assert.Equal(t, "Backpack", resp.Objet.Name)
		})

		t.Run("AttachConflict", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Umbrella"}, userPrincipal(other.ID))
			assert.True(t, businessflow.IsObjectAlreadyAttached(err))
		})

		t.Run("AttachConflictLeavesNoOrphanObject", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, firstObject, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Umbrella"}, userPrincipal(other.ID))
			require.Error(t, err)

			// Only the original object row may exist; the losing claim's row
			// must have been rolled back with the transaction.
			objects, err := objectRepo.ByFilter(ctx, models.ObjectFilter{}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, objects, 1)
			assert.Equal(t, firstObject.ID, objects[0].ID)
		})

		t.Run("AttachRequiresActiveUser", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			inactive, err := fixtures.CreateInactiveTestUser()
			require.NoError(t, err)

			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Wallet"}, userPrincipal(inactive.ID))
			assert.True(t, businessflow.IsUserInactive(err))

			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Wallet"}, userPrincipal(999999))
			assert.True(t, businessflow.IsUserNotFound(err))

			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Wallet"}, nil)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("AttachRejectsBlankName", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			_, err = flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "   "}, userPrincipal(user.ID))
			assert.True(t, businessflow.IsObjectNameRequired(err))
		})

		t.Run("ConcurrentAttachOneWinner", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			const racers = 5
			users := make([]uint, racers)
			for i := 0; i < racers; i++ {
				user, err := fixtures.CreateTestUser()
				require.NoError(t, err)
				users[i] = user.ID
			}

			var wg sync.WaitGroup
			errs := make([]error, racers)
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					req := &dto.AttachObjectRequest{Name: fmt.Sprintf("Racer %d", idx)}
					_, errs[idx] = flow.Attach(ctx, code.ID, req, userPrincipal(users[idx]))
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, attachErr := range errs {
				if attachErr == nil {
					winners++
				} else {
					assert.True(t, businessflow.IsObjectAlreadyAttached(attachErr))
				}
			}
			assert.Equal(t, 1, winners)
		})

		t.Run("UpdateObject", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			req := &dto.UpdateObjectRequest{Name: utils.ToPtr("Renamed Object")}
			resp, err := flow.Update(ctx, code.ID, req, userPrincipal(user.ID))
			require.NoError(t, err)
			assert.Equal(t, "Renamed Object", resp.Name)
		})

		t.Run("UpdateRequiresOwnership", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			req := &dto.UpdateObjectRequest{Name: utils.ToPtr("Hijacked")}
			_, err = flow.Update(ctx, code.ID, req, userPrincipal(stranger.ID))
			assert.True(t, businessflow.IsNotQrOwner(err))
		})

		t.Run("DetachKeepsOwnership", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			require.NoError(t, flow.Detach(ctx, code.ID, userPrincipal(user.ID)))

			detached, err := qrRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Nil(t, detached.ObjectID)
			require.NotNil(t, detached.UserID)
			assert.Equal(t, user.ID, *detached.UserID)

			gone, err := objectRepo.ByID(ctx, object.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("DetachThenAttachAgain", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			require.NoError(t, flow.Detach(ctx, code.ID, userPrincipal(user.ID)))

			resp, err := flow.Attach(ctx, code.ID, &dto.AttachObjectRequest{Name: "Second Object"}, userPrincipal(user.ID))
			require.NoError(t, err)
			assert.Equal(t, "Second Object", resp.Objet.Name)
		})

		t.Run("InfoRequiresAttachedObject", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			require.NoError(t, flow.Detach(ctx, code.ID, userPrincipal(user.ID)))

			_, err = flow.Info(ctx, code.ID, userPrincipal(user.ID))
			assert.True(t, businessflow.IsObjectNotAttached(err))
		})

		t.Run("ListMine", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			_, _, err = fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)
			_, _, err = fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)
			_, _, err = fixtures.CreateClaimedTestQr(occasion.ID, other.ID)
			require.NoError(t, err)

			resp, err := flow.ListMine(ctx, userPrincipal(user.ID))
			require.NoError(t, err)
			assert.Equal(t, 2, resp.Total)
			assert.Len(t, resp.Items, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQrResetFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		objectRepo := repository.NewObjectRepository(testDB.DB)
		flow := businessflow.NewQrResetFlow(qrRepo, objectRepo, nil, testCacheConfig(), testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("OwnerResets", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			require.NoError(t, flow.Reset(ctx, code.ID, userPrincipal(user.ID)))

			reset, err := qrRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.False(t, reset.IsActive)
			assert.Nil(t, reset.UserID)
			assert.Nil(t, reset.ObjectID)
			require.NotNil(t, reset.OccasionID)
			assert.Equal(t, occasion.ID, *reset.OccasionID)

			gone, err := objectRepo.ByID(ctx, object.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("AdminResetsAnyCode", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			require.NoError(t, flow.Reset(ctx, code.ID, adminPrincipal(admin.ID)))
		})

		t.Run("StrangerCannotReset", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			err = flow.Reset(ctx, code.ID, userPrincipal(stranger.ID))
			assert.True(t, businessflow.IsNotQrOwner(err))

			err = flow.Reset(ctx, code.ID, nil)
			assert.True(t, businessflow.IsNotQrOwner(err))
		})

		t.Run("NotFound", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			err = flow.Reset(ctx, uuid.New(), adminPrincipal(admin.ID))
			assert.True(t, businessflow.IsQrNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQrBatchFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		occasionRepo := repository.NewOccasionRepository(testDB.DB)
		batchRepo := repository.NewBatchRecordRepository(testDB.DB)
		adminRepo := repository.NewAdminRepository(testDB.DB)
		renderer := services.NewMockQrRenderer()
		qrConfig := testQRConfig(t.TempDir())
		flow := businessflow.NewQrBatchFlow(qrRepo, occasionRepo, batchRepo, adminRepo, renderer, qrConfig, testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		t.Run("CreateBatch", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			req := &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 5}
			resp, err := flow.CreateBatch(ctx, req, adminPrincipal(admin.ID), metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Generation)
			assert.Equal(t, 5, resp.Count)
			require.Len(t, resp.Codes, 5)

			seen := make(map[string]bool)
			for _, item := range resp.Codes {
				assert.Equal(t, 1, item.Generation)
				assert.True(t, item.Rendered)
				assert.Nil(t, item.RenderError)
				assert.Contains(t, item.Link, item.ID)
				assert.False(t, seen[item.ID])
				seen[item.ID] = true
			}

			records, err := batchRepo.ListByAdmin(ctx, admin.ID, 10, 0)
			require.NoError(t, err)
			assert.Len(t, records, 5)
		})

		t.Run("GenerationIncrementsPerOccasion", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			otherOccasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			first, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 2}, adminPrincipal(admin.ID), metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, first.Generation)

			second, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 2}, adminPrincipal(admin.ID), metadata)
			require.NoError(t, err)
			assert.Equal(t, 2, second.Generation)

			// Generation numbering is per occasion, not global.
			other, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: otherOccasion.ID.String(), Count: 2}, adminPrincipal(admin.ID), metadata)
			require.NoError(t, err)
			assert.Equal(t, 1, other.Generation)
		})

		t.Run("RenderFailureDoesNotFailBatch", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			renderer.FailSVG = true
			defer func() { renderer.FailSVG = false }()

			resp, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 3}, adminPrincipal(admin.ID), metadata)
			require.NoError(t, err)
			require.Len(t, resp.Codes, 3)
			for _, item := range resp.Codes {
				assert.False(t, item.Rendered)
				require.NotNil(t, item.RenderError)
			}

			// The rows were committed regardless of the render outcome.
			count, err := qrRepo.Count(ctx, models.QrCodeFilter{OccasionID: &occasion.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("CountOutOfRange", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			_, err = flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 0}, adminPrincipal(admin.ID), metadata)
			assert.True(t, businessflow.IsBatchCountOutOfRange(err))

			_, err = flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: qrConfig.MaxBatchSize + 1}, adminPrincipal(admin.ID), metadata)
			assert.True(t, businessflow.IsBatchCountOutOfRange(err))
		})

		t.Run("OccasionNotFound", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			_, err = flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: uuid.NewString(), Count: 1}, adminPrincipal(admin.ID), metadata)
			assert.True(t, businessflow.IsOccasionNotFound(err))
		})

		t.Run("RequiresExistingAdmin", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			_, err = flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 1}, userPrincipal(user.ID), metadata)
			assert.True(t, businessflow.IsAdminNotFound(err))

			_, err = flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasion.ID.String(), Count: 1}, adminPrincipal(999999), metadata)
			assert.True(t, businessflow.IsAdminNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

// gatedRenderer blocks the first SVG render until released, so tests can
// observe what else makes progress while a render is in flight.
type gatedRenderer struct {
	started chan struct{}
	release chan struct{}
	first   int32
}

func (r *gatedRenderer) RenderSVG(ctx context.Context, content string) (string, error) {
	if atomic.CompareAndSwapInt32(&r.first, 0, 1) {
		close(r.started)
		<-r.release
	}
	return base64.StdEncoding.EncodeToString([]byte("<svg/>")), nil
}

func (r *gatedRenderer) RenderPNG(ctx context.Context, content string, size int) ([]byte, error) {
	return []byte("png"), nil
}

func TestQrBatchFlowRenderDoesNotBlockOtherBatches(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		occasionRepo := repository.NewOccasionRepository(testDB.DB)
		batchRepo := repository.NewBatchRecordRepository(testDB.DB)
		adminRepo := repository.NewAdminRepository(testDB.DB)
		renderer := &gatedRenderer{started: make(chan struct{}), release: make(chan struct{})}
		flow := businessflow.NewQrBatchFlow(qrRepo, occasionRepo, batchRepo, adminRepo, renderer, testQRConfig(t.TempDir()), testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

		admin, err := fixtures.CreateTestAdmin()
		require.NoError(t, err)
		occasionA, err := fixtures.CreateTestOccasion()
		require.NoError(t, err)
		occasionB, err := fixtures.CreateTestOccasion()
		require.NoError(t, err)

		firstDone := make(chan error, 1)
		go func() {
			_, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasionA.ID.String(), Count: 1}, adminPrincipal(admin.ID), metadata)
			firstDone <- err
		}()

		// Wait until the first batch is committed and stuck in its render pass.
		select {
		case <-renderer.started:
		case <-time.After(10 * time.Second):
			t.Fatal("first batch never reached the render pass")
		}

		// A second batch must allocate its generation and commit while the
		// first is still rendering.
		secondDone := make(chan error, 1)
		go func() {
			resp, err := flow.CreateBatch(ctx, &dto.CreateBatchRequest{OccasionID: occasionB.ID.String(), Count: 1}, adminPrincipal(admin.ID), metadata)
			if err == nil {
				assert.Equal(t, 1, resp.Generation)
			}
			secondDone <- err
		}()
		select {
		case err := <-secondDone:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("second batch blocked behind the first batch's render pass")
		}

		close(renderer.release)
		require.NoError(t, <-firstDone)

		return nil
	})
	require.NoError(t, err)
}

func TestQrAdminFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		flow := businessflow.NewQrAdminFlow(qrRepo)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ListQrs", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			for i := 0; i < 3; i++ {
				_, err := fixtures.CreateTestQr(occasion.ID, 1)
				require.NoError(t, err)
			}

			resp, err := flow.ListQrs(ctx, 1, 2)
			require.NoError(t, err)
			assert.Equal(t, 3, resp.Total)
			assert.Len(t, resp.Items, 2)
		})

		t.Run("InvalidPagination", func(t *testing.T) {
			_, err := flow.ListQrs(ctx, 0, 10)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = flow.ListQrs(ctx, 1, 0)
			assert.True(t, businessflow.IsInvalidPageSize(err))

			_, err = flow.ListQrs(ctx, 1, 101)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("SearchByOccasion", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			_, err = fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			resp, err := flow.SearchByOccasion(ctx, "Wedding")
			require.NoError(t, err)
			assert.Equal(t, 1, resp.Total)

			_, err = flow.SearchByOccasion(ctx, "  ")
			assert.True(t, businessflow.IsOccasionNameRequired(err))
		})

		return nil
	})
	require.NoError(t, err)
}
