// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/repository"
	testingutil "github.com/skanfy/qr-backend/testing"
	"github.com/skanfy/qr-backend/utils"
)

func TestQrCodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQrCodeRepository(testDB.DB)
		objectRepo := repository.NewObjectRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByID", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			original, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			code, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, code)
			assert.Equal(t, original.ID, code.ID)
			assert.Equal(t, original.Link, code.Link)
			assert.False(t, code.IsActive)
			assert.Nil(t, code.UserID)
			assert.Nil(t, code.ObjectID)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			code, err := repo.ByID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, code)
		})

		t.Run("ByLink", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			original, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			code, err := repo.ByLink(ctx, original.Link)
			require.NoError(t, err)
			require.NotNil(t, code)
			assert.Equal(t, original.ID, code.ID)
		})

		t.Run("ByIDWithRelations", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			original, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			code, err := repo.ByIDWithRelations(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, code)
			require.NotNil(t, code.Occasion)
			require.NotNil(t, code.Object)
			require.NotNil(t, code.User)
			assert.Equal(t, occasion.Name, code.Occasion.Name)
			assert.Equal(t, object.Name, code.Object.Name)
			assert.Equal(t, user.ID, code.User.ID)
		})

		t.Run("AttachObject", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			object, err := fixtures.CreateTestObject()
			require.NoError(t, err)

			rows, err := repo.AttachObject(ctx, code.ID, object.ID, user.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), rows)

			claimed, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			require.NotNil(t, claimed)
			assert.True(t, claimed.IsActive)
			require.NotNil(t, claimed.UserID)
			assert.Equal(t, user.ID, *claimed.UserID)
			require.NotNil(t, claimed.ObjectID)
			assert.Equal(t, object.ID, *claimed.ObjectID)
		})

		t.Run("AttachObjectAlreadyClaimed", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			otherUser, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			otherObject, err := fixtures.CreateTestObject()
			require.NoError(t, err)

			// The conditional update must not touch a furnished code.
			rows, err := repo.AttachObject(ctx, code.ID, otherObject.ID, otherUser.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), rows)

			current, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			require.NotNil(t, current.UserID)
			assert.Equal(t, user.ID, *current.UserID)
		})

		t.Run("DetachObject", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			rows, err := repo.DetachObject(ctx, code.ID, object.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), rows)

			detached, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Nil(t, detached.ObjectID)
			// Ownership survives a detach.
			require.NotNil(t, detached.UserID)
			assert.Equal(t, user.ID, *detached.UserID)
		})

		t.Run("DetachObjectWrongObject", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, _, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			rows, err := repo.DetachObject(ctx, code.ID, uuid.New())
			require.NoError(t, err)
			assert.Equal(t, int64(0), rows)
		})

		t.Run("Reset", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			// Delete the object first so the FK does not block the reset.
			require.NoError(t, objectRepo.Delete(ctx, object.ID))

			rows, err := repo.Reset(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), rows)

			reset, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.False(t, reset.IsActive)
			assert.Nil(t, reset.UserID)
			assert.Nil(t, reset.ObjectID)
			// The occasion reference is preserved across a reset.
			require.NotNil(t, reset.OccasionID)
			assert.Equal(t, occasion.ID, *reset.OccasionID)
		})

		t.Run("UpdateRendered", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			require.NoError(t, repo.UpdateRendered(ctx, code.ID, "c3ZnLWJvZHk="))

			rendered, err := repo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Equal(t, "c3ZnLWJvZHk=", rendered.Image)
		})

		t.Run("MaxGeneration", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			max, err := repo.MaxGeneration(ctx, occasion.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, max)

			_, err = fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			_, err = fixtures.CreateTestQr(occasion.ID, 3)
			require.NoError(t, err)

			max, err = repo.MaxGeneration(ctx, occasion.ID)
			require.NoError(t, err)
			assert.Equal(t, 3, max)
		})

		t.Run("GenerationHistory", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				_, err := fixtures.CreateTestQr(occasion.ID, 1)
				require.NoError(t, err)
			}
			_, err = fixtures.CreateTestQr(occasion.ID, 2)
			require.NoError(t, err)

			history, err := repo.GenerationHistory(ctx)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, occasion.ID, history[0].OccasionID)
			assert.Equal(t, 1, history[0].Generation)
			assert.Equal(t, int64(2), history[0].Count)
			assert.Equal(t, 2, history[1].Generation)
			assert.Equal(t, int64(1), history[1].Count)
		})

		t.Run("ByFilter", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			_, _, err = fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			furnished, err := repo.ByFilter(ctx, models.QrCodeFilter{HasObject: utils.ToPtr(true)}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, furnished, 1)

			unclaimed, err := repo.ByFilter(ctx, models.QrCodeFilter{HasObject: utils.ToPtr(false)}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, unclaimed, 1)

			mine, err := repo.ByFilter(ctx, models.QrCodeFilter{UserID: &user.ID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, mine, 1)

			count, err := repo.Count(ctx, models.QrCodeFilter{OccasionID: &occasion.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})

		t.Run("ListByOccasionName", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			_, err = fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			// Case-insensitive fragment match against the occasion name.
			rows, err := repo.ListByOccasionName(ctx, "wedding")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			require.NotNil(t, rows[0].Occasion)
			assert.Equal(t, occasion.Name, rows[0].Occasion.Name)

			rows, err = repo.ListByOccasionName(ctx, "no-such-occasion")
			require.NoError(t, err)
			assert.Len(t, rows, 0)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestOccasionRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewOccasionRepository(testDB.DB)
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByID", func(t *testing.T) {
			original, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			occasion, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, occasion)
			assert.Equal(t, original.Name, occasion.Name)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			occasion, err := repo.ByID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, occasion)
		})

		t.Run("Update", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			occasion.Name = "Renamed Occasion"
			occasion.UpdatedAt = utils.UTCNow()
			require.NoError(t, repo.Update(ctx, occasion))

			updated, err := repo.ByID(ctx, occasion.ID)
			require.NoError(t, err)
			assert.Equal(t, "Renamed Occasion", updated.Name)
		})

		t.Run("DeleteCascadesToCodes", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			code, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, occasion.ID))

			gone, err := repo.ByID(ctx, occasion.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)

			orphan, err := qrRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			assert.Nil(t, orphan)
		})

		t.Run("CountAndExists", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			count, err := repo.Count(ctx, models.OccasionFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			exists, err := repo.Exists(ctx, models.OccasionFilter{Name: &occasion.Name})
			require.NoError(t, err)
			assert.True(t, exists)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestObjectRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewObjectRepository(testDB.DB)
		qrRepo := repository.NewQrCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByID", func(t *testing.T) {
			original, err := fixtures.CreateTestObject()
			require.NoError(t, err)

			object, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, object)
			assert.Equal(t, original.Name, object.Name)
		})

		t.Run("Update", func(t *testing.T) {
			object, err := fixtures.CreateTestObject()
			require.NoError(t, err)

			object.Name = "Updated Keys"
			object.Description = utils.ToPtr("Now with a blue keyring")
			object.UpdatedAt = utils.UTCNow()
			require.NoError(t, repo.Update(ctx, object))

			updated, err := repo.ByID(ctx, object.ID)
			require.NoError(t, err)
			assert.Equal(t, "Updated Keys", updated.Name)
			require.NotNil(t, updated.Description)
			assert.Equal(t, "Now with a blue keyring", *updated.Description)
		})

		t.Run("Delete", func(t *testing.T) {
			object, err := fixtures.CreateTestObject()
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, object.ID))

			gone, err := repo.ByID(ctx, object.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("DeleteReferencedObjectNullsCodeRef", func(t *testing.T) {
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			code, object, err := fixtures.CreateClaimedTestQr(occasion.ID, user.ID)
			require.NoError(t, err)

			// Deleting an object a code still points at must not fail; the FK
			// nulls the code's reference and the code itself survives.
			require.NoError(t, repo.Delete(ctx, object.ID))

			survivor, err := qrRepo.ByID(ctx, code.ID)
			require.NoError(t, err)
			require.NotNil(t, survivor)
			assert.Nil(t, survivor.ObjectID)
			require.NotNil(t, survivor.UserID)
			assert.Equal(t, user.ID, *survivor.UserID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUserRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewUserRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			user, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, user)
			assert.Equal(t, original.Email, user.Email)
		})

		t.Run("ByEmail", func(t *testing.T) {
			original, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			user, err := repo.ByEmail(ctx, original.Email)
			require.NoError(t, err)
			require.NotNil(t, user)
			assert.Equal(t, original.ID, user.ID)
		})

		t.Run("ByEmailNotFound", func(t *testing.T) {
			user, err := repo.ByEmail(ctx, "nonexistent@example.com")
			assert.NoError(t, err)
			assert.Nil(t, user)
		})

		t.Run("FilterByActive", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			_, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = fixtures.CreateInactiveTestUser()
			require.NoError(t, err)

			active, err := repo.ByFilter(ctx, models.UserFilter{IsActive: utils.ToPtr(true)}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, active, 1)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAdminRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)

			admin, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, admin)
			assert.Equal(t, original.Email, admin.Email)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			admin, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, admin)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestBatchRecordRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewBatchRecordRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveBatchAndList", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			var qrID uuid.UUID
			for i := 0; i < 3; i++ {
				code, err := fixtures.CreateTestQr(occasion.ID, 1)
				require.NoError(t, err)
				record, err := fixtures.CreateTestBatchRecord(admin.ID, code.ID, 1)
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, record.ID)
				qrID = code.ID
			}

			records, err := repo.ListByAdmin(ctx, admin.ID, 10, 0)
			require.NoError(t, err)
			assert.Len(t, records, 3)

			byQr, err := repo.ByQrID(ctx, qrID)
			require.NoError(t, err)
			require.Len(t, byQr, 1)
			assert.Equal(t, admin.ID, byQr[0].AdminID)
			assert.Equal(t, 1, byQr[0].Generation)
		})

		t.Run("FilterByGeneration", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())

			admin, err := fixtures.CreateTestAdmin()
			require.NoError(t, err)
			occasion, err := fixtures.CreateTestOccasion()
			require.NoError(t, err)

			codeA, err := fixtures.CreateTestQr(occasion.ID, 1)
			require.NoError(t, err)
			codeB, err := fixtures.CreateTestQr(occasion.ID, 2)
			require.NoError(t, err)
			_, err = fixtures.CreateTestBatchRecord(admin.ID, codeA.ID, 1)
			require.NoError(t, err)
			_, err = fixtures.CreateTestBatchRecord(admin.ID, codeB.ID, 2)
			require.NoError(t, err)

			gen := 2
			records, err := repo.ByFilter(ctx, models.BatchRecordFilter{Generation: &gen}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, codeB.ID, records[0].QrID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTimestampsAreUTC(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		occasion, err := fixtures.CreateTestOccasion()
		require.NoError(t, err)

		assert.WithinDuration(t, time.Now().UTC(), occasion.CreatedAt, 5*time.Second)

		return nil
	})
	require.NoError(t, err)
}
