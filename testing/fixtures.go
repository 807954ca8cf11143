// Package testing provides test utilities and database setup for testing the QR platform
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		Name:     "John Doe",
		Email:    fmt.Sprintf("john.doe.%s@example.com", randomDigits),
		Phone:    fmt.Sprintf("+339%s", randomDigits),
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateInactiveTestUser creates a deactivated user
func (tf *TestFixtures) CreateInactiveTestUser() (*models.User, error) {
	user, err := tf.CreateTestUser()
	if err != nil {
		return nil, err
	}
	user.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test user: %w", err)
	}
	return user, nil
}

// CreateTestAdmin creates an active admin
func (tf *TestFixtures) CreateTestAdmin() (*models.Admin, error) {
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	admin := &models.Admin{
		Name:     "Jane Operator",
		Email:    fmt.Sprintf("jane.operator.%s@example.com", randomDigits),
		IsActive: utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTestOccasion creates an occasion with a unique name
func (tf *TestFixtures) CreateTestOccasion() (*models.Occasion, error) {
	description := "Occasion created by the test fixtures"

	occasion := &models.Occasion{
		ID:          uuid.New(),
		Name:        fmt.Sprintf("Wedding %d", rand.Intn(10000000)),
		Description: &description,
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(occasion).Error; err != nil {
		return nil, fmt.Errorf("failed to create test occasion: %w", err)
	}
	return occasion, nil
}

// CreateTestQr creates an unclaimed qr code under the given occasion
func (tf *TestFixtures) CreateTestQr(occasionID uuid.UUID, generation int) (*models.QrCode, error) {
	id := uuid.New()

	code := &models.QrCode{
		ID:         id,
		IsActive:   false,
		Generation: generation,
		Link:       fmt.Sprintf("https://skanfy.com/qr/%s", id),
		OccasionID: &occasionID,
		CreatedAt:  utils.UTCNow(),
		UpdatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(code).Error; err != nil {
		return nil, fmt.Errorf("failed to create test qr code: %w", err)
	}
	return code, nil
}

// CreateClaimedTestQr creates a qr code already claimed by a user with an
// attached object.
func (tf *TestFixtures) CreateClaimedTestQr(occasionID uuid.UUID, userID uint) (*models.QrCode, *models.Object, error) {
	object, err := tf.CreateTestObject()
	if err != nil {
		return nil, nil, err
	}

	id := uuid.New()
	code := &models.QrCode{
		ID:         id,
		IsActive:   true,
		Generation: 1,
		Link:       fmt.Sprintf("https://skanfy.com/qr/%s", id),
		OccasionID: &occasionID,
		ObjectID:   &object.ID,
		UserID:     &userID,
		CreatedAt:  utils.UTCNow(),
		UpdatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(code).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create claimed test qr code: %w", err)
	}
	return code, object, nil
}

// CreateTestObject creates a standalone object row
func (tf *TestFixtures) CreateTestObject() (*models.Object, error) {
	description := "A pair of keys with a red keyring"

	object := &models.Object{
		ID:          uuid.New(),
		Name:        fmt.Sprintf("Keys %d", rand.Intn(10000000)),
		Description: &description,
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(object).Error; err != nil {
		return nil, fmt.Errorf("failed to create test object: %w", err)
	}
	return object, nil
}

// CreateTestBatchRecord records batch provenance for a qr code
func (tf *TestFixtures) CreateTestBatchRecord(adminID uint, qrID uuid.UUID, generation int) (*models.BatchRecord, error) {
	record := &models.BatchRecord{
		ID:         uuid.New(),
		AdminID:    adminID,
		QrID:       qrID,
		Generation: generation,
		CreatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create test batch record: %w", err)
	}
	return record, nil
}
