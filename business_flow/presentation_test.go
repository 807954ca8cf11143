package businessflow

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skanfy/qr-backend/models"
	"github.com/skanfy/qr-backend/utils"
)

func sampleCode() *models.QrCode {
	id := uuid.New()
	return &models.QrCode{
		ID:         id,
		IsActive:   false,
		Generation: 2,
		Link:       "https://skanfy.com/qr/" + id.String(),
		CreatedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestFormatScanUnclaimedCode(t *testing.T) {
	code := sampleCode()

	resp := FormatScan(code, nil)

	assert.Equal(t, code.ID.String(), resp.Qr.ID)
	assert.Equal(t, code.Link, resp.Qr.Link)
	assert.Equal(t, 2, resp.Qr.Generation)
	assert.Equal(t, "2026-03-14T09:30:00Z", resp.Qr.CreatedAt)
	assert.False(t, resp.Owner)
	assert.False(t, resp.HasOwner)
	assert.False(t, resp.Info)
	assert.Nil(t, resp.User)
	assert.Nil(t, resp.Occasion)
	assert.Nil(t, resp.Objet)
}

func TestFormatScanClaimedCode(t *testing.T) {
	code := sampleCode()
	ownerID := uint(42)
	objectID := uuid.New()
	code.UserID = &ownerID
	code.ObjectID = &objectID
	code.IsActive = true
	code.User = &models.User{ID: ownerID, Name: "Owner", Email: "owner@example.com", Phone: "+33912345678"}
	code.Object = &models.Object{ID: objectID, Name: "Keys"}
	code.Occasion = &models.Occasion{ID: uuid.New(), Name: "Wedding"}

	t.Run("OwnerSeesOwnerFlag", func(t *testing.T) {
		resp := FormatScan(code, &Principal{Kind: PrincipalUser, ID: ownerID})
		assert.True(t, resp.Owner)
		assert.True(t, resp.HasOwner)
		assert.True(t, resp.Info)
		require.NotNil(t, resp.User)
		assert.Equal(t, "owner@example.com", resp.User.Email)
		require.NotNil(t, resp.Objet)
		assert.Equal(t, "Keys", resp.Objet.Name)
		require.NotNil(t, resp.Occasion)
		assert.Equal(t, "Wedding", resp.Occasion.Name)
	})

	t.Run("StrangerDoesNot", func(t *testing.T) {
		resp := FormatScan(code, &Principal{Kind: PrincipalUser, ID: 7})
		assert.False(t, resp.Owner)
		assert.True(t, resp.HasOwner)
	})

	t.Run("AdminIsNeverOwner", func(t *testing.T) {
		resp := FormatScan(code, &Principal{Kind: PrincipalAdmin, ID: ownerID})
		assert.False(t, resp.Owner)
	})

	t.Run("AnonymousCaller", func(t *testing.T) {
		resp := FormatScan(code, nil)
		assert.False(t, resp.Owner)
		assert.True(t, resp.HasOwner)
	})
}

func TestFormatScanDetachedCode(t *testing.T) {
	// Detached but still owned: HasOwner true, Info false.
	code := sampleCode()
	ownerID := uint(9)
	code.UserID = &ownerID

	resp := FormatScan(code, nil)
	assert.True(t, resp.HasOwner)
	assert.False(t, resp.Info)
}

func TestFormatObject(t *testing.T) {
	object := &models.Object{
		ID:          uuid.New(),
		Name:        "Suitcase",
		Description: utils.ToPtr("Blue hardshell"),
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	resp := FormatObject(object)
	assert.Equal(t, object.ID.String(), resp.ID)
	assert.Equal(t, "Suitcase", resp.Name)
	require.NotNil(t, resp.Description)
	assert.Equal(t, "Blue hardshell", *resp.Description)
	assert.Equal(t, "2026-01-02T03:04:05Z", resp.CreatedAt)
}

func TestExtractCodeID(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name  string
		link  string
		valid bool
	}{
		{"FullURL", "https://skanfy.com/qr/" + id.String(), true},
		{"TrailingSlash", "https://skanfy.com/qr/" + id.String() + "/", true},
		{"BareUUID", id.String(), true},
		{"SurroundingWhitespace", "  https://skanfy.com/qr/" + id.String() + "  ", true},
		{"NotAUUID", "https://skanfy.com/qr/not-a-uuid", false},
		{"Empty", "", false},
		{"URLWithoutID", "https://skanfy.com/qr/", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractCodeID(tc.link)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, id, got)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
