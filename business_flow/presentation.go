package businessflow

import (
	"time"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/models"
)

// FormatScan is the single canonical projection of a code and its joined
// entities. It never mutates and computes the derived booleans:
// Owner (caller is the claiming user), HasOwner (anyone claimed it),
// Info (an object is attached).
func FormatScan(code *models.QrCode, caller *Principal) *dto.ScanResponse {
	resp := &dto.ScanResponse{
		Qr: dto.QrDTO{
			ID:         code.ID.String(),
			Link:       code.Link,
			Image:      code.Image,
			IsActive:   code.IsActive,
			Generation: code.Generation,
			CreatedAt:  code.CreatedAt.UTC().Format(time.RFC3339),
		},
		HasOwner: code.UserID != nil,
		Info:     code.ObjectID != nil,
	}

	if caller.IsUser() && code.UserID != nil && *code.UserID == caller.ID {
		resp.Owner = true
	}

	if code.User != nil {
		resp.User = &dto.QrOwnerDTO{
			ID:           code.User.ID,
			Name:         code.User.Name,
			Email:        code.User.Email,
			Phone:        code.User.Phone,
			OtherPhone:   code.User.OtherPhone,
			ProfileImage: code.User.ProfileImage,
		}
	}

	if code.Occasion != nil {
		resp.Occasion = &dto.QrOccasionDTO{
			ID:          code.Occasion.ID.String(),
			Name:        code.Occasion.Name,
			Description: code.Occasion.Description,
		}
	}

	if code.Object != nil {
		resp.Objet = &dto.QrObjectDTO{
			ID:             code.Object.ID.String(),
			Name:           code.Object.Name,
			Description:    code.Object.Description,
			AdditionalInfo: code.Object.AdditionalInfo,
			ImageURL:       code.Object.ImageURL,
		}
	}

	return resp
}

// FormatObject projects one object row
func FormatObject(object *models.Object) *dto.ObjectResponse {
	return &dto.ObjectResponse{
		ID:             object.ID.String(),
		Name:           object.Name,
		Description:    object.Description,
		AdditionalInfo: object.AdditionalInfo,
		ImageURL:       object.ImageURL,
		CreatedAt:      object.CreatedAt.UTC().Format(time.RFC3339),
	}
}
