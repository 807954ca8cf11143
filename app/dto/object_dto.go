package dto

// AttachObjectRequest defines input for attaching an object to a code.
// Image is an optional base64-encoded payload uploaded to the image host.
type AttachObjectRequest struct {
	Name           string  `json:"name" validate:"required,min=1,max=255"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	AdditionalInfo *string `json:"additional_info,omitempty" validate:"omitempty,max=5000"`
	Image          *string `json:"image,omitempty" validate:"omitempty"`
}

// UpdateObjectRequest defines input for updating an attached object.
// All fields optional; at least one must be present.
type UpdateObjectRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	AdditionalInfo *string `json:"additional_info,omitempty" validate:"omitempty,max=5000"`
	Image          *string `json:"image,omitempty" validate:"omitempty"`
}

// ObjectResponse projects one object row
type ObjectResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// MyObjectItem pairs a furnished code with its object for the owner's listing
type MyObjectItem struct {
	QrID   string         `json:"qr_id"`
	Link   string         `json:"link"`
	Object ObjectResponse `json:"object"`
}

// ListMyObjectsResponse lists the caller's furnished codes
type ListMyObjectsResponse struct {
	Total int            `json:"total"`
	Items []MyObjectItem `json:"items"`
}
