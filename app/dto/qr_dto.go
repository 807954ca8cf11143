package dto

// ScanByLinkRequest resolves a code from its canonical link. A full URL is
// accepted; the trailing path segment is the code id.
type ScanByLinkRequest struct {
	Link string `json:"link" validate:"required,max=2048"`
}

// CreateBatchRequest defines input for admin batch generation
type CreateBatchRequest struct {
	OccasionID string `json:"occasion_id" validate:"required,uuid4"`
	Count      int    `json:"count" validate:"required,min=1,max=100"`
}

// QrOwnerDTO is the projection of the owning user on a scanned code
type QrOwnerDTO struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	OtherPhone   *string `json:"other_phone,omitempty"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// QrOccasionDTO is the projection of the occasion on a scanned code
type QrOccasionDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// QrObjectDTO is the projection of the attached object on a scanned code
type QrObjectDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	AdditionalInfo *string `json:"additional_info,omitempty"`
	ImageURL       *string `json:"image_url,omitempty"`
}

// QrDTO is the bare code projection inside a scan response
type QrDTO struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	Image      string `json:"image,omitempty"`
	IsActive   bool   `json:"is_active"`
	Generation int    `json:"generation"`
	CreatedAt  string `json:"created_at"`
}

// ScanResponse is the single canonical projection returned by every scan
// and lookup path. Owner is true iff the caller owns the code; HasOwner is
// true iff anyone does; Info is true iff an object is attached.
type ScanResponse struct {
	Qr       QrDTO          `json:"qr"`
	Owner    bool           `json:"owner"`
	HasOwner bool           `json:"has_owner"`
	Info     bool           `json:"info"`
	User     *QrOwnerDTO    `json:"user,omitempty"`
	Occasion *QrOccasionDTO `json:"occasion,omitempty"`
	Objet    *QrObjectDTO   `json:"objet,omitempty"`
}

// BatchItemResult reports the outcome of one code in a generated batch.
// Render failures are per-item and non-fatal.
type BatchItemResult struct {
	ID          string  `json:"id"`
	Link        string  `json:"link"`
	Generation  int     `json:"generation"`
	Rendered    bool    `json:"rendered"`
	RenderError *string `json:"render_error,omitempty"`
}

// CreateBatchResponse returns the created codes plus per-item render outcomes
type CreateBatchResponse struct {
	OccasionID string            `json:"occasion_id"`
	Generation int               `json:"generation"`
	Count      int               `json:"count"`
	Codes      []BatchItemResult `json:"codes"`
}

// ListQrsResponse wraps an admin listing of formatted codes
type ListQrsResponse struct {
	Total int            `json:"total"`
	Items []ScanResponse `json:"items"`
}
