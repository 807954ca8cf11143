package dto

// CreateOccasionRequest defines input for creating an occasion
type CreateOccasionRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

// UpdateOccasionRequest defines input for updating an occasion
type UpdateOccasionRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
}

// OccasionResponse projects one occasion with its aggregate counts.
// FurnishedCount is the number of codes with an attached object.
type OccasionResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	GeneratedCount int64   `json:"generated_count"`
	FurnishedCount int64   `json:"furnished_count"`
	CreatedAt      string  `json:"created_at"`
}

// ListOccasionsResponse wraps an occasion listing
type ListOccasionsResponse struct {
	Total int                `json:"total"`
	Items []OccasionResponse `json:"items"`
}

// GenerationGroup is one generation batch in the occasion history view
type GenerationGroup struct {
	Generation  int    `json:"generation"`
	Count       int64  `json:"count"`
	DownloadURL string `json:"download_url"`
}

// OccasionHistoryItem groups an occasion's codes by generation
type OccasionHistoryItem struct {
	OccasionID   string            `json:"occasion_id"`
	OccasionName string            `json:"occasion_name"`
	Generations  []GenerationGroup `json:"generations"`
}

// OccasionHistoryResponse lists occasions having at least one code
type OccasionHistoryResponse struct {
	Items []OccasionHistoryItem `json:"items"`
}
