package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// QR platform constants
const (
	// MaxQrBatchSize caps the number of codes one batch request may create
	MaxQrBatchSize = 100

	// DefaultQrImageSize is the rendered image edge length in pixels
	DefaultQrImageSize = 300

	// ScanCacheTTL bounds how long a scan projection stays cached
	ScanCacheTTL = 5 * time.Minute

	// ScanCacheKeyPrefix is the redis key prefix for cached scan projections
	ScanCacheKeyPrefix = "qr:scan:"

	// MaxObjectImageBytes caps the decoded size of an inline object image (8 MB)
	MaxObjectImageBytes = 8 << 20
)
