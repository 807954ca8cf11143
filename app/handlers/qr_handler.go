// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/skanfy/qr-backend/app/dto"
	"github.com/skanfy/qr-backend/app/middleware"
	businessflow "github.com/skanfy/qr-backend/business_flow"
	"github.com/skanfy/qr-backend/utils"
)

// QrHandlerInterface defines the contract for public qr code handlers
type QrHandlerInterface interface {
	Scan(c fiber.Ctx) error
	ScanByLink(c fiber.Ctx) error
	Reset(c fiber.Ctx) error
}

// QrHandler handles the public scan and reset endpoints
type QrHandler struct {
	scanFlow  businessflow.QrScanFlow
	resetFlow businessflow.QrResetFlow
	validator *validator.Validate
}

func (h *QrHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QrHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewQrHandler creates a new qr handler
func NewQrHandler(scanFlow businessflow.QrScanFlow, resetFlow businessflow.QrResetFlow) *QrHandler {
	return &QrHandler{
		scanFlow:  scanFlow,
		resetFlow: resetFlow,
		validator: validator.New(),
	}
}

// Scan resolves a qr code by id and returns its projection
// @Summary Scan QR Code
// @Description Resolve a qr code by id. Scanning never mutates the code; authentication is optional and only affects the owner flag.
// @Tags QR
// @Produce json
// @Param id path string true "QR code ID"
// @Success 200 {object} dto.APIResponse{data=dto.ScanResponse} "QR code resolved"
// @Failure 404 {object} dto.APIResponse "QR code not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id} [get]
func (h *QrHandler) Scan(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	caller := middleware.PrincipalFromContext(c)

	result, err := h.scanFlow.ScanByID(h.createRequestContext(c, "/api/v1/qr/:id"), qrID, caller)
	if err != nil {
		if businessflow.IsQrNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
		}

		log.Println("QR scan failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR scan failed", "QR_SCAN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code resolved", result)
}

// ScanByLink resolves a qr code from its canonical link
// @Summary Scan QR Code By Link
// @Description Resolve a qr code from a full link. The trailing path segment must be the code id.
// @Tags QR
// @Accept json
// @Produce json
// @Param request body dto.ScanByLinkRequest true "Link to resolve"
// @Success 200 {object} dto.APIResponse{data=dto.ScanResponse} "QR code resolved"
// @Failure 404 {object} dto.APIResponse "QR code not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/scan [post]
func (h *QrHandler) ScanByLink(c fiber.Ctx) error {
	var req dto.ScanByLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	caller := middleware.PrincipalFromContext(c)

	result, err := h.scanFlow.ScanByLink(h.createRequestContext(c, "/api/v1/qr/scan"), req.Link, caller)
	if err != nil {
		if businessflow.IsQrNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
		}

		log.Println("QR scan by link failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR scan failed", "QR_SCAN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code resolved", result)
}

// Reset returns a qr code to the unclaimed state
// @Summary Reset QR Code
// @Description Null the owner and object of a code and deactivate it. Admins may reset any code; a user may reset only a code they own.
// @Tags QR
// @Produce json
// @Param id path string true "QR code ID"
// @Success 200 {object} dto.APIResponse "QR code reset"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - not the owner"
// @Failure 404 {object} dto.APIResponse "QR code not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id}/reset [post]
func (h *QrHandler) Reset(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	actor := middleware.PrincipalFromContext(c)
	if actor == nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "MISSING_AUTHORIZATION_HEADER", nil)
	}

	err = h.resetFlow.Reset(h.createRequestContext(c, "/api/v1/qr/:id/reset"), qrID, actor)
	if err != nil {
		if businessflow.IsQrNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
		}
		if businessflow.IsNotQrOwner(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "You do not own this qr code", "NOT_QR_OWNER", nil)
		}

		log.Println("QR reset failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR reset failed", "QR_RESET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code reset", nil)
}

func (h *QrHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *QrHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
