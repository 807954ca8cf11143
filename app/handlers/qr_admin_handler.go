// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/skanfy/qr-backend/app/dto"
	businessflow "github.com/skanfy/qr-backend/business_flow"
	"github.com/skanfy/qr-backend/utils"
)

// QrAdminHandlerInterface defines the contract for admin qr code handlers
type QrAdminHandlerInterface interface {
	CreateBatch(c fiber.Ctx) error
	ListQrs(c fiber.Ctx) error
	SearchByOccasion(c fiber.Ctx) error
}

// QrAdminHandler handles batch generation and the operator ledger views
type QrAdminHandler struct {
	batchFlow businessflow.QrBatchFlow
	adminFlow businessflow.QrAdminFlow
	validator *validator.Validate
}

func (h *QrAdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QrAdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewQrAdminHandler creates a new admin qr handler
func NewQrAdminHandler(batchFlow businessflow.QrBatchFlow, adminFlow businessflow.QrAdminFlow) *QrAdminHandler {
	return &QrAdminHandler{
		batchFlow: batchFlow,
		adminFlow: adminFlow,
		validator: validator.New(),
	}
}

// CreateBatch generates a batch of qr codes under one occasion and generation
// @Summary Create QR Batch
// @Description Generate N codes at once for an occasion. All codes of the batch share one generation number.
// @Tags QR Admin
// @Accept json
// @Produce json
// @Param request body dto.CreateBatchRequest true "Batch parameters"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBatchResponse} "Batch created"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Occasion not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/qr/batch [post]
func (h *QrAdminHandler) CreateBatch(c fiber.Ctx) error {
	var req dto.CreateBatchRequest
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

	admin, errResp := h.requireAdmin(c)
	if errResp != nil {
		return errResp
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.batchFlow.CreateBatch(h.createRequestContext(c, "/api/v1/admin/qr/batch"), &req, admin, metadata)
	if err != nil {
		if businessflow.IsOccasionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Occasion not found", "OCCASION_NOT_FOUND", nil)
		}
		if businessflow.IsBatchCountOutOfRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Batch count is out of range", "BATCH_COUNT_OUT_OF_RANGE", nil)
		}
		if businessflow.IsGenerationUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to determine generation number", "FETCH_GENERATION_FAILED", nil)
		}

		log.Println("QR batch creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR batch creation failed", "CREATE_BATCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "QR batch created successfully", result)
}

// ListQrs lists qr codes with their full projections
// @Summary List QR Codes
// @Description Paginated listing of all codes with owner, occasion, and object projections.
// @Tags QR Admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.ListQrsResponse} "QR codes returned"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/qr [get]
func (h *QrAdminHandler) ListQrs(c fiber.Ctx) error {
	if _, errResp := h.requireAdmin(c); errResp != nil {
		return errResp
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	result, err := h.adminFlow.ListQrs(h.createRequestContext(c, "/api/v1/admin/qr"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("QR listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR listing failed", "LIST_QRS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR codes returned", result)
}

// SearchByOccasion searches qr codes by occasion name
// @Summary Search QR Codes By Occasion
// @Description Case-insensitive search of codes by their occasion name.
// @Tags QR Admin
// @Produce json
// @Param occasion query string true "Occasion name"
// @Success 200 {object} dto.APIResponse{data=dto.ListQrsResponse} "QR codes returned"
// @Failure 400 {object} dto.APIResponse "Missing occasion name"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/qr/search [get]
func (h *QrAdminHandler) SearchByOccasion(c fiber.Ctx) error {
	if _, errResp := h.requireAdmin(c); errResp != nil {
		return errResp
	}

	result, err := h.adminFlow.SearchByOccasion(h.createRequestContext(c, "/api/v1/admin/qr/search"), c.Query("occasion"))
	if err != nil {
		if businessflow.IsOccasionNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Occasion name is required", "OCCASION_NAME_REQUIRED", nil)
		}

		log.Println("QR search failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "QR search failed", "SEARCH_QRS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR codes returned", result)
}

func (h *QrAdminHandler) requireAdmin(c fiber.Ctx) (*businessflow.Principal, error) {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}
	return &businessflow.Principal{Kind: businessflow.PrincipalAdmin, ID: adminID}, nil
}

func (h *QrAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	// Batch generation renders every code against the external renderer, so
	// the budget is larger than a typical request.
	return h.createRequestContextWithTimeout(c, endpoint, 120*time.Second)
}

func (h *QrAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
