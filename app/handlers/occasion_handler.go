// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/skanfy/qr-backend/app/dto"
	businessflow "github.com/skanfy/qr-backend/business_flow"
	"github.com/skanfy/qr-backend/utils"
)

// OccasionHandlerInterface defines the contract for occasion handlers
type OccasionHandlerInterface interface {
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	List(c fiber.Ctx) error
	History(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	Download(c fiber.Ctx) error
}

// OccasionHandler handles the occasion registry endpoints
type OccasionHandler struct {
	occasionFlow businessflow.OccasionFlow
	validator    *validator.Validate
}

func (h *OccasionHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *OccasionHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewOccasionHandler creates a new occasion handler
func NewOccasionHandler(occasionFlow businessflow.OccasionFlow) *OccasionHandler {
	return &OccasionHandler{
		occasionFlow: occasionFlow,
		validator:    validator.New(),
	}
}

// Create creates a new occasion
// @Summary Create Occasion
// @Tags Occasions
// @Accept json
// @Produce json
// @Param request body dto.CreateOccasionRequest true "Occasion data"
// @Success 201 {object} dto.APIResponse{data=dto.OccasionResponse} "Occasion created"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions [post]
func (h *OccasionHandler) Create(c fiber.Ctx) error {
	var req dto.CreateOccasionRequest
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

	result, err := h.occasionFlow.Create(h.createRequestContext(c, "/api/v1/occasions"), &req, admin)
	if err != nil {
		if businessflow.IsOccasionNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Occasion name is required", "OCCASION_NAME_REQUIRED", nil)
		}

		log.Println("Occasion creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Occasion creation failed", "CREATE_OCCASION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Occasion created successfully", result)
}

// Update updates an occasion
// @Summary Update Occasion
// @Tags Occasions
// @Accept json
// @Produce json
// @Param id path string true "Occasion ID"
// @Param request body dto.UpdateOccasionRequest true "Occasion update data"
// @Success 200 {object} dto.APIResponse{data=dto.OccasionResponse} "Occasion updated"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Occasion not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/{id} [put]
func (h *OccasionHandler) Update(c fiber.Ctx) error {
	occasionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid occasion id", "INVALID_OCCASION_ID", nil)
	}

	var req dto.UpdateOccasionRequest
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

	result, err := h.occasionFlow.Update(h.createRequestContext(c, "/api/v1/occasions/:id"), occasionID, &req, admin)
	if err != nil {
		return h.occasionError(c, err, "Occasion update failed", "UPDATE_OCCASION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Occasion updated successfully", result)
}

// Delete removes an occasion and cascades to its codes
// @Summary Delete Occasion
// @Tags Occasions
// @Produce json
// @Param id path string true "Occasion ID"
// @Success 200 {object} dto.APIResponse "Occasion deleted"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Occasion not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/{id} [delete]
func (h *OccasionHandler) Delete(c fiber.Ctx) error {
	occasionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid occasion id", "INVALID_OCCASION_ID", nil)
	}

	admin, errResp := h.requireAdmin(c)
	if errResp != nil {
		return errResp
	}

	if err := h.occasionFlow.Delete(h.createRequestContext(c, "/api/v1/occasions/:id"), occasionID, admin); err != nil {
		return h.occasionError(c, err, "Occasion deletion failed", "DELETE_OCCASION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Occasion deleted successfully", nil)
}

// Get returns one occasion with its counts
// @Summary Get Occasion
// @Tags Occasions
// @Produce json
// @Param id path string true "Occasion ID"
// @Success 200 {object} dto.APIResponse{data=dto.OccasionResponse} "Occasion returned"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Occasion not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/{id} [get]
func (h *OccasionHandler) Get(c fiber.Ctx) error {
	occasionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid occasion id", "INVALID_OCCASION_ID", nil)
	}

	result, err := h.occasionFlow.Get(h.createRequestContext(c, "/api/v1/occasions/:id"), occasionID)
	if err != nil {
		return h.occasionError(c, err, "Occasion lookup failed", "OCCASION_LOOKUP_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Occasion returned", result)
}

// List lists occasions with their counts
// @Summary List Occasions
// @Tags Occasions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.ListOccasionsResponse} "Occasions returned"
// @Failure 400 {object} dto.APIResponse "Invalid pagination"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions [get]
func (h *OccasionHandler) List(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	result, err := h.occasionFlow.List(h.createRequestContext(c, "/api/v1/occasions"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Occasion listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Occasion listing failed", "LIST_OCCASIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Occasions returned", result)
}

// History groups each occasion's codes by generation
// @Summary Occasion Generation History
// @Description List every occasion having at least one code, grouped by generation with counts and download handles.
// @Tags Occasions
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.OccasionHistoryResponse} "History returned"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/history [get]
func (h *OccasionHandler) History(c fiber.Ctx) error {
	result, err := h.occasionFlow.History(h.createRequestContext(c, "/api/v1/occasions/history"))
	if err != nil {
		log.Println("Occasion history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Occasion history failed", "OCCASION_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "History returned", result)
}

// Export downloads an Excel report of all occasions
// @Summary Export Occasions
// @Tags Occasions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "Excel file"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/export [get]
func (h *OccasionHandler) Export(c fiber.Ctx) error {
	filename, content, err := h.occasionFlow.ExportExcel(h.createRequestContext(c, "/api/v1/occasions/export"))
	if err != nil {
		log.Println("Occasion export failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Occasion export failed", "EXPORT_OCCASIONS_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Send(content)
}

// Download zips the rendered images of an occasion, optionally one generation
// @Summary Download Occasion Archive
// @Description Download a zip of the rendered PNGs for an occasion. Pass generation to restrict to one batch.
// @Tags Occasions
// @Produce application/zip
// @Param id path string true "Occasion ID"
// @Param generation query int false "Generation number"
// @Success 200 {file} binary "Zip archive"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Occasion not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/occasions/{id}/download [get]
func (h *OccasionHandler) Download(c fiber.Ctx) error {
	occasionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid occasion id", "INVALID_OCCASION_ID", nil)
	}

	var generation *int
	if raw := c.Query("generation"); raw != "" {
		gen, err := strconv.Atoi(raw)
		if err != nil || gen < 1 {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid generation number", "INVALID_GENERATION", nil)
		}
		generation = &gen
	}

	filename, content, err := h.occasionFlow.DownloadArchive(h.createRequestContext(c, "/api/v1/occasions/:id/download"), occasionID, generation)
	if err != nil {
		return h.occasionError(c, err, "Occasion archive failed", "ARCHIVE_BUILD_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Send(content)
}

func (h *OccasionHandler) requireAdmin(c fiber.Ctx) (*businessflow.Principal, error) {
	adminID, ok := c.Locals("admin_id").(uint)
	if !ok {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin ID not found in context", "MISSING_ADMIN_ID", nil)
	}
	return &businessflow.Principal{Kind: businessflow.PrincipalAdmin, ID: adminID}, nil
}

func (h *OccasionHandler) occasionError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsOccasionNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Occasion not found", "OCCASION_NOT_FOUND", nil)
	}
	if businessflow.IsOccasionNameRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Occasion name is required", "OCCASION_NAME_REQUIRED", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

func (h *OccasionHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *OccasionHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
