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
	businessflow "github.com/skanfy/qr-backend/business_flow"
	"github.com/skanfy/qr-backend/utils"
)

// ObjectHandlerInterface defines the contract for object handlers
type ObjectHandlerInterface interface {
	Attach(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Detach(c fiber.Ctx) error
	Info(c fiber.Ctx) error
	ListMine(c fiber.Ctx) error
}

// ObjectHandler handles the owner-facing object endpoints
type ObjectHandler struct {
	objectFlow businessflow.ObjectFlow
	validator  *validator.Validate
}

func (h *ObjectHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ObjectHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewObjectHandler creates a new object handler
func NewObjectHandler(objectFlow businessflow.ObjectFlow) *ObjectHandler {
	return &ObjectHandler{
		objectFlow: objectFlow,
		validator:  validator.New(),
	}
}

// Attach attaches an object to an unclaimed qr code, claiming it for the caller
// @Summary Attach Object
// @Description Attach an object to a qr code. The first successful attach claims the code; a code with an object attached rejects further attaches.
// @Tags Objects
// @Accept json
// @Produce json
// @Param id path string true "QR code ID"
// @Param request body dto.AttachObjectRequest true "Object data"
// @Success 201 {object} dto.APIResponse{data=dto.ScanResponse} "Object attached"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "QR code not found"
// @Failure 409 {object} dto.APIResponse "Code already has an object attached"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id}/object [post]
func (h *ObjectHandler) Attach(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	var req dto.AttachObjectRequest
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

	user, errResp := h.requireUser(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.objectFlow.Attach(h.createRequestContext(c, "/api/v1/qr/:id/object"), qrID, &req, user)
	if err != nil {
		if businessflow.IsQrNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
		}
		if businessflow.IsObjectAlreadyAttached(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "QR code already has an object attached", "OBJECT_ALREADY_ATTACHED", nil)
		}
		if businessflow.IsObjectNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Object name is required", "OBJECT_NAME_REQUIRED", nil)
		}
		if businessflow.IsImageTooLarge(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Object image is too large", "IMAGE_TOO_LARGE", nil)
		}
		if businessflow.IsImageFormatInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Object image format is not supported", "IMAGE_FORMAT_INVALID", nil)
		}
		if businessflow.IsImageHostUnavailable(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Image upload failed", "IMAGE_UPLOAD_FAILED", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsUserInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "USER_INACTIVE", nil)
		}

		log.Println("Object attach failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Object attach failed", "ATTACH_OBJECT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Object attached successfully", result)
}

// Update updates the object attached to the caller's qr code
// @Summary Update Object
// @Description Update fields of the attached object. Only the owner of the code may update.
// @Tags Objects
// @Accept json
// @Produce json
// @Param id path string true "QR code ID"
// @Param request body dto.UpdateObjectRequest true "Object update data"
// @Success 200 {object} dto.APIResponse{data=dto.ObjectResponse} "Object updated"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - not the owner"
// @Failure 404 {object} dto.APIResponse "QR code or object not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id}/object [put]
func (h *ObjectHandler) Update(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	var req dto.UpdateObjectRequest
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

	user, errResp := h.requireUser(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.objectFlow.Update(h.createRequestContext(c, "/api/v1/qr/:id/object"), qrID, &req, user)
	if err != nil {
		return h.objectError(c, err, "Object update failed", "UPDATE_OBJECT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Object updated successfully", result)
}

// Detach removes the object from the caller's qr code, keeping ownership
// @Summary Detach Object
// @Description Remove the attached object. The code stays owned and active; only its payload is removed.
// @Tags Objects
// @Produce json
// @Param id path string true "QR code ID"
// @Success 200 {object} dto.APIResponse "Object detached"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - not the owner"
// @Failure 404 {object} dto.APIResponse "QR code or object not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id}/object [delete]
func (h *ObjectHandler) Detach(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	user, errResp := h.requireUser(c)
	if errResp != nil {
		return errResp
	}

	if err := h.objectFlow.Detach(h.createRequestContext(c, "/api/v1/qr/:id/object"), qrID, user); err != nil {
		return h.objectError(c, err, "Object detach failed", "DETACH_OBJECT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Object detached successfully", nil)
}

// Info returns the object attached to the caller's qr code
// @Summary Get Object
// @Description Return the attached object of a code owned by the caller.
// @Tags Objects
// @Produce json
// @Param id path string true "QR code ID"
// @Success 200 {object} dto.APIResponse{data=dto.ObjectResponse} "Object returned"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden - not the owner"
// @Failure 404 {object} dto.APIResponse "QR code or object not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/qr/{id}/object [get]
func (h *ObjectHandler) Info(c fiber.Ctx) error {
	qrID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid qr code id", "INVALID_QR_ID", nil)
	}

	user, errResp := h.requireUser(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.objectFlow.Info(h.createRequestContext(c, "/api/v1/qr/:id/object"), qrID, user)
	if err != nil {
		return h.objectError(c, err, "Object lookup failed", "OBJECT_LOOKUP_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Object returned", result)
}

// ListMine lists the caller's furnished codes with their objects
// @Summary List My Objects
// @Description List every code owned by the caller that has an object attached.
// @Tags Objects
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListMyObjectsResponse} "Objects returned"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/my/objects [get]
func (h *ObjectHandler) ListMine(c fiber.Ctx) error {
	user, errResp := h.requireUser(c)
	if errResp != nil {
		return errResp
	}

	result, err := h.objectFlow.ListMine(h.createRequestContext(c, "/api/v1/my/objects"), user)
	if err != nil {
		log.Println("Object listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Object listing failed", "LIST_OBJECTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Objects returned", result)
}

func (h *ObjectHandler) requireUser(c fiber.Ctx) (*businessflow.Principal, error) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return nil, h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	return &businessflow.Principal{Kind: businessflow.PrincipalUser, ID: userID}, nil
}

func (h *ObjectHandler) objectError(c fiber.Ctx, err error, message, code string) error {
	if businessflow.IsQrNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_NOT_FOUND", nil)
	}
	if businessflow.IsNotQrOwner(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "You do not own this qr code", "NOT_QR_OWNER", nil)
	}
	if businessflow.IsObjectNotAttached(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "No object attached to this qr code", "OBJECT_NOT_ATTACHED", nil)
	}
	if businessflow.IsObjectNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Object not found", "OBJECT_NOT_FOUND", nil)
	}
	if businessflow.IsObjectNameRequired(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Object name is required", "OBJECT_NAME_REQUIRED", nil)
	}
	if businessflow.IsImageTooLarge(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Object image is too large", "IMAGE_TOO_LARGE", nil)
	}
	if businessflow.IsImageFormatInvalid(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Object image format is not supported", "IMAGE_FORMAT_INVALID", nil)
	}
	if businessflow.IsImageHostUnavailable(err) {
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Image upload failed", "IMAGE_UPLOAD_FAILED", nil)
	}
	if businessflow.IsUserNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
	}
	if businessflow.IsUserInactive(err) {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "USER_INACTIVE", nil)
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, code, nil)
}

func (h *ObjectHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ObjectHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
