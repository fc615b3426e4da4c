package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wso2/idcard-reissue-api/internal/middleware"
	"github.com/wso2/idcard-reissue-api/internal/models"
	pkgutils "github.com/wso2/idcard-reissue-api/pkg/utils"
)

// SendSuccessResponse sends a successful JSON response
func SendSuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// SendErrorResponse sends an error JSON response
func SendErrorResponse(c *gin.Context, statusCode int, errCode, message, details string) {
	c.JSON(statusCode, models.ErrorResponse{
		Code:    errCode,
		Message: message,
		Details: details,
	})
}

// SendErrorForCode sends an error response with the HTTP status mapped
// from errCode
func SendErrorForCode(c *gin.Context, errCode, message, details string) {
	SendErrorResponse(c, models.HTTPStatusForErrorCode(errCode), errCode, message, details)
}

// SendCreatedResponse sends a 201 Created response
func SendCreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// SendOKResponse sends a 200 OK response
func SendOKResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// SendNoContentResponse sends a 204 No Content response
func SendNoContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// SendBadRequestError sends a 400 Bad Request error
func SendBadRequestError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeBadRequest, message, details)
}

// SendNotFoundError sends a 404 Not Found error
func SendNotFoundError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusNotFound, models.ErrCodeNotFound, message, "")
}

// SendConflictError sends a 409 Conflict error
func SendConflictError(c *gin.Context, message string) {
	SendErrorResponse(c, http.StatusConflict, models.ErrCodeConflict, message, "")
}

// SendInternalServerError sends a 500 Internal Server Error
func SendInternalServerError(c *gin.Context, message, details string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeInternalError, message, details)
}

// SendStorageError sends a 500 for a failed store read or write
func SendStorageError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusInternalServerError, models.ErrCodeStorageError, "Request storage failed", details)
}

// SendValidationError sends a validation error response
func SendValidationError(c *gin.Context, details string) {
	SendErrorResponse(c, http.StatusBadRequest, models.ErrCodeValidationError, "Validation failed", details)
}

// GetCorrelationIDFromContext extracts correlation ID from context
func GetCorrelationIDFromContext(c *gin.Context) string {
	correlationID, exists := c.Get(middleware.CorrelationIDKey)
	if !exists {
		return pkgutils.GenerateID()
	}
	return correlationID.(string)
}

// GetActorFromContext returns who is acting on the request, taken from the
// X-Employee-ID header. Empty when the header is absent.
func GetActorFromContext(c *gin.Context) string {
	return pkgutils.SanitizeString(c.GetHeader(ActorHeader))
}

// ActorHeader names the acting employee or admin
const ActorHeader = "X-Employee-ID"
