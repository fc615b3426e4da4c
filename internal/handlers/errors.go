package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/store"
	"github.com/wso2/idcard-reissue-api/internal/utils"
	"github.com/wso2/idcard-reissue-api/internal/wizard"
	pkgutils "github.com/wso2/idcard-reissue-api/pkg/utils"
)

// errorMapping pairs a sentinel error with the response code it produces.
// The first match wins, so more specific errors come first.
var errorMapping = []struct {
	err  error
	code string
}{
	{wizard.ErrSessionNotFound, models.ErrCodeSessionNotFound},
	{wizard.ErrDocumentRequired, models.ErrCodeDocumentRequired},
	{wizard.ErrCameraUnavailable, models.ErrCodeCameraUnavailable},
	{wizard.ErrReasonRequired, models.ErrCodeValidationError},
	{wizard.ErrUnsupportedDocument, models.ErrCodeUnsupportedMedia},
	{camera.ErrUnsupportedFrame, models.ErrCodeUnsupportedMedia},
	{wizard.ErrDocumentTooLarge, models.ErrCodeBadRequest},
	{wizard.ErrAddressNotFound, models.ErrCodeNotFound},
	{wizard.ErrInvalidTransition, models.ErrCodeInvalidTransition},
	{wizard.ErrCountdownActive, models.ErrCodeInvalidTransition},
	{wizard.ErrNoPhoto, models.ErrCodeInvalidTransition},
	{wizard.ErrSubmitting, models.ErrCodeConflict},
	{wizard.ErrSessionClosed, models.ErrCodeConflict},
	{admin.ErrConsoleNotFound, models.ErrCodeNotFound},
	{admin.ErrNoSelection, models.ErrCodeNoSelection},
	{admin.ErrRequestNotFound, models.ErrCodeRequestNotFound},
	{admin.ErrInvalidStatus, models.ErrCodeInvalidStatus},
	{pkgutils.ErrValidation, models.ErrCodeValidationError},
	{store.ErrDuplicateID, models.ErrCodeConflict},
	{store.ErrStorage, models.ErrCodeStorageError},
}

// alerts replace the caller's message for failures the employee sees
var alerts = map[string]string{
	models.ErrCodeDocumentRequired:  wizard.DocumentRequiredMessage,
	models.ErrCodeCameraUnavailable: wizard.CameraUnavailableMessage,
}

// errorCode maps err to a response code, INTERNAL_ERROR when unknown
func errorCode(err error) string {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return models.ErrCodeInternalError
}

// sendError writes the error response for err. Server-side failures are
// logged with the correlation id.
func sendError(c *gin.Context, logger *logrus.Logger, message string, err error) {
	code := errorCode(err)
	status := models.HTTPStatusForErrorCode(code)
	if status >= 500 {
		logger.WithError(err).WithFields(logrus.Fields{
			"correlation_id": utils.GetCorrelationIDFromContext(c),
			"code":           code,
		}).Error(message)
	}
	if alert, ok := alerts[code]; ok {
		message = alert
	}
	_ = c.Error(err)
	utils.SendErrorForCode(c, code, message, err.Error())
}
