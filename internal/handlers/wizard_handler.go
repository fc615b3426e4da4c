package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/camera"
	"github.com/wso2/idcard-reissue-api/internal/config"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/utils"
	"github.com/wso2/idcard-reissue-api/internal/wizard"
	pkgutils "github.com/wso2/idcard-reissue-api/pkg/utils"
)

var errPayloadTooLarge = errors.New("payload too large")

// WizardHandler handles the employee wizard HTTP requests
type WizardHandler struct {
	registry         *wizard.Registry
	maxDocumentBytes int64
	maxFrameBytes    int64
	logger           *logrus.Logger
}

// NewWizardHandler creates a new wizard handler instance
func NewWizardHandler(registry *wizard.Registry, cfg *config.WizardConfig, logger *logrus.Logger) *WizardHandler {
	return &WizardHandler{
		registry:         registry,
		maxDocumentBytes: cfg.MaxDocumentBytes,
		maxFrameBytes:    cfg.MaxFrameBytes,
		logger:           logger,
	}
}

// SessionResponse is a wizard view together with the dashboard list
type SessionResponse struct {
	wizard.View
	Requests []models.RequestRecord `json:"requests"`
}

// SubmitResponse is returned once the request has been stored
type SubmitResponse struct {
	Request models.RequestRecord `json:"request"`
	Session wizard.View          `json:"session"`
}

// ReasonOption is one entry of the reason select
type ReasonOption struct {
	Value            models.Reason `json:"value"`
	Label            string        `json:"label"`
	RequiresDocument bool          `json:"requiresDocument"`
}

// OptionsResponse lists the reason choices and the wizard steps in order
type OptionsResponse struct {
	Reasons []ReasonOption `json:"reasons"`
	Steps   []wizard.State `json:"steps"`
}

// GetOptions handles GET /wizard/options
func (h *WizardHandler) GetOptions(c *gin.Context) {
	reasons := models.Reasons()
	resp := OptionsResponse{
		Reasons: make([]ReasonOption, 0, len(reasons)),
		Steps:   wizard.States(),
	}
	for _, r := range reasons {
		resp.Reasons = append(resp.Reasons, ReasonOption{
			Value:            r,
			Label:            r.Label(),
			RequiresDocument: r.RequiresDocument(),
		})
	}
	utils.SendOKResponse(c, resp)
}

// CreateSession handles POST /wizard/sessions
func (h *WizardHandler) CreateSession(c *gin.Context) {
	var req models.CreateWizardSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	req.EmployeeID = pkgutils.SanitizeString(req.EmployeeID)
	req.EmployeeName = pkgutils.SanitizeString(req.EmployeeName)
	if err := pkgutils.ValidateStruct(req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	session := h.registry.Create(wizard.Employee{
		ID:             req.EmployeeID,
		Name:           req.EmployeeName,
		SavedAddresses: req.SavedAddresses,
	})
	h.respondView(c, http.StatusCreated, session)
}

// GetSession handles GET /wizard/sessions/{sessionId}
func (h *WizardHandler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	h.respondView(c, http.StatusOK, session)
}

// CloseSession handles DELETE /wizard/sessions/{sessionId}
func (h *WizardHandler) CloseSession(c *gin.Context) {
	if err := h.registry.Close(c.Param("sessionId")); err != nil {
		sendError(c, h.logger, "Failed to close session", err)
		return
	}
	utils.SendNoContentResponse(c)
}

// Start handles POST /wizard/sessions/{sessionId}/start
func (h *WizardHandler) Start(c *gin.Context) {
	h.step(c, "Failed to start wizard", func(s *wizard.Session) error {
		return s.Start()
	})
}

// SelectReason handles PUT /wizard/sessions/{sessionId}/reason
func (h *WizardHandler) SelectReason(c *gin.Context) {
	var req models.SelectReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	if err := pkgutils.ValidateStruct(req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	reason, err := models.ParseReason(req.Reason)
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	h.step(c, "Failed to select reason", func(s *wizard.Session) error {
		return s.SelectReason(reason)
	})
}

// AttachDocument handles POST /wizard/sessions/{sessionId}/document
func (h *WizardHandler) AttachDocument(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		utils.SendBadRequestError(c, "Document file is required", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.SendBadRequestError(c, "Failed to read document", err.Error())
		return
	}
	defer file.Close()

	data, err := readLimited(file, h.maxDocumentBytes)
	if err != nil {
		utils.SendBadRequestError(c, "Failed to read document", err.Error())
		return
	}

	doc, err := session.AttachDocument(pkgutils.SanitizeString(fileHeader.Filename), data)
	if err != nil {
		sendError(c, h.logger, "Failed to attach document", err)
		return
	}
	utils.SendOKResponse(c, doc)
}

// Next handles POST /wizard/sessions/{sessionId}/next
func (h *WizardHandler) Next(c *gin.Context) {
	h.step(c, "Failed to continue", func(s *wizard.Session) error {
		return s.Next()
	})
}

// OpenCamera handles POST /wizard/sessions/{sessionId}/camera
func (h *WizardHandler) OpenCamera(c *gin.Context) {
	h.step(c, "Failed to open camera", func(s *wizard.Session) error {
		return s.OpenCamera(c.Request.Context())
	})
}

// PushFrame handles POST /wizard/sessions/{sessionId}/camera/frame. The
// body is a raw PNG or JPEG image.
func (h *WizardHandler) PushFrame(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	data, err := readLimited(c.Request.Body, h.maxFrameBytes)
	if err != nil {
		utils.SendBadRequestError(c, "Failed to read frame", err.Error())
		return
	}
	img, err := camera.DecodeFrame(data, h.maxFrameBytes)
	if err != nil {
		if errors.Is(err, camera.ErrUnsupportedFrame) {
			sendError(c, h.logger, "Unsupported frame", err)
			return
		}
		utils.SendBadRequestError(c, "Invalid frame", err.Error())
		return
	}
	if err := session.PushFrame(img); err != nil {
		sendError(c, h.logger, "Failed to push frame", err)
		return
	}
	utils.SendNoContentResponse(c)
}

// Capture handles POST /wizard/sessions/{sessionId}/capture. The countdown
// runs in the background unless ?wait=true is given, in which case the
// response is sent once it has finished.
func (h *WizardHandler) Capture(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Capture(); err != nil {
		sendError(c, h.logger, "Failed to start capture", err)
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, session.View())
		return
	}
	select {
	case <-session.CaptureDone():
	case <-c.Request.Context().Done():
		return
	}
	h.respondView(c, http.StatusOK, session)
}

// CancelCamera handles POST /wizard/sessions/{sessionId}/camera/cancel
func (h *WizardHandler) CancelCamera(c *gin.Context) {
	h.step(c, "Failed to cancel camera", func(s *wizard.Session) error {
		return s.CancelCamera()
	})
}

// UpdateEdits handles PUT /wizard/sessions/{sessionId}/edits
func (h *WizardHandler) UpdateEdits(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var update wizard.EditsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	edits, err := session.UpdateEdits(update)
	if err != nil {
		sendError(c, h.logger, "Failed to update edits", err)
		return
	}
	utils.SendOKResponse(c, edits)
}

// GetPhoto handles GET /wizard/sessions/{sessionId}/photo
func (h *WizardHandler) GetPhoto(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	data, err := session.Photo()
	if errors.Is(err, wizard.ErrNoPhoto) {
		utils.SendNotFoundError(c, "No photo has been captured")
		return
	}
	if err != nil {
		sendError(c, h.logger, "Failed to render photo", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// Confirm handles POST /wizard/sessions/{sessionId}/confirm
func (h *WizardHandler) Confirm(c *gin.Context) {
	h.step(c, "Failed to confirm photo", func(s *wizard.Session) error {
		return s.Confirm()
	})
}

// SetAddress handles PUT /wizard/sessions/{sessionId}/address
func (h *WizardHandler) SetAddress(c *gin.Context) {
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	if err := pkgutils.ValidateStruct(req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if (req.SavedIndex == nil) == (req.Address == nil) {
		utils.SendValidationError(c, "exactly one of savedIndex or address is required")
		return
	}

	h.step(c, "Failed to set address", func(s *wizard.Session) error {
		if req.SavedIndex != nil {
			return s.SelectSavedAddress(*req.SavedIndex)
		}
		addr := *req.Address
		addr.Street = pkgutils.SanitizeString(addr.Street)
		addr.City = pkgutils.SanitizeString(addr.City)
		addr.PostalCode = pkgutils.SanitizeString(addr.PostalCode)
		return s.SetAddress(addr)
	})
}

// Back handles POST /wizard/sessions/{sessionId}/back
func (h *WizardHandler) Back(c *gin.Context) {
	h.step(c, "Failed to return to dashboard", func(s *wizard.Session) error {
		return s.Back()
	})
}

// BackToEditor handles POST /wizard/sessions/{sessionId}/back-to-editor
func (h *WizardHandler) BackToEditor(c *gin.Context) {
	h.step(c, "Failed to return to editor", func(s *wizard.Session) error {
		return s.BackToEditor()
	})
}

// Submit handles POST /wizard/sessions/{sessionId}/submit. It blocks for
// the submission delay.
func (h *WizardHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	record, err := session.Submit()
	if err != nil {
		sendError(c, h.logger, "Failed to submit request", err)
		return
	}
	utils.SendCreatedResponse(c, SubmitResponse{
		Request: record,
		Session: session.View(),
	})
}

// session looks up the path's session, answering 404 when it is unknown
func (h *WizardHandler) session(c *gin.Context) (*wizard.Session, bool) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		utils.SendBadRequestError(c, "Session ID is required", "")
		return nil, false
	}
	session, err := h.registry.Get(sessionID)
	if err != nil {
		sendError(c, h.logger, "Wizard session not found", err)
		return nil, false
	}
	return session, true
}

// step runs one state change and answers with the resulting view
func (h *WizardHandler) step(c *gin.Context, failure string, fn func(*wizard.Session) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := fn(session); err != nil {
		sendError(c, h.logger, failure, err)
		return
	}
	h.respondView(c, http.StatusOK, session)
}

func (h *WizardHandler) respondView(c *gin.Context, status int, session *wizard.Session) {
	requests, err := session.Dashboard(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, "Failed to load requests", err)
		return
	}
	utils.SendSuccessResponse(c, status, SessionResponse{
		View:     session.View(),
		Requests: requests,
	})
}

// readLimited reads r fully, failing once more than max bytes arrive. A
// non-positive max reads everything.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", errPayloadTooLarge, max)
	}
	return data, nil
}
