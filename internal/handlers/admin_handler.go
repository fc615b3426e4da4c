package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/utils"
	pkgutils "github.com/wso2/idcard-reissue-api/pkg/utils"
)

// AdminHandler handles the HR console HTTP requests
type AdminHandler struct {
	consoles *admin.Registry
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler instance
func NewAdminHandler(consoles *admin.Registry, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		consoles: consoles,
		logger:   logger,
	}
}

// TableResponse is the rendered table with its counts. Pagination is set
// only when the query asked for a page.
type TableResponse struct {
	admin.Snapshot
	Pagination *utils.PaginationMetadata `json:"pagination,omitempty"`
}

// ListRequests handles GET /admin/requests
func (h *AdminHandler) ListRequests(c *gin.Context) {
	snapshot, err := h.consoles.Service().Snapshot(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, "Failed to render requests", err)
		return
	}

	resp := TableResponse{Snapshot: snapshot}
	if c.Query("limit") != "" || c.Query("offset") != "" {
		page := utils.PaginationFromQuery(c)
		start, end := page.Bounds(len(snapshot.Rows))
		resp.Rows = snapshot.Rows[start:end]
		resp.Pagination = utils.CalculatePaginationMetadata(len(snapshot.Rows), page.Limit, page.Offset)
	}
	utils.SendOKResponse(c, resp)
}

// GetStats handles GET /admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.consoles.Service().Stats(c.Request.Context())
	if err != nil {
		sendError(c, h.logger, "Failed to compute stats", err)
		return
	}
	utils.SendOKResponse(c, stats)
}

// ListStatuses handles GET /admin/statuses
func (h *AdminHandler) ListStatuses(c *gin.Context) {
	utils.SendOKResponse(c, h.consoles.Service().StatusOptions())
}

// GetHistory handles GET /admin/requests/{requestId}/audit
func (h *AdminHandler) GetHistory(c *gin.Context) {
	requestID, err := pkgutils.ParseRequestID(c.Param("requestId"))
	if err != nil {
		utils.SendBadRequestError(c, "Invalid request ID", err.Error())
		return
	}
	history, err := h.consoles.Service().History(c.Request.Context(), requestID)
	if err != nil {
		sendError(c, h.logger, "Failed to read status history", err)
		return
	}
	utils.SendOKResponse(c, history)
}

// CreateConsole handles POST /admin/consoles
func (h *AdminHandler) CreateConsole(c *gin.Context) {
	console := h.consoles.Create()
	utils.SendCreatedResponse(c, models.ConsoleResponse{ConsoleID: console.ID()})
}

// GetConsole handles GET /admin/consoles/{consoleId}
func (h *AdminHandler) GetConsole(c *gin.Context) {
	console, ok := h.console(c)
	if !ok {
		return
	}
	resp := models.ConsoleResponse{ConsoleID: console.ID()}
	if id, selected := console.Selected(); selected {
		resp.SelectedRequestID = &id
	}
	utils.SendOKResponse(c, resp)
}

// CloseConsole handles DELETE /admin/consoles/{consoleId}
func (h *AdminHandler) CloseConsole(c *gin.Context) {
	if err := h.consoles.Close(c.Param("consoleId")); err != nil {
		sendError(c, h.logger, "Failed to close console", err)
		return
	}
	utils.SendNoContentResponse(c)
}

// OpenModal handles POST /admin/consoles/{consoleId}/modal/{requestId}
func (h *AdminHandler) OpenModal(c *gin.Context) {
	console, ok := h.console(c)
	if !ok {
		return
	}
	requestID, err := pkgutils.ParseRequestID(c.Param("requestId"))
	if err != nil {
		utils.SendBadRequestError(c, "Invalid request ID", err.Error())
		return
	}

	detail, err := console.OpenModal(c.Request.Context(), requestID)
	if err != nil {
		sendError(c, h.logger, "Failed to open request", err)
		return
	}
	utils.SendOKResponse(c, detail)
}

// CloseModal handles DELETE /admin/consoles/{consoleId}/modal
func (h *AdminHandler) CloseModal(c *gin.Context) {
	console, ok := h.console(c)
	if !ok {
		return
	}
	console.CloseModal()
	utils.SendNoContentResponse(c)
}

// UpdateStatus handles PUT /admin/consoles/{consoleId}/status
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	console, ok := h.console(c)
	if !ok {
		return
	}

	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequestError(c, "Invalid request body", err.Error())
		return
	}
	// the console checks the selection before the status
	req.Status = pkgutils.SanitizeString(req.Status)

	snapshot, err := console.UpdateStatus(c.Request.Context(), req.Status, utils.GetActorFromContext(c))
	if err != nil {
		sendError(c, h.logger, "Failed to update status", err)
		return
	}
	utils.SendSuccessResponse(c, http.StatusOK, snapshot)
}

func (h *AdminHandler) console(c *gin.Context) (*admin.Console, bool) {
	console, err := h.consoles.Get(c.Param("consoleId"))
	if err != nil {
		sendError(c, h.logger, "Console not found", err)
		return nil, false
	}
	return console, true
}
