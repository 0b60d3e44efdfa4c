package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zing-commerce/cart-engine/internal/adapters/handler/http/middleware"
	"github.com/zing-commerce/cart-engine/internal/core/domain"
	"github.com/zing-commerce/cart-engine/internal/core/services"
)

type SessionHandler struct {
	merge   *services.MergeService
	reports domain.MergeReportRepository
}

// NewSessionHandler wires the login-time merge endpoint. reports may be nil
// when report persistence is disabled; the history endpoint then returns 404.
func NewSessionHandler(merge *services.MergeService, reports domain.MergeReportRepository) *SessionHandler {
	return &SessionHandler{
		merge:   merge,
		reports: reports,
	}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	session := router.Group("/session")
	{
		session.POST("/merge", h.Merge)
		session.GET("/merge-reports", h.MergeReports)
	}
}

// Merge is called by the login flow right after authentication succeeds,
// before the client navigates away. It absorbs the guest cart named by
// X-Guest-Session into the server cart and returns the outcome, including
// any lines that could not be transferred.
func (h *SessionHandler) Merge(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok || !actor.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	report, err := h.merge.MergeGuestCart(c.Request.Context(), actor.SessionID, actor)
	if err != nil {
		handleError(c, err)
		return
	}

	status := http.StatusOK
	if !report.AllTransferred() {
		// Partial success: the guest cart is gone either way, so the
		// client must show which lines were lost.
		status = http.StatusMultiStatus
	}

	c.JSON(status, report)
}

func (h *SessionHandler) MergeReports(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok || !actor.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if h.reports == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "merge report history is not enabled"})
		return
	}

	reports, err := h.reports.ListByUserID(c.Request.Context(), actor.UserID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
