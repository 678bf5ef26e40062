package analytics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// GetAnalytics GET /api/analytics?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
func (h *Handler) GetAnalytics(c *gin.Context) {
	route := c.FullPath()

	u, err := user.RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}
	if !u.IsBusiness() {
		apperr.Respond(c, apperr.Forbidden("analytics are only available to business accounts"), map[string]interface{}{"userID": u.ID})
		return
	}

	window, err := ParseWindow(c.Query("start_date"), c.Query("end_date"), h.now())
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID})
		return
	}

	report, err := h.service.Report(c.Request.Context(), u.ID, window)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": report})
	logs.LogJSON("INFO", "Analytics retrieved successfully", map[string]interface{}{
		"route":     route,
		"userID":    u.ID,
		"startDate": report.Range.Start,
		"endDate":   report.Range.End,
	})
}
