package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) RegisterRoutes(router *gin.RouterGroup) {
	schedules := router.Group("/api/schedules")
	{
		schedules.GET("", middleware.RequirePermission("schedules.read"), h.ListEntries)
		schedules.POST("/import", middleware.RequirePermission("schedules.write"), h.ImportEntries)
	}
}

// ImportEntries accepts a batch of member demand rows from the subscription
// system
// @Summary      Import delivery schedule entries
// @Tags         schedules
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ImportScheduleRequest  true  "Schedule entries"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/schedules/import [post]
func (h *ScheduleHandler) ImportEntries(c *gin.Context) {
	var req service.ImportScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	count, err := h.scheduleService.ImportEntries(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"imported": count}))
}

// ListEntries returns paginated schedule entries, optionally for one date
// @Summary      List delivery schedule entries
// @Tags         schedules
// @Security     BearerAuth
// @Produce      json
// @Param        date   query  string  false  "Scheduled date (YYYY-MM-DD)"
// @Param        page   query  int     false  "Page number (default: 1)"
// @Param        limit  query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/schedules [get]
func (h *ScheduleHandler) ListEntries(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.scheduleService.ListEntries(c.Request.Context(), c.Query("date"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, entries, params.Page, params.Limit, total))
}
