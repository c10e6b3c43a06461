package handler

import (
	"errors"
	"net/http"

	"github.com/d2bcart/backend/internal/application/admin"
	"github.com/d2bcart/backend/internal/application/identity"
	"github.com/d2bcart/backend/internal/infrastructure/scheduler"
	"github.com/d2bcart/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ListUsersRequest filters the user listing
type ListUsersRequest struct {
	Keyword    string `form:"keyword" binding:"max=100"`
	Role       string `form:"role" binding:"omitempty,oneof=retailer manufacturer admin"`
	IsVerified *bool  `form:"is_verified"`
	IsActive   *bool  `form:"is_active"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// SetActiveRequest enables or disables an account
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// AdminHandler serves the admin console: dashboard, accounts and jobs
type AdminHandler struct {
	BaseHandler
	dashboard *admin.DashboardService
	users     *identity.UserService
	jobs      *scheduler.Scheduler
}

// NewAdminHandler creates a new admin handler. jobs may be nil when the
// scheduler is not running in this process.
func NewAdminHandler(dashboard *admin.DashboardService, users *identity.UserService, jobs *scheduler.Scheduler) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, users: users, jobs: jobs}
}

// Dashboard returns marketplace health for a date range
// @Summary     Get marketplace KPIs
// @Tags        admin
// @Produce     json
// @Param       query query admin.DashboardQuery false "Period"
// @Success     200 {object} dto.Response{data=admin.Dashboard}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var q admin.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	d, err := h.dashboard.Get(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// ListUsers lists accounts
// @Summary     List users
// @Tags        admin
// @Produce     json
// @Param       query query ListUsersRequest false "Filters"
// @Success     200 {object} dto.Response{data=[]identity.UserInfo,meta=dto.Meta}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.users.ListUsers(c.Request.Context(), identity.ListUsersInput{
		Keyword:    req.Keyword,
		Role:       req.Role,
		IsVerified: req.IsVerified,
		IsActive:   req.IsActive,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(&h.BaseHandler, c, page)
}

// VerifyManufacturer lets a manufacturer list products
// @Summary     Verify a manufacturer
// @Tags        admin
// @Produce     json
// @Param       id path string true "User ID" format(uuid)
// @Success     200 {object} dto.Response{data=identity.UserInfo}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/users/{id}/verify [post]
func (h *AdminHandler) VerifyManufacturer(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	info, err := h.users.VerifyManufacturer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// SetActive enables or disables an account
// @Summary     Activate or deactivate a user
// @Tags        admin
// @Accept      json
// @Produce     json
// @Param       id path string true "User ID" format(uuid)
// @Param       request body SetActiveRequest true "Active flag"
// @Success     200 {object} dto.Response{data=identity.UserInfo}
// @Failure     400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/users/{id}/active [put]
func (h *AdminHandler) SetActive(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	info, err := h.users.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ListJobs reports run statistics of the background jobs
// @Summary     List background jobs
// @Tags        admin
// @Produce     json
// @Success     200 {object} dto.Response{data=[]scheduler.RunStats}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/jobs [get]
func (h *AdminHandler) ListJobs(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []scheduler.RunStats{})
		return
	}
	h.Success(c, h.jobs.Stats())
}

// RunJob runs a background job now and waits for it
// @Summary     Run a background job now
// @Tags        admin
// @Produce     json
// @Param       name path string true "Job name"
// @Success     200 {object} dto.Response{data=object}
// @Failure     401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     500 {object} dto.Response{error=dto.ErrorInfo}
// @Failure     503 {object} dto.Response{error=dto.ErrorInfo}
// @Security    BearerAuth
// @Router      /admin/jobs/{name}/run [post]
func (h *AdminHandler) RunJob(c *gin.Context) {
	if h.jobs == nil {
		h.NotFound(c, "Scheduler is not running")
		return
	}
	name := c.Param("name")
	if err := h.jobs.RunOnce(c.Request.Context(), name); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			h.NotFound(c, "Unknown job "+name)
			return
		case errors.Is(err, scheduler.ErrJobRunning):
			h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Job "+name+" is already running")
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"job": name, "status": "completed"})
}
