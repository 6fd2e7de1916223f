package interfaces

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"job-board/application"
	"job-board/domain"
	"job-board/infrastructure"
)

const challengeField = "cf-turnstile-response"

type HTTPHandler struct {
	Service *application.BoardService
	DB      *gorm.DB
	Metrics *infrastructure.Metrics
}

func NewHTTPHandler(router *gin.Engine, service *application.BoardService, db *gorm.DB, metrics *infrastructure.Metrics) {
	h := &HTTPHandler{Service: service, DB: db, Metrics: metrics}

	router.GET("/healthz", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	router.POST("/boards", h.CreateBoard)

	router.GET("/admin", h.ResolveAdminToken)
	router.POST("/admin/magic-link", h.RequestAdminLink)

	router.GET("/edit-job", h.LoadJobForEdit)
	router.POST("/edit-job", h.EditJob)
	router.POST("/edit-job/delete", h.DeleteOwnJob)
	router.POST("/edit-job/magic-link", h.RequestEditLink)

	router.GET("/:slug", h.ViewBoard)
	router.GET("/:slug/jobs/:jobId", h.ViewJob)
	router.POST("/:slug/jobs", h.PostJob)

	router.GET("/:slug/admin", h.AdminDashboard)
	router.POST("/:slug/admin", h.AdminUpdateBoard)
	router.POST("/:slug/admin/jobs/:jobId/delete", h.AdminDeleteJob)
	router.POST("/:slug/admin/delete", h.AdminDeleteBoard)
}

type createBoardForm struct {
	Name        string `form:"name"`
	Email       string `form:"email"`
	Description string `form:"description"`
	Challenge   string `form:"cf-turnstile-response"`
}

type postJobForm struct {
	Title       string `form:"title"`
	Company     string `form:"company"`
	Location    string `form:"location"`
	Category    string `form:"category"`
	JobType     string `form:"job_type"`
	Remote      string `form:"remote"`
	SalaryMin   string `form:"salary_min"`
	SalaryMax   string `form:"salary_max"`
	Description string `form:"description"`
	ContactInfo string `form:"contact_info"`
	PosterEmail string `form:"poster_email"`
	Challenge   string `form:"cf-turnstile-response"`
}

type editJobForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	ContactInfo string `form:"contact_info"`
}

type adminLinkForm struct {
	Slug      string `form:"slug" binding:"required"`
	Email     string `form:"email"`
	Challenge string `form:"cf-turnstile-response"`
}

type editLinkForm struct {
	JobID     uint   `form:"job_id" binding:"required"`
	Email     string `form:"email"`
	Challenge string `form:"cf-turnstile-response"`
}

// render writes a service result. Redirects use 303 so a form POST turns
// into a GET on the target.
func (h *HTTPHandler) render(c *gin.Context, res domain.Result) {
	h.renderWith(c, res, http.StatusSeeOther)
}

func (h *HTTPHandler) renderWith(c *gin.Context, res domain.Result, redirectStatus int) {
	switch res.Kind {
	case domain.ResultSuccess:
		if res.IsRedirect() {
			c.Redirect(redirectStatus, res.Redirect)
			return
		}
		body := gin.H{"success": true}
		if res.Message != "" {
			body["message"] = res.Message
		}
		if res.Data != nil {
			body["data"] = res.Data
		}
		c.JSON(http.StatusOK, body)
	case domain.ResultValidationError:
		body := gin.H{"error": res.Message}
		if res.Form != nil {
			body["form"] = res.Form
		}
		c.JSON(http.StatusBadRequest, body)
	case domain.ResultNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": res.Message})
	case domain.ResultForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": res.Message})
	case domain.ResultConflict:
		c.JSON(http.StatusConflict, gin.H{"error": res.Message})
	default:
		requestLogger(c).WithError(res.Err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Message})
	}
}

func clientIP(c *gin.Context) string {
	return infrastructure.ResolveClientIP(c.Request.Header)
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func parseJobID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("jobId")), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return 0, false
	}
	return uint(id), true
}

func (h *HTTPHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		requestLogger(c).WithError(err).Warn("database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) CreateBoard(c *gin.Context) {
	var form createBoardForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.render(c, h.Service.CreateBoard(c.Request.Context(), application.CreateBoardInput{
		Name:        form.Name,
		Email:       form.Email,
		Description: form.Description,
		Challenge:   form.Challenge,
		RemoteIP:    clientIP(c),
	}))
}

// ResolveAdminToken answers the link from the admin email with a 302 to
// the board's own admin page.
func (h *HTTPHandler) ResolveAdminToken(c *gin.Context) {
	res := h.Service.ResolveAdminToken(c.Request.Context(), c.Query("token"))
	h.renderWith(c, res, http.StatusFound)
}

func (h *HTTPHandler) RequestAdminLink(c *gin.Context) {
	var form adminLinkForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slug is required"})
		return
	}
	h.render(c, h.Service.RequestAdminLink(c.Request.Context(), form.Slug, application.LinkRequest{
		Email:     form.Email,
		Challenge: form.Challenge,
		RemoteIP:  clientIP(c),
	}))
}

func (h *HTTPHandler) LoadJobForEdit(c *gin.Context) {
	h.render(c, h.Service.LoadJobForEdit(c.Request.Context(), c.Query("token")))
}

func (h *HTTPHandler) EditJob(c *gin.Context) {
	var form editJobForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.render(c, h.Service.EditJob(c.Request.Context(), c.Query("token"), application.EditJobInput{
		Title:       form.Title,
		Description: form.Description,
		ContactInfo: form.ContactInfo,
	}))
}

func (h *HTTPHandler) DeleteOwnJob(c *gin.Context) {
	token := c.PostForm("token")
	if token == "" {
		token = c.Query("token")
	}
	h.render(c, h.Service.DeleteOwnJob(c.Request.Context(), token))
}

func (h *HTTPHandler) RequestEditLink(c *gin.Context) {
	var form editLinkForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id is required"})
		return
	}
	h.render(c, h.Service.RequestEditLink(c.Request.Context(), form.JobID, application.LinkRequest{
		Email:     form.Email,
		Challenge: form.Challenge,
		RemoteIP:  clientIP(c),
	}))
}

func (h *HTTPHandler) ViewBoard(c *gin.Context) {
	h.render(c, h.Service.ViewBoard(c.Request.Context(), c.Param("slug")))
}

func (h *HTTPHandler) ViewJob(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}
	h.render(c, h.Service.ViewJob(c.Request.Context(), c.Param("slug"), jobID))
}

func (h *HTTPHandler) PostJob(c *gin.Context) {
	var form postJobForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.render(c, h.Service.PostJob(c.Request.Context(), c.Param("slug"), application.PostJobInput{
		Title:       form.Title,
		Company:     form.Company,
		Location:    form.Location,
		Category:    form.Category,
		JobType:     form.JobType,
		Remote:      isChecked(form.Remote),
		SalaryMin:   form.SalaryMin,
		SalaryMax:   form.SalaryMax,
		Description: form.Description,
		ContactInfo: form.ContactInfo,
		PosterEmail: form.PosterEmail,
		Challenge:   form.Challenge,
		RemoteIP:    clientIP(c),
	}))
}

func (h *HTTPHandler) AdminDashboard(c *gin.Context) {
	h.render(c, h.Service.AdminDashboard(c.Request.Context(), c.Param("slug"), c.Query("token")))
}

// AdminUpdateBoard only changes the fields present in the form, so an
// empty description clears it while an omitted one is left alone.
func (h *HTTPHandler) AdminUpdateBoard(c *gin.Context) {
	var in application.UpdateBoardInput
	if v, ok := c.GetPostForm("name"); ok {
		in.Name = domain.Some(v)
	}
	if v, ok := c.GetPostForm("description"); ok {
		in.Description = domain.Some(v)
	}
	if v, ok := c.GetPostForm("admin_email"); ok {
		in.AdminEmail = domain.Some(v)
	}
	h.render(c, h.Service.AdminUpdateBoard(c.Request.Context(), c.Param("slug"), c.Query("token"), in))
}

func (h *HTTPHandler) AdminDeleteJob(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}
	h.render(c, h.Service.AdminDeleteJob(c.Request.Context(), c.Param("slug"), c.Query("token"), jobID))
}

func (h *HTTPHandler) AdminDeleteBoard(c *gin.Context) {
	h.render(c, h.Service.AdminDeleteBoard(c.Request.Context(), c.Param("slug"), c.Query("token")))
}

func requestLogger(c *gin.Context) *log.Entry {
	if entry, ok := c.Get(loggerKey); ok {
		if e, ok := entry.(*log.Entry); ok {
			return e
		}
	}
	return log.NewEntry(log.StandardLogger())
}
