package controller

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/middleware"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/service"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type ReportController struct {
	cfg           *config.AppConfig
	reportService *service.ReportService
}

func NewReportController(cfg *config.AppConfig, reportService *service.ReportService) *ReportController {
	return &ReportController{
		cfg:           cfg,
		reportService: reportService,
	}
}

// CreateReport godoc
// @Summary      Create Report
// @Description  Submit a new pollution report with a photo. The report starts as pending.
// @Tags         report
// @Accept       multipart/form-data
// @Produce      json
// @Param        title            formData  string  true   "Title"
// @Param        details          formData  string  true   "Details"
// @Param        address          formData  string  true   "Address"
// @Param        longitude        formData  number  true   "Longitude"
// @Param        latitude         formData  number  true   "Latitude"
// @Param        photo_timestamp  formData  string  true   "Capture time (RFC3339)"
// @Param        report_type      formData  string  false  "standard, large or hazardous"
// @Param        photo            formData  file    true   "Photo"
// @Success      201  {object}  helper.ResponseSuccess{data=model.ReportResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      502  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/reports [post]
func (c *ReportController) CreateReport(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	if err := parseMultipart(w, r, c.cfg.MaxUploadBytes); err != nil {
		helper.WriteError(w, err)
		return
	}

	req := model.CreateReportRequest{
		Title:      r.FormValue("title"),
		Details:    r.FormValue("details"),
		Address:    r.FormValue("address"),
		ReportType: r.FormValue("report_type"),
	}

	var err error
	if req.Longitude, err = parseOptionalFloat(r.FormValue("longitude"), "longitude"); err != nil {
		helper.WriteError(w, err)
		return
	}
	if req.Latitude, err = parseOptionalFloat(r.FormValue("latitude"), "latitude"); err != nil {
		helper.WriteError(w, err)
		return
	}

	if ts := strings.TrimSpace(r.FormValue("photo_timestamp")); ts != "" {
		req.PhotoTimestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			helper.WriteError(w, helper.NewValidationError("photo_timestamp must be an RFC3339 time"))
			return
		}
	}

	if req.Photo, err = readFormFile(r, "photo", c.cfg.MaxUploadBytes); err != nil {
		helper.WriteError(w, err)
		return
	}

	resp, err := c.reportService.CreateReport(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteCreated(w, resp)
}

// GetReport godoc
// @Summary      Get Report
// @Description  Fetch a single report by id.
// @Tags         report
// @Produce      json
// @Param        reportID  path  string  true  "Report ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ReportResponse}
// @Failure      401  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/reports/{reportID} [get]
func (c *ReportController) GetReport(w http.ResponseWriter, r *http.Request) {
	resp, err := c.reportService.GetReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// ListNear godoc
// @Summary      Nearby Reports
// @Description  List reports within a radius of a point, nearest first.
// @Tags         report
// @Produce      json
// @Param        longitude  query  number  true   "Longitude"
// @Param        latitude   query  number  true   "Latitude"
// @Param        radius     query  number  false  "Radius in meters"
// @Param        status     query  string  false  "Status filter"
// @Param        limit      query  int     false  "Max results"
// @Success      200  {object}  helper.ResponseSuccess{data=[]model.NearbyReportResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/reports/near [get]
func (c *ReportController) ListNear(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var q model.NearReportsQuery
	var err error
	if q.Longitude, err = parseOptionalFloat(query.Get("longitude"), "longitude"); err != nil {
		helper.WriteError(w, err)
		return
	}
	if q.Latitude, err = parseOptionalFloat(query.Get("latitude"), "latitude"); err != nil {
		helper.WriteError(w, err)
		return
	}

	radius, err := parseOptionalFloat(query.Get("radius"), "radius")
	if err != nil {
		helper.WriteError(w, err)
		return
	}
	if radius != nil {
		q.RadiusMeters = *radius
	}

	if q.Limit, err = parseOptionalInt(query.Get("limit"), "limit"); err != nil {
		helper.WriteError(w, err)
		return
	}
	q.Status = query.Get("status")

	items, err := c.reportService.ListNear(r.Context(), q)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, items)
}
