package controller

import (
	"GreenSnapAPI/internal/config"
	"GreenSnapAPI/internal/helper"
	"GreenSnapAPI/internal/middleware"
	"GreenSnapAPI/internal/model"
	"GreenSnapAPI/internal/service"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type SupervisorController struct {
	cfg               *config.AppConfig
	triageService     *service.TriageService
	resolutionService *service.ResolutionService
}

func NewSupervisorController(cfg *config.AppConfig, triageService *service.TriageService, resolutionService *service.ResolutionService) *SupervisorController {
	return &SupervisorController{
		cfg:               cfg,
		triageService:     triageService,
		resolutionService: resolutionService,
	}
}

// ListReports godoc
// @Summary      Triage Reports
// @Description  Page through reports by status, newest first by default, with owner summaries.
// @Tags         supervisor
// @Produce      json
// @Param        status       query  string  false  "pending (default), resolved or out-of-scope"
// @Param        report_type  query  string  false  "standard, large or hazardous"
// @Param        sort         query  string  false  "newest (default) or oldest"
// @Param        limit        query  int     false  "Page size"
// @Param        cursor       query  string  false  "Pagination cursor"
// @Success      200  {object}  helper.ResponseWithPagination{data=[]model.TriageItem}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/supervisor/reports [get]
func (c *SupervisorController) ListReports(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), "limit")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	items, meta, err := c.triageService.ListForSupervisor(r.Context(), userContext.ID, model.ListReportsQuery{
		Status:     query.Get("status"),
		ReportType: query.Get("report_type"),
		Sort:       query.Get("sort"),
		Limit:      limit,
		Cursor:     query.Get("cursor"),
	})
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccessWithPagination(w, items, meta)
}

// GetReport godoc
// @Summary      Get Report (Supervisor)
// @Description  Fetch one report with its owner summary.
// @Tags         supervisor
// @Produce      json
// @Param        reportID  path  string  true  "Report ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.TriageItem}
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/supervisor/reports/{reportID} [get]
func (c *SupervisorController) GetReport(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	item, err := c.triageService.GetForSupervisor(r.Context(), userContext.ID, chi.URLParam(r, "reportID"))
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, item)
}

// ResolveReport godoc
// @Summary      Resolve Report
// @Description  Close a pending report as resolved or out-of-scope with a photo and location.
// @Description  Accepts JSON with a base64 image, or multipart form data with an image file.
// @Tags         supervisor
// @Accept       json,mpfd
// @Produce      json
// @Param        reportID  path  string                      true  "Report ID"
// @Param        request   body  model.ResolveReportRequest  true  "Resolution"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ReportResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      409  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      502  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/supervisor/reports/{reportID}/resolve [put]
func (c *SupervisorController) ResolveReport(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	req, err := c.decodeResolveRequest(w, r)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	resp, err := c.resolutionService.ResolveReport(r.Context(), userContext.ID, chi.URLParam(r, "reportID"), req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

func (c *SupervisorController) decodeResolveRequest(w http.ResponseWriter, r *http.Request) (model.ResolveReportRequest, error) {
	var req model.ResolveReportRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		// base64 grows the payload by a third
		r.Body = http.MaxBytesReader(w, r.Body, c.cfg.MaxUploadBytes*4/3+multipartOverhead)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, helper.NewValidationError("invalid request body")
		}
		return req, nil
	}

	if err := parseMultipart(w, r, c.cfg.MaxUploadBytes); err != nil {
		return req, err
	}

	var err error
	req.Status = r.FormValue("status")
	if req.Longitude, err = parseOptionalFloat(r.FormValue("longitude"), "longitude"); err != nil {
		return req, err
	}
	if req.Latitude, err = parseOptionalFloat(r.FormValue("latitude"), "latitude"); err != nil {
		return req, err
	}
	if req.Image, err = readFormFile(r, "image", c.cfg.MaxUploadBytes); err != nil {
		return req, err
	}

	return req, nil
}
