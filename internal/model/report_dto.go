package model

import (
	"GreenSnapAPI/internal/entity"
	"time"
)

type CreateReportRequest struct {
	Title          string    `validate:"required,max=200"`
	Details        string    `validate:"required,max=2000"`
	Address        string    `validate:"required,max=300"`
	Longitude      *float64  `validate:"required"`
	Latitude       *float64  `validate:"required"`
	PhotoTimestamp time.Time `validate:"required"`
	ReportType     string    `validate:"report_type"`
	Photo          []byte    `validate:"required"`
}

type ResolveReportRequest struct {
	Status    string   `json:"status" validate:"required,resolution_status"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Image     []byte   `json:"image" validate:"required"`
}

type ListReportsQuery struct {
	Status     string
	ReportType string
	Sort       string
	Limit      int
	Cursor     string
}

type NearReportsQuery struct {
	Longitude    *float64
	Latitude     *float64
	RadiusMeters float64
	Status       string
	Limit        int
}

type ResolutionResponse struct {
	ResolvedBy string          `json:"resolved_by"`
	ResolvedAt time.Time       `json:"resolved_at"`
	PhotoURL   string          `json:"photo_url"`
	Location   entity.GeoPoint `json:"location"`
}

type ReportResponse struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Details        string              `json:"details"`
	Address        string              `json:"address"`
	Location       entity.GeoPoint     `json:"location"`
	PhotoURL       string              `json:"photo_url"`
	CreatedTime    time.Time           `json:"created_time"`
	PhotoTimestamp time.Time           `json:"photo_timestamp"`
	ReportType     entity.ReportType   `json:"report_type"`
	Status         entity.ReportStatus `json:"status"`
	OwnerID        string              `json:"owner_id"`
	Resolution     *ResolutionResponse `json:"resolution"`
}

// TriageItem is a report as listed to supervisors. OwnerDegraded marks items
// whose owner lookup failed.
type TriageItem struct {
	ReportResponse
	Owner         *OwnerSummaryDTO `json:"owner,omitempty"`
	OwnerDegraded bool             `json:"owner_degraded,omitempty"`
}

type NearbyReportResponse struct {
	ReportResponse
	DistanceMeters float64 `json:"distance_meters"`
}

func ToReportResponse(r *entity.Report) ReportResponse {
	resp := ReportResponse{
		ID:             r.ID,
		Title:          r.Title,
		Details:        r.Details,
		Address:        r.Address,
		Location:       r.Location,
		PhotoURL:       r.Photo.URL,
		CreatedTime:    r.CreatedTime,
		PhotoTimestamp: r.PhotoTimestamp,
		ReportType:     r.ReportType,
		Status:         r.Status,
		OwnerID:        r.OwnerID,
	}

	if r.Resolution != nil {
		resp.Resolution = &ResolutionResponse{
			ResolvedBy: r.Resolution.ResolvedBy,
			ResolvedAt: r.Resolution.ResolvedAt,
			PhotoURL:   r.Resolution.Photo.URL,
			Location:   r.Resolution.Location,
		}
	}

	return resp
}
