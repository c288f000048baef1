package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusResolved   ReportStatus = "resolved"
	StatusOutOfScope ReportStatus = "out-of-scope"
)

func ParseReportStatus(s string) (ReportStatus, error) {
	switch ReportStatus(strings.TrimSpace(s)) {
	case StatusPending:
		return StatusPending, nil
	case StatusResolved:
		return StatusResolved, nil
	case StatusOutOfScope:
		return StatusOutOfScope, nil
	}
	return "", fmt.Errorf("unknown report status %q", s)
}

func (s ReportStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusOutOfScope:
		return true
	case StatusPending:
		return false
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
// Pending is the only state with outgoing transitions.
func (s ReportStatus) CanTransitionTo(target ReportStatus) bool {
	switch s {
	case StatusPending:
		return target.IsTerminal()
	case StatusResolved, StatusOutOfScope:
		return false
	}
	return false
}

type ReportType string

const (
	TypeStandard  ReportType = "standard"
	TypeHazardous ReportType = "hazardous"
	TypeLarge     ReportType = "large"
)

func ParseReportType(s string) (ReportType, error) {
	switch ReportType(strings.TrimSpace(s)) {
	case "", TypeStandard:
		return TypeStandard, nil
	case TypeHazardous:
		return TypeHazardous, nil
	case TypeLarge:
		return TypeLarge, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

var ErrInvalidReport = errors.New("invalid report")

// PhotoRef points at an image held by the image host. DeleteKey is what the host
// needs to remove it again.
type PhotoRef struct {
	URL       string `json:"url" bson:"url"`
	DeleteKey string `json:"-" bson:"delete_key"`
}

func (p PhotoRef) Validate() error {
	if strings.TrimSpace(p.URL) == "" || strings.TrimSpace(p.DeleteKey) == "" {
		return fmt.Errorf("%w: photo url and delete key are required", ErrInvalidReport)
	}
	return nil
}

type Resolution struct {
	ResolvedBy string    `bson:"resolved_by"`
	ResolvedAt time.Time `bson:"resolved_at"`
	Photo      PhotoRef  `bson:"photo"`
	Location   GeoPoint  `bson:"location"`
}

func (r Resolution) Validate() error {
	if strings.TrimSpace(r.ResolvedBy) == "" {
		return fmt.Errorf("%w: resolved by is required", ErrInvalidReport)
	}
	if r.ResolvedAt.IsZero() {
		return fmt.Errorf("%w: resolved at is required", ErrInvalidReport)
	}
	if err := r.Photo.Validate(); err != nil {
		return err
	}
	if err := r.Location.Validate(); err != nil {
		return fmt.Errorf("%w: resolution location: %v", ErrInvalidReport, err)
	}
	return nil
}

type Report struct {
	ID             string       `bson:"_id"`
	Title          string       `bson:"title"`
	Details        string       `bson:"details"`
	Location       GeoPoint     `bson:"location"`
	Address        string       `bson:"address"`
	Photo          PhotoRef     `bson:"photo"`
	CreatedTime    time.Time    `bson:"created_time"`
	PhotoTimestamp time.Time    `bson:"photo_timestamp"`
	ReportType     ReportType   `bson:"report_type"`
	Status         ReportStatus `bson:"status"`
	OwnerID        string       `bson:"owner_id"`
	Resolution     *Resolution  `bson:"resolution,omitempty"`
}

// Validate checks the required fields and the resolution invariant: a pending
// report carries no resolution, a terminal one carries a complete resolution.
func (r *Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidReport)
	}
	if strings.TrimSpace(r.Details) == "" {
		return fmt.Errorf("%w: details are required", ErrInvalidReport)
	}
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidReport)
	}
	if err := r.Location.Validate(); err != nil {
		return fmt.Errorf("%w: location: %v", ErrInvalidReport, err)
	}
	if err := r.Photo.Validate(); err != nil {
		return err
	}
	if r.PhotoTimestamp.IsZero() {
		return fmt.Errorf("%w: photo timestamp is required", ErrInvalidReport)
	}
	if strings.TrimSpace(r.OwnerID) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidReport)
	}
	if _, err := ParseReportType(string(r.ReportType)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if _, err := ParseReportStatus(string(r.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}

	switch {
	case r.Status == StatusPending && r.Resolution != nil:
		return fmt.Errorf("%w: pending report cannot carry resolution data", ErrInvalidReport)
	case r.Status.IsTerminal() && r.Resolution == nil:
		return fmt.Errorf("%w: %s report requires resolution data", ErrInvalidReport, r.Status)
	case r.Resolution != nil:
		return r.Resolution.Validate()
	}
	return nil
}

func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	if r.Resolution != nil {
		res := *r.Resolution
		c.Resolution = &res
	}
	return &c
}
