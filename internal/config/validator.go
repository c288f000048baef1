package config

import (
	"GreenSnapAPI/internal/entity"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("report_type", validateReportType)
	_ = v.RegisterValidation("resolution_status", validateResolutionStatus)
	return v
}

func validateReportType(fl validator.FieldLevel) bool {
	_, err := entity.ParseReportType(fl.Field().String())
	return err == nil
}

// validateResolutionStatus accepts only the terminal statuses a resolution may target.
func validateResolutionStatus(fl validator.FieldLevel) bool {
	status, err := entity.ParseReportStatus(fl.Field().String())
	return err == nil && status.IsTerminal()
}
