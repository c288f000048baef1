package controller

import (
	"GreenSnapAPI/internal/helper"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// multipartOverhead leaves room for the text fields around an uploaded file.
const multipartOverhead = 1 << 20

func parseMultipart(w http.ResponseWriter, r *http.Request, maxFileBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxFileBytes + multipartOverhead); err != nil {
		return helper.NewValidationError("failed to parse form data")
	}
	return nil
}

// readFormFile returns the file bytes, or nil when the field is absent.
func readFormFile(r *http.Request, field string, maxBytes int64) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewValidationError(fmt.Sprintf("failed to read %s", field))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, helper.NewValidationError(fmt.Sprintf("failed to read %s", field))
	}
	return data, nil
}

// parseOptionalFloat returns nil for an empty value so required checks can run later.
func parseOptionalFloat(value, name string) (*float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, helper.NewValidationError(fmt.Sprintf("%s must be a number", name))
	}
	return &f, nil
}

func parseOptionalInt(value, name string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, helper.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}
