package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReportFormat string

const (
	FormatTXT  ReportFormat = "txt"
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
)

func (f ReportFormat) IsValid() bool {
	switch f {
	case FormatTXT, FormatCSV, FormatXLSX:
		return true
	}
	return false
}

func (f ReportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

const DefaultReportType = "Crime Analysis Report"

type Report struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	ReportType  string       `json:"report_type" db:"report_type"`
	DateFrom    time.Time    `json:"date_from" db:"date_from"`
	DateTo      time.Time    `json:"date_to" db:"date_to"`
	CrimeType   *string      `json:"crime_type,omitempty" db:"crime_type"`
	Region      *string      `json:"region,omitempty" db:"region"`
	Format      ReportFormat `json:"format" db:"format"`
	GeneratedBy uuid.UUID    `json:"generated_by" db:"generated_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type ReportInput struct {
	ReportType *string      `json:"report_type,omitempty" validate:"omitempty,max=100"`
	DateFrom   *time.Time   `json:"date_from" validate:"required"`
	DateTo     *time.Time   `json:"date_to" validate:"required"`
	CrimeType  *string      `json:"crime_type,omitempty" validate:"omitempty,max=100"`
	Region     *string      `json:"region,omitempty" validate:"omitempty,max=100"`
	Format     ReportFormat `json:"format" validate:"required,oneof=txt csv xlsx"`
}

// ReportFile is a rendered report ready to be served as a download.
type ReportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}
