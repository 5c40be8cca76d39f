package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/pkg/validate"
	"citizen-registry/internal/repository"
)

const (
	dateLayout = "2006-01-02"
	sheetName  = "Registrations"
)

var columns = []string{
	"Registration Code", "Kind", "First Name", "Last Name", "Status",
	"Crime Type", "Severity", "Wanted Status", "State", "LGA", "Created At",
}

type Service interface {
	Generate(ctx context.Context, actor domain.Actor, input domain.ReportInput) (*domain.Report, error)
	Export(ctx context.Context, id uuid.UUID) (*domain.ReportFile, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, limit int) ([]domain.Report, error)
}

type service struct {
	reportRepo repository.ReportRepository
	regRepo    repository.RegistrationRepository
	logger     *zap.Logger
}

func NewService(reportRepo repository.ReportRepository, regRepo repository.RegistrationRepository, logger *zap.Logger) Service {
	return &service{reportRepo: reportRepo, regRepo: regRepo, logger: logger}
}

func (s *service) Generate(ctx context.Context, actor domain.Actor, input domain.ReportInput) (*domain.Report, error) {
	if actor.UserID == nil {
		return nil, &domain.ForbiddenError{Message: "reports require a signed-in analyst"}
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	from, to := truncateDay(*input.DateFrom), truncateDay(*input.DateTo)
	if from.After(to) {
		return nil, domain.NewFieldError("date_from", "must not be after date_to")
	}

	reportType := domain.DefaultReportType
	if input.ReportType != nil && strings.TrimSpace(*input.ReportType) != "" {
		reportType = strings.TrimSpace(*input.ReportType)
	}

	report := &domain.Report{
		ID:          uuid.New(),
		ReportType:  reportType,
		DateFrom:    from,
		DateTo:      to,
		CrimeType:   blankToNil(input.CrimeType),
		Region:      blankToNil(input.Region),
		Format:      input.Format,
		GeneratedBy: *actor.UserID,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, domain.NewRemoteUnavailable("create report", err)
	}
	return report, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("get report", err)
	}
	if report == nil {
		return nil, domain.NewNotFoundError("report", id)
	}
	return report, nil
}

func (s *service) List(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	reports, err := s.reportRepo.List(ctx, limit)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("list reports", err)
	}
	return reports, nil
}

// Export renders the registrations created inside the report's date range.
// DateTo is inclusive.
func (s *service) Export(ctx context.Context, id uuid.UUID) (*domain.ReportFile, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := truncateDay(report.DateFrom)
	to := truncateDay(report.DateTo).AddDate(0, 0, 1)
	regs, err := s.regRepo.ListCreatedBetween(ctx, from, to, report.CrimeType, report.Region)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("load report rows", err)
	}

	rows := make([][]string, 0, len(regs))
	for i := range regs {
		rows = append(rows, toRow(&regs[i]))
	}

	var data []byte
	switch report.Format {
	case domain.FormatCSV:
		data, err = renderCSV(rows)
	case domain.FormatXLSX:
		data, err = renderXLSX(report, rows)
	default:
		data, err = renderText(report, rows)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	s.logger.Info("report exported",
		zap.String("report_id", report.ID.String()),
		zap.String("format", string(report.Format)),
		zap.Int("rows", len(rows)),
	)

	return &domain.ReportFile{
		FileName:    fileName(report),
		ContentType: report.Format.ContentType(),
		Data:        data,
	}, nil
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(report *domain.Report, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	for i, header := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, err
	}
	summary := [][]string{
		{"Report Type", report.ReportType},
		{"Date From", report.DateFrom.Format(dateLayout)},
		{"Date To", report.DateTo.Format(dateLayout)},
		{"Crime Type", orAll(report.CrimeType)},
		{"Region", orAll(report.Region)},
		{"Records", fmt.Sprintf("%d", len(rows))},
	}
	for i, pair := range summary {
		f.SetCellValue("Summary", fmt.Sprintf("A%d", i+1), pair[0])
		f.SetCellValue("Summary", fmt.Sprintf("B%d", i+1), pair[1])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderText(report *domain.Report, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", report.ReportType)
	fmt.Fprintf(&buf, "Period: %s to %s\n", report.DateFrom.Format(dateLayout), report.DateTo.Format(dateLayout))
	fmt.Fprintf(&buf, "Crime type: %s\n", orAll(report.CrimeType))
	fmt.Fprintf(&buf, "Region: %s\n", orAll(report.Region))
	fmt.Fprintf(&buf, "Records: %d\n\n", len(rows))

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRow(r *domain.Registration) []string {
	row := []string{
		r.RegistrationCode,
		string(r.Kind),
		r.FirstName,
		r.LastName,
		string(r.Status),
		deref(r.CrimeType),
		"",
		"",
		r.State,
		r.LGA,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.Severity != nil {
		row[6] = string(*r.Severity)
	}
	if r.WantedStatus != nil {
		row[7] = string(*r.WantedStatus)
	}
	return row
}

func fileName(report *domain.Report) string {
	slug := strings.ToLower(strings.Join(strings.Fields(report.ReportType), "-"))
	return fmt.Sprintf("%s-%s-%s.%s", slug, report.DateFrom.Format(dateLayout), report.DateTo.Format(dateLayout), report.Format)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func orAll(v *string) string {
	if v == nil {
		return "All"
	}
	return *v
}
