package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/pkg/export"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportPDF  ExportFormat = "pdf"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportedFile is a rendered download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type titledRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders datasets into downloadable files.
type ExportService struct {
	csv    csvRenderer
	pdf    titledRenderer
	xlsx   titledRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService; nil renderers fall back to the defaults.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf, xlsx titledRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, xlsx: xlsx, logger: logger}
}

// ParseExportFormat normalises a format string, defaulting to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportCSV:
		return ExportCSV, nil
	case ExportPDF:
		return ExportPDF, nil
	case ExportXLSX:
		return ExportXLSX, nil
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
}

// Render produces the file for the dataset in the requested format.
func (s *ExportService) Render(format ExportFormat, basename, title string, data export.Dataset) (*ExportedFile, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportCSV:
		payload, err = s.csv.Render(data)
		contentType = "text/csv"
	case ExportPDF:
		payload, err = s.pdf.Render(data, title)
		contentType = "application/pdf"
	case ExportXLSX:
		payload, err = s.xlsx.Render(data, title)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportedFile{
		Filename:    fmt.Sprintf("%s.%s", basename, format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}
