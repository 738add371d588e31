package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/export"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const reportPageSize = 100

type resultLister interface {
	List(ctx context.Context, filter models.ExamResultFilter) ([]models.ExamResultDetail, int, error)
}

// ReportServiceParams groups dependencies for ReportService.
type ReportServiceParams struct {
	Results   resultLister
	Classes   classReader
	Students  studentReader
	Identity  roleResolver
	Exporter  *ExportService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// ReportService aggregates exam results per class or student.
type ReportService struct {
	results   resultLister
	classes   classReader
	students  studentReader
	identity  roleResolver
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(params ReportServiceParams) *ReportService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Exporter == nil {
		params.Exporter = NewExportService(params.Logger, nil, nil, nil)
	}
	return &ReportService{
		results:   params.Results,
		classes:   params.Classes,
		students:  params.Students,
		identity:  params.Identity,
		exporter:  params.Exporter,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// ResultsByClass returns all results recorded in a class.
func (s *ReportService) ResultsByClass(ctx context.Context, classID string, query dto.ResultReportQuery, actor *models.JWTClaims) (*dto.ResultReport, error) {
	filter, err := s.filterFor(query)
	if err != nil {
		return nil, err
	}
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOrInternal(err, "class not found", "failed to load class")
	}
	if !rc.CanWriteClass(class.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class")
	}
	filter.ClassID = class.ID
	return s.collect(ctx, class.ID, class.Name, filter)
}

// ResultsByStudent returns all results of one student.
func (s *ReportService) ResultsByStudent(ctx context.Context, studentID string, query dto.ResultReportQuery, actor *models.JWTClaims) (*dto.ResultReport, error) {
	filter, err := s.filterFor(query)
	if err != nil {
		return nil, err
	}
	rc, err := s.identity.Resolve(ctx, actor)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	if err := authoriseStudentRead(rc, student); err != nil {
		return nil, err
	}
	filter.StudentID = student.ID
	return s.collect(ctx, student.ID, student.FullName(), filter)
}

// ExportClassResults renders the class results report as a download.
func (s *ReportService) ExportClassResults(ctx context.Context, classID, format string, query dto.ResultReportQuery, actor *models.JWTClaims) (*ExportedFile, error) {
	exportFormat, err := ParseExportFormat(format)
	if err != nil {
		return nil, err
	}
	report, err := s.ResultsByClass(ctx, classID, query, actor)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Course", "Exam Type", "Exam Date", "Score", "Grade", "Remarks"},
		Rows:    make([][]string, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		remarks := ""
		if r.Remarks != nil {
			remarks = *r.Remarks
		}
		dataset.AddRow(r.StudentName, r.CourseName, r.ExamType, r.ExamDate, fmt.Sprintf("%.2f", r.Score), r.Grade, remarks)
	}
	if report.Count > 0 {
		dataset.Footer = []string{"Class average", "", "", "", fmt.Sprintf("%.2f", report.AverageScore), report.AverageGrade, fmt.Sprintf("%d results", report.Count)}
	}

	file, err := s.exporter.Render(exportFormat, "class-results-"+slug(report.SubjectName), "Exam results: "+report.SubjectName, dataset)
	if err != nil {
		return nil, err
	}
	s.logger.Info("class results exported",
		zap.String("class_id", classID),
		zap.String("format", string(exportFormat)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return file, nil
}

func (s *ReportService) filterFor(query dto.ResultReportQuery) (models.ExamResultFilter, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.ExamResultFilter{}, appErrors.Invalid(err, "invalid report query")
	}
	filter := models.ExamResultFilter{ExamType: query.ExamType, PageSize: reportPageSize}
	if query.ExamDate != "" {
		date, err := time.Parse(dateLayout, query.ExamDate)
		if err != nil {
			return models.ExamResultFilter{}, appErrors.Clone(appErrors.ErrValidation, "examDate must use YYYY-MM-DD")
		}
		filter.ExamDate = &date
	}
	return filter, nil
}

// collect walks every page of the filter and averages the scores.
func (s *ReportService) collect(ctx context.Context, subjectID, subjectName string, filter models.ExamResultFilter) (*dto.ResultReport, error) {
	report := &dto.ResultReport{
		SubjectID:   subjectID,
		SubjectName: subjectName,
		Results:     []dto.ExamResultView{},
	}
	var sum float64
	for page := 1; ; page++ {
		filter.Page = page
		details, total, err := s.results.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load exam results")
		}
		for _, d := range details {
			report.Results = append(report.Results, detailView(d))
			sum += d.Score
		}
		if len(details) == 0 || len(report.Results) >= total {
			break
		}
	}
	report.Count = len(report.Results)
	if report.Count > 0 {
		report.AverageScore = sum / float64(report.Count)
		report.AverageGrade = GradeOf(report.AverageScore)
	}
	return report, nil
}

func slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return "export"
	}
	return strings.Join(fields, "-")
}
