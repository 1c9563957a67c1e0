package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/ndhu-booking/room-booking-server/models"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	exportSheet = "Bookings"
)

var exportHeader = []string{
	"application_id", "submitted_at", "name", "email", "organization", "phone", "purpose",
	"application_status", "verified_at", "review_note",
	"slot_id", "room_id", "date", "start_time", "end_time", "slot_status",
}

type ExportStore interface {
	CreateExportJob(ctx context.Context, job *models.ExportJob) error
	GetExportJob(ctx context.Context, id string) (*models.ExportJob, error)
	SaveExportJob(ctx context.Context, job *models.ExportJob) error
	ListApplicationsSubmitted(ctx context.Context, from, to time.Time) ([]models.Application, error)
}

// Uploader đẩy file lên storage ngoài và trả về URL công khai.
type Uploader interface {
	Upload(data []byte, folder, filename, contentType string) (string, error)
}

// ExportService chạy job xuất đơn đặt phòng ở goroutine nền.
type ExportService struct {
	store    ExportStore
	uploader Uploader
	dir      string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewExportService: uploader có thể nil, khi đó chỉ giữ file cục bộ trong dir.
func NewExportService(store ExportStore, uploader Uploader, dir string, logger *slog.Logger) *ExportService {
	if dir == "" {
		dir = "./exports"
	}
	return &ExportService{store: store, uploader: uploader, dir: dir, logger: logger}
}

// Start tạo job ở trạng thái queued. from/to (YYYY-MM-DD) tính theo ngày nộp đơn, có thể bỏ trống.
func (s *ExportService) Start(ctx context.Context, format, from, to, createdBy string) (*models.ExportJob, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, ErrInvalidExportFormat
	}
	if _, _, err := exportRange(from, to); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		JobID:     uuid.NewString(),
		Format:    format,
		DateFrom:  strings.TrimSpace(from),
		DateTo:    strings.TrimSpace(to),
		Status:    models.ExportQueued,
		CreatedBy: createdBy,
	}
	if err := s.store.CreateExportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(context.Background(), job.JobID)
	}()
	return job, nil
}

func (s *ExportService) Get(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := s.store.GetExportJob(ctx, jobID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get export job: %w", err)
	}
	return job, nil
}

// Wait chờ các job đang chạy, gọi khi tắt server.
func (s *ExportService) Wait() {
	s.wg.Wait()
}

func (s *ExportService) process(ctx context.Context, jobID string) {
	job, err := s.store.GetExportJob(ctx, jobID)
	if err != nil {
		s.logger.ErrorContext(ctx, "load export job failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	job.Status = models.ExportProcessing
	if err := s.store.SaveExportJob(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "update export job failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}

	if err := s.run(ctx, job); err != nil {
		msg := err.Error()
		job.Status = models.ExportFailed
		job.ErrorMsg = &msg
		s.logger.ErrorContext(ctx, "export job failed", slog.String("job_id", jobID), slog.Any("error", err))
	} else {
		job.Status = models.ExportDone
		s.logger.InfoContext(ctx, "export job done", slog.String("job_id", jobID), slog.String("format", job.Format))
	}
	if err := s.store.SaveExportJob(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "update export job failed", slog.String("job_id", jobID), slog.Any("error", err))
	}
}

func (s *ExportService) run(ctx context.Context, job *models.ExportJob) error {
	from, to, err := exportRange(job.DateFrom, job.DateTo)
	if err != nil {
		return err
	}
	apps, err := s.store.ListApplicationsSubmitted(ctx, from, to)
	if err != nil {
		return err
	}
	rows := exportRows(apps)

	var (
		data        []byte
		contentType string
	)
	switch job.Format {
	case FormatXLSX:
		data, err = encodeXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		data, err = encodeCSV(rows)
		contentType = "text/csv"
	}
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("bookings_%s.%s", job.JobID, job.Format)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	outPath := filepath.Join(s.dir, filename)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	job.FilePath = &outPath

	if s.uploader != nil {
		url, err := s.uploader.Upload(data, "exports", filename, contentType)
		if err != nil {
			// Upload lỗi vẫn còn file cục bộ để tải.
			s.logger.WarnContext(ctx, "upload export failed", slog.String("job_id", job.JobID), slog.Any("error", err))
		} else {
			job.FileURL = &url
		}
	}
	return nil
}

// exportRange đổi from/to (bao gồm cả hai đầu) thành nửa khoảng [from, to+1 ngày).
func exportRange(from, to string) (time.Time, time.Time, error) {
	start := time.Unix(0, 0).UTC()
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if f := strings.TrimSpace(from); f != "" {
		d, err := parseDate(f)
		if err != nil {
			return start, end, ErrInvalidExportRange
		}
		start = d
	}
	if t := strings.TrimSpace(to); t != "" {
		d, err := parseDate(t)
		if err != nil {
			return start, end, ErrInvalidExportRange
		}
		end = d.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return start, end, ErrInvalidExportRange
	}
	return start, end, nil
}

// exportRows trả về mỗi slot một dòng; đơn không có slot vẫn có một dòng.
func exportRows(apps []models.Application) [][]string {
	rows := [][]string{exportHeader}
	for _, app := range apps {
		verified := ""
		if app.VerifiedAt != nil {
			verified = app.VerifiedAt.UTC().Format(time.RFC3339)
		}
		base := []string{
			app.ID,
			app.SubmittedAt.UTC().Format(time.RFC3339),
			app.Name,
			app.Email,
			app.Organization,
			app.Phone,
			app.Purpose,
			app.Status,
			verified,
			app.ReviewNote,
		}
		if len(app.Slots) == 0 {
			rows = append(rows, append(append([]string{}, base...), "", app.RoomID, "", "", "", ""))
			continue
		}
		for _, slot := range app.Slots {
			row := append([]string{}, base...)
			row = append(row, slot.ID, slot.RoomID, slot.Date, slot.StartTime, slot.EndTime, slot.Status)
			rows = append(rows, row)
		}
	}
	return rows
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
