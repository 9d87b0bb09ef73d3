package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhi542/MouldLensAI/internal/entity"
	"github.com/abhi542/MouldLensAI/internal/repository"
)

// Service is a tiny façade over the readings repository that produces XLSX
// bytes for offline audit exports.
type Service struct {
	readings repository.ReadingRepository
	logger   *slog.Logger
}

func NewService(readings repository.ReadingRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{readings: readings, logger: logger}
}

// ExportReadingsXLSX returns a workbook with one row per outcome record in
// the [from, to) window, newest first.
func (s *Service) ExportReadingsXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	start := time.Now()

	recs, err := s.readings.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	return s.buildWorkbook(recs, start)
}

// BuildWorkbook renders pre-fetched records; split out so tests don't need
// a live document store.
func (s *Service) BuildWorkbook(recs []entity.OutcomeRecord) ([]byte, error) {
	return s.buildWorkbook(recs, time.Now())
}

func (s *Service) buildWorkbook(recs []entity.OutcomeRecord, start time.Time) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Readings"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Timestamp (UTC)",
		"Camera",
		"Status",
		"Cope",
		"Drag Main",
		"Drag Sub",
		"Processing Time (ms)",
		"Message",
		"Corrected From",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.Timestamp.UTC().Format(time.RFC3339))
		write(2, r.CameraID)
		write(3, string(r.Status))
		if r.Cope != nil {
			write(4, *r.Cope)
		}
		if r.Drag != nil {
			write(5, r.Drag.Main)
			if r.Drag.Sub != nil {
				write(6, *r.Drag.Sub)
			}
		}
		write(7, r.ProcessingTimeMS)
		write(8, r.Message)
		if r.CorrectedFrom != "" {
			write(9, r.CorrectedFrom)
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheet, "B", "C", 12)
	_ = f.SetColWidth(sheet, "D", "F", 12) // digits
	_ = f.SetColWidth(sheet, "G", "G", 18)
	_ = f.SetColWidth(sheet, "H", "H", 44) // message
	_ = f.SetColWidth(sheet, "I", "I", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
