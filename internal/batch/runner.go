package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sboissel/moderation-batch/internal/moderation"
)

// TextColumnHeader is the required input column holding the texts to test.
// The header is localized; input workbooks must match it exactly.
const TextColumnHeader = "Données à tester"

// Headers of the three columns appended to the output workbook.
const (
	RateHeader     = "Taux de rejet (%)"
	CategoryHeader = "Catégorie"
	StatusHeader   = "Status"
)

// ErrorStatus marks rows whose moderation cycle failed.
const ErrorStatus = "Error"

// DefaultOutputPath is where the augmented workbook is written.
const DefaultOutputPath = "SyntheticDataResult.xlsx"

// MissingColumnError reports an input workbook without the required column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing in the input file", e.Column)
}

// Moderator runs one full moderation cycle for a text.
type Moderator interface {
	Moderate(ctx context.Context, text string) (*moderation.Result, error)
}

// Config for the batch runner.
type Config struct {
	RejectionThreshold float64
	OutputPath         string
}

// Stats summarizes one batch run.
type Stats struct {
	Rows   int
	Errors int
}

// Runner moderates every row of an input workbook and writes the augmented
// table to Config.OutputPath. Rows are processed strictly sequentially; a
// failing row is recorded as ErrorStatus and never aborts the batch.
type Runner struct {
	client     Moderator
	threshold  float64
	outputPath string
	logger     *slog.Logger
}

func NewRunner(client Moderator, cfg Config, logger *slog.Logger) *Runner {
	if cfg.RejectionThreshold <= 0 {
		cfg.RejectionThreshold = moderation.DefaultRejectionThreshold
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = DefaultOutputPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		client:     client,
		threshold:  cfg.RejectionThreshold,
		outputPath: cfg.OutputPath,
		logger:     logger,
	}
}

// Run processes the workbook at path. It fails before any network call when
// the required column is absent; per-row failures are isolated.
func (r *Runner) Run(ctx context.Context, path string) (Stats, error) {
	start := time.Now()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open input workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("batch.workbook.close_error", "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Stats{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Stats{}, &MissingColumnError{Column: TextColumnHeader}
	}

	textCol := -1
	for i, h := range rows[0] {
		if h == TextColumnHeader {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return Stats{}, &MissingColumnError{Column: TextColumnHeader}
	}

	// Result columns go right of the existing table.
	resultCol := len(rows[0]) + 1
	setCell := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for i, h := range []string{RateHeader, CategoryHeader, StatusHeader} {
		setCell(resultCol+i, 1, h)
	}

	stats := Stats{Rows: len(rows) - 1}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		sheetRow := i + 2
		text := ""
		if textCol < len(row) {
			text = row[textCol]
		}
		r.logger.Info("batch.row.start", "row", i+1, "total", stats.Rows)

		percentage := 0.0
		category := ""
		status := ErrorStatus

		res, err := r.client.Moderate(ctx, text)
		if err != nil {
			stats.Errors++
			r.logger.Error("batch.row.error", "row", i+1, "error", err)
		} else {
			out := moderation.Interpret(res, r.threshold)
			percentage = out.RejectionPercentage
			category = out.Category
			status = out.Status
		}

		setCell(resultCol, sheetRow, percentage)
		setCell(resultCol+1, sheetRow, category)
		setCell(resultCol+2, sheetRow, status)
	}

	// Widen the appended columns.
	if first, err := excelize.ColumnNumberToName(resultCol); err == nil {
		if last, err := excelize.ColumnNumberToName(resultCol + 2); err == nil {
			_ = f.SetColWidth(sheet, first, last, 18)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return stats, fmt.Errorf("xlsx write: %w", err)
	}
	if err := os.WriteFile(r.outputPath, buf.Bytes(), 0644); err != nil {
		return stats, fmt.Errorf("write output file: %w", err)
	}

	r.logger.Info("batch.run.ok",
		"rows", stats.Rows,
		"errors", stats.Errors,
		"output", r.outputPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}
