// Package importer runs bulk member imports from CSV and XLSX files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"memberhub/internal/lib/logger"
	"memberhub/internal/mapper"
	"memberhub/internal/members"
	"memberhub/internal/models"
	dto "memberhub/pkg/models"
)

var (
	ErrBusy        = errors.New("an import is already running")
	ErrInvalidRows = errors.New("import has invalid rows")
	ErrEmpty       = errors.New("import file has no data rows")
)

// Creator is the part of the member service an import needs.
type Creator interface {
	Create(ctx context.Context, form models.Form) (*models.Member, members.Outcome, error)
	BulkCreate(ctx context.Context, forms []models.Form) ([]models.Member, members.Outcome, error)
}

// ProgressReporter is told after each processed row.
type ProgressReporter interface {
	Progress(done, total int)
}

type Importer struct {
	creator  Creator
	mapper   *mapper.Mapper
	progress ProgressReporter
	log      *slog.Logger

	running atomic.Bool
	mu      sync.Mutex
	state   dto.ImportProgress
}

func New(creator Creator, m *mapper.Mapper, progress ProgressReporter, log *slog.Logger) *Importer {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = mapper.New()
	}
	return &Importer{
		creator:  creator,
		mapper:   m,
		progress: progress,
		log:      log.With(slog.String("component", "importer")),
	}
}

// Validate maps rows without importing anything.
func (im *Importer) Validate(rows []mapper.Row) mapper.Result {
	return im.mapper.Map(rows)
}

// Progress returns the state of the running or most recent import.
func (im *Importer) Progress() dto.ImportProgress {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.state
}

// Run validates every row and, when all are valid, imports them either one
// webhook call per row or as one batch. Only one import runs at a time. Once
// started the import is not cancelled by ctx.
func (im *Importer) Run(ctx context.Context, rows []mapper.Row, batch bool) (*dto.ImportReport, error) {
	if !im.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer im.running.Store(false)

	report := &dto.ImportReport{Total: len(rows), Batch: batch, Errors: []string{}}
	if len(rows) == 0 {
		return report, ErrEmpty
	}

	result := im.mapper.Map(rows)
	if len(result.Invalid) > 0 {
		report.Invalid = len(result.Invalid)
		report.Errors = result.Invalid
		im.log.Info("import rejected", slog.Int("rows", len(rows)), slog.Int("invalid", report.Invalid))
		return report, ErrInvalidRows
	}

	ctx = context.WithoutCancel(ctx)
	im.setState(true, 0, len(result.Valid))
	defer func() { im.setState(false, im.Progress().Done, len(result.Valid)) }()

	if batch {
		im.runBatch(ctx, result.Valid, report)
	} else {
		im.runSequential(ctx, result.Valid, report)
	}

	im.log.Info("import finished",
		slog.Int("total", report.Total),
		slog.Int("imported", report.Imported),
		slog.Int("fallback", report.Fallback),
		slog.Int("failed", report.Failed),
		slog.Bool("batch", batch),
	)
	return report, nil
}

func (im *Importer) runSequential(ctx context.Context, forms []models.Form, report *dto.ImportReport) {
	for i, form := range forms {
		_, outcome, err := im.creator.Create(ctx, form)
		switch {
		case err != nil:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to add %s: %v", displayName(form), err))
		case outcome.Confirmed():
			report.Imported++
		default:
			report.Fallback++
		}
		im.advance(i+1, len(forms))
	}
}

func (im *Importer) runBatch(ctx context.Context, forms []models.Form, report *dto.ImportReport) {
	created, outcome, err := im.creator.BulkCreate(ctx, forms)
	if outcome.Confirmed() {
		report.Imported = len(created)
	} else {
		report.Fallback = len(created)
	}
	if err != nil {
		report.Failed = len(forms) - len(created)
		report.Errors = append(report.Errors, err.Error())
	}
	if outcome.Warning != "" {
		report.Errors = append(report.Errors, outcome.Warning)
	}
	im.advance(len(forms), len(forms))
}

func (im *Importer) advance(done, total int) {
	im.setState(true, done, total)
	if im.progress != nil {
		im.progress.Progress(done, total)
	}
}

func (im *Importer) setState(running bool, done, total int) {
	im.mu.Lock()
	defer im.mu.Unlock()
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	im.state = dto.ImportProgress{Running: running, Done: done, Total: total, Ratio: ratio}
}

func displayName(f models.Form) string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}
