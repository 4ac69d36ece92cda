// Package report builds the downloadable analytics archive: summary JSON,
// CSV tables, chart images and a PDF summary, zipped in one pass.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"memberhub/internal/analytics"
	"memberhub/internal/lib/logger"
	"memberhub/internal/lib/logger/sl"
	"memberhub/internal/models"
	dto "memberhub/pkg/models"
)

type Archive struct {
	Name   string
	Data   []byte
	Charts []string // targets that rendered
}

type Options struct {
	// Charts names the chart targets to include. Unknown names and charts
	// that fail to render are left out of both the PDF and the archive.
	Charts []string
}

type Assembler struct {
	engine *analytics.Engine
	charts ChartRenderer
	log    *slog.Logger
}

func NewAssembler(engine *analytics.Engine, charts ChartRenderer, log *slog.Logger) *Assembler {
	if log == nil {
		log = logger.Discard()
	}
	if charts == nil {
		charts = NewPNGRenderer()
	}
	return &Assembler{engine: engine, charts: charts, log: log.With(slog.String("component", "report"))}
}

// Generate builds the archive for the given members.
func (a *Assembler) Generate(ctx context.Context, members []models.Member, opts Options) (*Archive, error) {
	const op = "report.Generate"

	generatedAt := a.engine.Now()
	stats := a.engine.Stats(members)
	analyses := a.engine.Full(members)

	summary, err := json.MarshalIndent(dto.Summary{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Totals:      stats,
		Analyses:    analyses,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: summary: %w", op, err)
	}

	membersCSV, err := MembersCSV(members)
	if err != nil {
		return nil, fmt.Errorf("%s: members: %w", op, err)
	}

	entries := []entry{
		{name: "summary.json", data: summary},
		{name: "members.csv", data: membersCSV},
	}
	for _, t := range analysisTables {
		data, err := CountsCSV(t.column, t.counts(analyses))
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, t.file, err)
		}
		entries = append(entries, entry{name: "analyses/" + t.file, data: data})
	}

	charts := a.renderCharts(ctx, opts.Charts, analyses)
	rendered := make([]string, 0, len(charts))
	for _, c := range charts {
		entries = append(entries, entry{name: "charts/" + c.target.FileName + ".png", data: c.png})
		rendered = append(rendered, c.target.Name)
	}

	pdf, err := SummaryPDF(generatedAt, stats, analyses, charts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries = append(entries, entry{name: "summary.pdf", data: pdf})

	data, err := zipEntries(generatedAt, entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("report generated",
		slog.Int("members", len(members)),
		slog.Int("charts", len(rendered)),
		slog.Int("bytes", len(data)),
	)
	return &Archive{Name: ArchiveName(generatedAt), Data: data, Charts: rendered}, nil
}

func (a *Assembler) renderCharts(ctx context.Context, names []string, analyses dto.Analyses) []renderedChart {
	var out []renderedChart
	seen := map[string]bool{}
	for _, name := range names {
		if ctx.Err() != nil {
			a.log.Warn("chart rendering interrupted", sl.Err(ctx.Err()))
			break
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		target, err := LookupChart(name)
		if err != nil {
			a.log.Warn("skipping chart", slog.String("chart", name), sl.Err(err))
			continue
		}
		png, err := a.charts.Render(target, analyses)
		if err == nil {
			err = checkPNG(png)
		}
		if err != nil {
			a.log.Warn("skipping chart", slog.String("chart", name), sl.Err(err))
			continue
		}
		out = append(out, renderedChart{target: target, png: png})
	}
	return out
}
