package report

import (
	"bytes"
	"errors"
	"fmt"

	dto "memberhub/pkg/models"

	"github.com/wcharczuk/go-chart/v2"
)

var (
	ErrUnknownChart = errors.New("unknown chart target")
	errNoData       = errors.New("no data to plot")
)

// ChartTarget names one chart of the report.
type ChartTarget struct {
	Name     string
	FileName string
	Title    string
	Pie      bool
	series   func(dto.Analyses) []dto.Count
}

var chartTargets = []ChartTarget{
	{Name: "age", FileName: "age-distribution", Title: "Age Distribution",
		series: func(a dto.Analyses) []dto.Count { return a.AgeGroups }},
	{Name: "geo", FileName: "geographic-distribution", Title: "Geographic Distribution",
		series: func(a dto.Analyses) []dto.Count { return a.GeographicDistribution }},
	{Name: "join", FileName: "join-trends", Title: "Membership Growth",
		series: func(a dto.Analyses) []dto.Count { return a.JoinTrends }},
	{Name: "family", FileName: "family-status", Title: "Family Status", Pie: true,
		series: func(a dto.Analyses) []dto.Count { return a.FamilyStatus }},
	{Name: "phones", FileName: "phone-types", Title: "Phone Types", Pie: true,
		series: func(a dto.Analyses) []dto.Count { return a.PhoneTypes }},
	{Name: "professions", FileName: "professions", Title: "Top Professions",
		series: func(a dto.Analyses) []dto.Count { return a.ProfessionCounts }},
}

// ChartNames lists every known target in report order.
func ChartNames() []string {
	names := make([]string, len(chartTargets))
	for i, t := range chartTargets {
		names[i] = t.Name
	}
	return names
}

// LookupChart resolves a target by name.
func LookupChart(name string) (ChartTarget, error) {
	for _, t := range chartTargets {
		if t.Name == name {
			return t, nil
		}
	}
	return ChartTarget{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

// ChartRenderer rasterizes one chart target to PNG.
type ChartRenderer interface {
	Render(target ChartTarget, analyses dto.Analyses) ([]byte, error)
}

// PNGRenderer draws charts with go-chart.
type PNGRenderer struct {
	Width  int
	Height int
}

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 1030, Height: 480}
}

func (r *PNGRenderer) Render(target ChartTarget, analyses dto.Analyses) ([]byte, error) {
	if target.series == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, target.Name)
	}
	counts := target.series(analyses)

	values := make([]chart.Value, 0, len(counts))
	total, most := 0, 0
	for _, c := range counts {
		if target.Pie && c.Count == 0 {
			continue
		}
		values = append(values, chart.Value{Value: float64(c.Count), Label: c.Label})
		total += c.Count
		if c.Count > most {
			most = c.Count
		}
	}
	if total == 0 {
		return nil, errNoData
	}

	var buf bytes.Buffer
	var err error
	if target.Pie {
		pie := chart.PieChart{
			Title:  target.Title,
			Width:  r.Width,
			Height: r.Height,
			Values: values,
		}
		err = pie.Render(chart.PNG, &buf)
	} else {
		bar := chart.BarChart{
			Title:      target.Title,
			Width:      r.Width,
			Height:     r.Height,
			BarWidth:   barWidth(r.Width, len(values)),
			Background: chart.Style{Padding: chart.Box{Top: 40}},
			Bars:       values,
			// go-chart cannot derive a range when every bar has the same height.
			YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: float64(max(most, 1))}},
		}
		err = bar.Render(chart.PNG, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", target.Name, err)
	}
	return buf.Bytes(), nil
}

func barWidth(width, bars int) int {
	if bars == 0 {
		return 40
	}
	w := (width - 100) / (bars * 2)
	if w > 80 {
		return 80
	}
	if w < 8 {
		return 8
	}
	return w
}
