package render

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"strings"

	"cf_stats/internal/domain/model"
	"cf_stats/internal/platform/logger"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

const (
	maxChartTags = 20
	chartHeight  = "360px"
)

// verdictColors follows the usual judge coloring; anything else gets the chart default.
var verdictColors = map[string]string{
	string(model.VerdictOK):                  "#2ecc71",
	string(model.VerdictWrongAnswer):         "#e74c3c",
	string(model.VerdictTimeLimitExceeded):   "#f39c12",
	string(model.VerdictMemoryLimitExceeded): "#9b59b6",
	string(model.VerdictRuntimeError):        "#e67e22",
	string(model.VerdictCompilationError):    "#95a5a6",
}

func verdictChart(entries []model.CountEntry) template.HTML {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	data := make([]opts.PieData, len(entries))
	for i, e := range entries {
		data[i] = opts.PieData{Name: e.Key, Value: e.Count}
		if c, ok := verdictColors[e.Key]; ok {
			data[i].ItemStyle = &opts.ItemStyle{Color: c}
		}
	}

	pie.AddSeries("Verdicts", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c} ({d}%)"}),
			charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "65%"}}),
		)
	return renderFragment(pie)
}

func tagChart(entries []model.CountEntry, palette model.RankPalette) template.HTML {
	if len(entries) > maxChartTags {
		entries = entries[:maxChartTags]
	}

	labels := make([]string, len(entries))
	data := make([]opts.BarData, len(entries))
	for i, e := range entries {
		labels[i] = e.Key
		data[i] = opts.BarData{Value: e.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 40, Interval: "0"}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Solves"}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("Solves", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: palette.Primary}))
	return renderFragment(bar)
}

// Renderable is satisfied by every go-echarts chart.
type Renderable interface {
	Render(w io.Writer) error
}

func renderFragment(chart Renderable) template.HTML {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		logger.Warn(context.Background(), "chart render failed", zap.Error(err))
		return ""
	}
	return template.HTML(extractChartContent(buf.String()))
}

// extractChartContent cuts the chart div and its init script out of the full
// page go-echarts renders.
func extractChartContent(page string) string {
	trimmed := strings.TrimSpace(page)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return page
	}
	start := strings.Index(page, `<div class="container">`)
	end := strings.Index(page, `</body>`)
	if start == -1 || end == -1 || end < start {
		return page
	}
	content := page[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)
	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, "<style>")
		if i == -1 {
			return content
		}
		j := strings.Index(content[i:], "</style>")
		if j == -1 {
			return content
		}
		content = content[:i] + content[i+j+len("</style>"):]
	}
}
