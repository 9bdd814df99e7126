package experiment

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	plotPageTitle  = "swapnest bench"
	plotChartTitle = "Relocation histogram"
	plotWidth      = "900px"
	plotHeight     = "500px"
	plotSeriesName = "attempts"
)

// WritePlot renders the relocation histogram as a standalone HTML bar
// chart. Trailing all-zero bins are trimmed, matching the table report.
func WritePlot(w io.Writer, res *Result) error {
	hist := res.Summary.Histogram
	hist = hist[:lastNonZeroBin(hist)+1]

	labels := make([]string, len(hist))
	data := make([]opts.BarData, len(hist))

	for i, count := range hist {
		labels[i] = strconv.Itoa(i)
		data[i] = opts.BarData{Value: count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: plotPageTitle,
			Width:     plotWidth,
			Height:    plotHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    plotChartTitle,
			Subtitle: plotSubtitle(res),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "swaps"}),
		charts.WithYAxisOpts(opts.YAxis{Name: plotSeriesName}),
	)

	bar.SetXAxis(labels)
	bar.AddSeries(plotSeriesName, data)

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render histogram chart: %w", err)
	}

	return nil
}

// WritePlotFile writes the histogram chart to path, creating or truncating
// the file.
func WritePlotFile(path string, res *Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer file.Close()

	return WritePlot(file, res)
}

// plotSubtitle summarizes the run under the chart title.
func plotSubtitle(res *Result) string {
	return fmt.Sprintf("seed %d, %d keys, load factor %.4f",
		res.Seed, res.Summary.Attempted, res.LoadFactor)
}
