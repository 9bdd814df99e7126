package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/probelab/swapnest/internal/config"
)

// histogramRowFormat renders one histogram row: the swap count and the
// number of attempts that needed it.
const histogramRowFormat = "%2d %8d\n"

// ratioFormat formats fractional readouts such as load factor and
// mean swaps.
const ratioFormat = "%.4f"

// ReportPayload is the machine-readable projection of a result. JSON and
// YAML reports marshal this shape; consumers can unmarshal into it.
type ReportPayload struct {
	Seed           uint64   `json:"seed"            yaml:"seed"`
	Attempted      int      `json:"attempted"       yaml:"attempted"`
	Successes      uint64   `json:"successes"       yaml:"successes"`
	Failures       uint64   `json:"failures"        yaml:"failures"`
	FirstFailure   int      `json:"first_failure"   yaml:"first_failure"`
	TotalSwaps     uint64   `json:"total_swaps"     yaml:"total_swaps"`
	MeanSwaps      float64  `json:"mean_swaps"      yaml:"mean_swaps"`
	MedianSwaps    uint64   `json:"median_swaps"    yaml:"median_swaps"`
	P95Swaps       uint64   `json:"p95_swaps"       yaml:"p95_swaps"`
	P99Swaps       uint64   `json:"p99_swaps"       yaml:"p99_swaps"`
	Used           uint64   `json:"used"            yaml:"used"`
	Capacity       uint64   `json:"capacity"        yaml:"capacity"`
	LoadFactor     float64  `json:"load_factor"     yaml:"load_factor"`
	Bits           uint64   `json:"bits"            yaml:"bits"`
	BitsPerKey     float64  `json:"bits_per_key"    yaml:"bits_per_key"`
	ElapsedSeconds float64  `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Histogram      []uint64 `json:"histogram"       yaml:"histogram"`
}

// buildPayload projects a result into its serializable form.
func buildPayload(res *Result) ReportPayload {
	return ReportPayload{
		Seed:           res.Seed,
		Attempted:      res.Summary.Attempted,
		Successes:      res.Summary.Successes,
		Failures:       res.Summary.Failures,
		FirstFailure:   res.Summary.FirstFailure,
		TotalSwaps:     res.Summary.TotalSwaps,
		MeanSwaps:      res.Summary.MeanSwaps(),
		MedianSwaps:    res.Summary.MedianSwaps(),
		P95Swaps:       res.Summary.P95Swaps(),
		P99Swaps:       res.Summary.P99Swaps(),
		Used:           res.Used,
		Capacity:       res.Capacity,
		LoadFactor:     res.LoadFactor,
		Bits:           res.Bits,
		BitsPerKey:     bitsPerKey(res),
		ElapsedSeconds: res.Elapsed.Seconds(),
		Histogram:      res.Summary.Histogram,
	}
}

// bitsPerKey divides the table's bit footprint by the number of attempted
// inserts. Returns 0 before any attempt.
func bitsPerKey(res *Result) float64 {
	if res.Summary.Attempted == 0 {
		return 0
	}

	return float64(res.Bits) / float64(res.Summary.Attempted)
}

// WriteReport renders a bench result to w in the given format.
func WriteReport(w io.Writer, res *Result, format string) error {
	switch format {
	case config.FormatJSON:
		return writeJSON(w, res)
	case config.FormatYAML:
		return writeYAML(w, res)
	case config.FormatTable:
		return writeTable(w, res)
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
	}
}

func writeJSON(w io.Writer, res *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(buildPayload(res))
	if err != nil {
		return fmt.Errorf("marshal report to JSON: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, res *Result) error {
	data, err := yaml.Marshal(buildPayload(res))
	if err != nil {
		return fmt.Errorf("marshal report to YAML: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func writeTable(w io.Writer, res *Result) error {
	payload := buildPayload(res)

	writeHeadline(w, res)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Seed", strconv.FormatUint(payload.Seed, 10)},
		{"Attempted", humanize.Comma(int64(payload.Attempted))},
		{"Successes", humanize.Comma(int64(payload.Successes))},
		{"Failures", humanize.Comma(int64(payload.Failures))},
		{"First failure", formatFirstFailure(payload.FirstFailure)},
		{"Total swaps", humanize.Comma(int64(payload.TotalSwaps))},
		{"Mean swaps", fmt.Sprintf(ratioFormat, payload.MeanSwaps)},
		{"Median swaps", strconv.FormatUint(payload.MedianSwaps, 10)},
		{"P95 swaps", strconv.FormatUint(payload.P95Swaps, 10)},
		{"P99 swaps", strconv.FormatUint(payload.P99Swaps, 10)},
		{"Used", humanize.Comma(int64(payload.Used))},
		{"Capacity", humanize.Comma(int64(payload.Capacity))},
		{"Load factor", fmt.Sprintf(ratioFormat, payload.LoadFactor)},
		{"Bits", humanize.Comma(int64(payload.Bits))},
		{"Bits per key", fmt.Sprintf(ratioFormat, payload.BitsPerKey)},
		{"Elapsed", res.Elapsed.Round(time.Millisecond).String()},
	})
	tbl.Render()

	writeHistogram(w, payload.Histogram)

	return nil
}

// writeHeadline prints a one-line verdict above the table.
func writeHeadline(w io.Writer, res *Result) {
	if res.Summary.Failures == 0 {
		color.New(color.FgGreen).Fprintf(w, "bench ok: all %s inserts placed\n",
			humanize.Comma(int64(res.Summary.Attempted)))

		return
	}

	color.New(color.FgRed).Fprintf(w, "bench degraded: %s of %s inserts failed (first at attempt %d)\n",
		humanize.Comma(int64(res.Summary.Failures)),
		humanize.Comma(int64(res.Summary.Attempted)),
		res.Summary.FirstFailure)
}

// formatFirstFailure renders the first failed attempt index, or a dash when
// every insert succeeded.
func formatFirstFailure(firstFailure int) string {
	if firstFailure == FirstFailureNone {
		return "-"
	}

	return strconv.Itoa(firstFailure)
}

// writeHistogram prints the relocation histogram, one row per swap count,
// eliding the trailing all-zero bins.
func writeHistogram(w io.Writer, hist []uint64) {
	last := lastNonZeroBin(hist)
	if last < 0 {
		return
	}

	fmt.Fprintln(w, "\nRelocation histogram:")

	for i := 0; i <= last; i++ {
		fmt.Fprintf(w, histogramRowFormat, i, hist[i])
	}
}

// lastNonZeroBin returns the highest histogram index with a non-zero count,
// or -1 when every bin is empty.
func lastNonZeroBin(hist []uint64) int {
	last := -1

	for i, count := range hist {
		if count > 0 {
			last = i
		}
	}

	return last
}
