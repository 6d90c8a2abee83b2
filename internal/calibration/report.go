package calibration

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

// Output formats understood by Write.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Write renders v, a *Report or *PriorAudit, in the given format.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	case FormatTable, "":
		switch r := v.(type) {
		case *Report:
			return r.WriteTable(w)
		case *PriorAudit:
			return r.WriteTable(w)
		default:
			return fmt.Errorf("%w: cannot render %T as a table", ErrInvalidConfig, v)
		}
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}
}

// WriteTable renders the per-model scores, the validation verdict and the
// best blends.
func (r *Report) WriteTable(w io.Writer) error {
	models := tablewriter.NewWriter(w)
	models.Header([]string{"Model", "R2", "RMSE", "MAE", "CV R2", "Benchmark", "Pass", "Blend rank"})
	for _, m := range r.Models {
		row := []string{
			m.Name,
			num(m.R2),
			num(m.RMSE),
			num(m.MAE),
			num(m.CVR2) + " ± " + num(m.CVStd),
			num(m.Benchmark),
			strconv.FormatBool(m.Passed),
			strconv.Itoa(m.BlendRank),
		}
		if err := models.Append(row); err != nil {
			return err
		}
	}
	if err := models.Render(); err != nil {
		return err
	}

	verdict := "FAIL"
	if r.Validation.Passed {
		verdict = "PASS"
	}
	if _, err := fmt.Fprintf(w, "\nbest model %s: R2 %s vs threshold %s (%s)\n\n",
		r.Validation.Model, num(r.Validation.R2), num(r.Validation.Threshold), verdict); err != nil {
		return err
	}

	blends := tablewriter.NewWriter(w)
	header := append([]string{"Rank"}, ModelNames...)
	blends.Header(append(header, "R2"))
	for _, b := range r.Top {
		row := []string{strconv.Itoa(b.Rank)}
		for _, name := range ModelNames {
			row = append(row, strconv.FormatFloat(b.Weights[name], 'f', 2, 64))
		}
		if err := blends.Append(append(row, num(b.R2))); err != nil {
			return err
		}
	}
	if err := blends.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nensemble R2 %s over %d blends at %.0f/s (run %s, %d samples, %dms)\n",
		num(r.BestR2), r.Evaluated, r.CandidatesPerSec, r.RunID, r.Samples, r.DurationMs)
	return err
}

// WriteTable renders fitted and prior coefficients side by side.
func (a *PriorAudit) WriteTable(w io.Writer) error {
	names := make([]string, 0, len(a.Coefficients))
	for name := range a.Coefficients {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Term", "Fitted", "Prior"})
	rows := [][]string{{"intercept", num(a.Intercept), num(a.Prior["intercept"])}}
	for _, name := range names {
		rows = append(rows, []string{name, num(a.Coefficients[name]), num(a.Prior[name])})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nOLS R2 %s over %d samples\n", num(a.R2), a.Samples)
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
