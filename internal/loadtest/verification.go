package loadtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/okian/resonance/internal/domain/model"
	"github.com/okian/resonance/internal/domain/scoring"
	"github.com/olekukonko/tablewriter"
)

// outcome is what one artist produced across both endpoints.
type outcome struct {
	fallback  bool
	violation bool
	tier      string
	err       error
}

func (o outcome) apply(stats *Stats) {
	stats.Submitted++
	switch {
	case o.err != nil:
		stats.Failed++
		return
	case o.violation:
		stats.Violations++
	default:
		stats.Successful++
	}
	if o.fallback {
		stats.Fallbacks++
	}
	if o.tier != "" {
		stats.Tiers[o.tier]++
	}
}

// scoreOne posts req to /resonance and its artist to /tier and checks both
// responses.
func scoreOne(ctx context.Context, client *httpClient, req request) outcome {
	var res model.ResonanceResult
	if _, err := client.post(ctx, "/resonance", req, &res); err != nil {
		return outcome{err: err}
	}
	var tr model.TierResult
	if _, err := client.post(ctx, "/tier", map[string]model.MetricsRecord{"metrics": req.Artist}, &tr); err != nil {
		return outcome{err: err}
	}

	o := outcome{fallback: res.Fallback, tier: tr.Tier}
	if err := verifyResult(res); err != nil {
		o.violation = true
	}
	if tr.Rank < 1 || tr.Tier == "" {
		o.violation = true
	}
	return o
}

// verifyResult checks the resonance invariants plus the confidence floor
// and the fallback shape.
func verifyResult(res model.ResonanceResult) error {
	if err := scoring.Check(res); err != nil {
		return err
	}
	if res.Confidence < 50 || res.Confidence > 95 {
		return fmt.Errorf("confidence %v outside [50,95]", res.Confidence)
	}
	if res.Fallback {
		if res.PredictedScore != 50 || len(res.FeatureImportance) != 0 {
			return fmt.Errorf("malformed fallback: score %v with %d importances", res.PredictedScore, len(res.FeatureImportance))
		}
		return nil
	}
	if len(res.FeatureImportance) != model.NumFeatures {
		return fmt.Errorf("expected %d importances, got %d", model.NumFeatures, len(res.FeatureImportance))
	}
	if len(res.Insights.RiskAssessment.Factors) == 0 {
		return errors.New("empty risk factors")
	}
	return nil
}

// writeSummary renders run counters and the tier distribution.
func writeSummary(w io.Writer, stats *Stats) error {
	var rate, perSecond float64
	if stats.Submitted > 0 {
		rate = float64(stats.Successful) / float64(stats.Submitted) * percent
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	rows := [][]string{
		{"generated", strconv.Itoa(stats.Generated)},
		{"submitted", strconv.Itoa(stats.Submitted)},
		{"successful", strconv.Itoa(stats.Successful)},
		{"fallbacks", strconv.Itoa(stats.Fallbacks)},
		{"violations", strconv.Itoa(stats.Violations)},
		{"failed", strconv.Itoa(stats.Failed)},
		{"trainings", strconv.FormatInt(stats.Trainings, 10)},
		{"success rate %", strconv.FormatFloat(rate, 'f', 1, 64)},
		{"artists/s", strconv.FormatFloat(perSecond, 'f', 1, 64)},
		{"duration", stats.Duration.String()},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	tiers := make([]string, 0, len(stats.Tiers))
	for t := range stats.Tiers {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	dist := tablewriter.NewWriter(w)
	dist.Header([]string{"Tier", "Artists"})
	for _, t := range tiers {
		if err := dist.Append([]string{t, strconv.Itoa(stats.Tiers[t])}); err != nil {
			return err
		}
	}
	return dist.Render()
}
