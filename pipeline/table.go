package pipeline

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/lucasjlepore/trainload"
)

// pmcRow is one line of the tabular series: history first, then projection.
type pmcRow struct {
	Date      string
	Load      float64
	Fitness   float64
	Fatigue   float64
	Form      float64
	Projected bool
	Status    string
}

var pmcHeader = []string{"date", "load", "fitness", "fatigue", "form", "projected", "status"}

func pmcRows(r *Report) []pmcRow {
	classifier := trainload.NewClassifier(r.Thresholds)
	rows := make([]pmcRow, 0, len(r.Series)+len(r.Projection))
	for _, points := range [][]trainload.PMCPoint{r.Series, r.Projection} {
		for _, p := range points {
			rows = append(rows, pmcRow{
				Date:      p.Date.String(),
				Load:      p.Load,
				Fitness:   p.Fitness,
				Fatigue:   p.Fatigue,
				Form:      p.Form,
				Projected: p.Projected,
				Status:    classifier.Classify(p.Form).Key,
			})
		}
	}
	return rows
}

func marshalPMCCSV(rows []pmcRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(pmcHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.Date,
			formatFloat(row.Load),
			formatFloat(row.Fitness),
			formatFloat(row.Fatigue),
			formatFloat(row.Form),
			strconv.FormatBool(row.Projected),
			row.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
