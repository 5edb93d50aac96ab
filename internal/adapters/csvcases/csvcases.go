// Package csvcases reads and writes the synthetic case dataset:
// case_id,amount,age_days,dca_success_rate,last_update_hours
package csvcases

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"intellectdca/internal/domain"
)

var Header = []string{"case_id", "amount", "age_days", "dca_success_rate", "last_update_hours"}

// Row is one line of the dataset.
type Row struct {
	CaseID          string
	Amount          float64
	AgeDays         int
	DCASuccessRate  float64
	LastUpdateHours int
}

// Case converts the row, placing its last update relative to now.
func (r Row) Case(now time.Time, owner string) domain.Case {
	rate := r.DCASuccessRate
	return domain.Case{
		ID:             r.CaseID,
		Amount:         r.Amount,
		AgeDays:        r.AgeDays,
		DCASuccessRate: &rate,
		Owner:          owner,
		LastUpdate:     now.Add(-time.Duration(r.LastUpdateHours) * time.Hour),
	}
}

// Read parses every row after the header.
func Read(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("column %d: want %q, got %q", i, h, head[i])
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRow(rec []string) (Row, error) {
	var (
		row Row
		err error
	)
	row.CaseID = rec[0]
	if row.CaseID == "" {
		return row, errors.New("empty case_id")
	}
	if row.Amount, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return row, fmt.Errorf("amount: %w", err)
	}
	if row.AgeDays, err = strconv.Atoi(rec[2]); err != nil {
		return row, fmt.Errorf("age_days: %w", err)
	}
	if row.DCASuccessRate, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return row, fmt.Errorf("dca_success_rate: %w", err)
	}
	if row.LastUpdateHours, err = strconv.Atoi(rec[4]); err != nil {
		return row, fmt.Errorf("last_update_hours: %w", err)
	}
	return row, nil
}

// Write emits the header followed by rows.
func Write(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.CaseID,
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
			strconv.Itoa(r.AgeDays),
			strconv.FormatFloat(r.DCASuccessRate, 'f', 2, 64),
			strconv.Itoa(r.LastUpdateHours),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Generate builds n synthetic cases: amounts in [500, 50000), ages in
// [15, 365), success rates in [0.1, 0.9) and last updates within 100 hours.
func Generate(n int, rng *rand.Rand) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			CaseID:          fmt.Sprintf("FEDEX-%d", 1000+i),
			Amount:          round2(500 + rng.Float64()*49500),
			AgeDays:         15 + rng.IntN(350),
			DCASuccessRate:  round2(0.1 + rng.Float64()*0.8),
			LastUpdateHours: rng.IntN(100),
		}
	}
	return rows
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
