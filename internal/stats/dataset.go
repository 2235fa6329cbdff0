// Package stats loads the nutrition/obesity survey dataset and provides the
// analytical queries the service runs as background jobs.
package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	colState          = "LocationDesc"
	colQuestion       = "Question"
	colValue          = "Data_Value"
	colCategory       = "StratificationCategory1"
	colStratification = "Stratification1"
)

// Record is one usable survey row. Rows without a numeric Data_Value are
// not kept, so means ignore missing values.
type Record struct {
	State          string
	Question       string
	Category       string
	Stratification string
	Value          float64
}

type Dataset struct {
	records []Record
}

func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range []string{colState, colQuestion, colValue, colCategory, colStratification} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	ds := &Dataset{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		field := func(col string) string {
			i := idx[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		v, err := strconv.ParseFloat(field(colValue), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ds.records = append(ds.records, Record{
			State:          field(colState),
			Question:       field(colQuestion),
			Category:       field(colCategory),
			Stratification: field(colStratification),
			Value:          v,
		})
	}
	return ds, nil
}

func (d *Dataset) Len() int { return len(d.records) }

func (d *Dataset) each(question, state string, fn func(Record)) {
	for _, r := range d.records {
		if r.Question != question {
			continue
		}
		if state != "" && r.State != state {
			continue
		}
		fn(r)
	}
}
