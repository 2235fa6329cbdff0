package stats_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"stats-service/internal/stats"
)

var (
	obesity = stats.QuestionsBestIsMin[1]
	muscle  = stats.QuestionsBestIsMax[3]
)

func testDataset(t *testing.T) *stats.Dataset {
	t.Helper()
	rows := [][]string{
		{"YearStart", "LocationDesc", "Question", "Data_Value", "StratificationCategory1", "Stratification1"},
		{"2020", "Ohio", obesity, "30", "Age (years)", "18 - 24"},
		{"2020", "Ohio", obesity, "34", "Gender", "Male"},
		{"2020", "Utah", obesity, "20", "Age (years)", "18 - 24"},
		{"2020", "Utah", obesity, "", "Gender", "Male"},
		{"2020", "Iowa", obesity, "25", "Total", "Total"},
		{"2020", "Texas", obesity, "35", "Total", "Total"},
		{"2020", "Maine", obesity, "22", "Total", "Total"},
		{"2020", "Idaho", obesity, "28", "", ""},
		{"2020", "Kansas", obesity, "40", "Total", "Total"},
		{"2020", "Ohio", muscle, "50", "Total", "Total"},
		{"2020", "Utah", muscle, "60", "Total", "Total"},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)

	ds, err := stats.ReadCSV(&buf)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	return ds
}

func run(t *testing.T, ds *stats.Dataset, name string, req stats.Request) (any, error) {
	t.Helper()
	q, ok := stats.Lookup(name)
	if !ok {
		t.Fatalf("unknown query %s", name)
	}
	payload, _ := json.Marshal(req)
	return ds.Computation(q)(payload)
}

func TestReadCSV_SkipsRowsWithoutValue(t *testing.T) {
	ds := testDataset(t)
	if ds.Len() != 10 {
		t.Fatalf("expected 10 usable rows, got %d", ds.Len())
	}
}

func TestReadCSV_SkipsNonFiniteValues(t *testing.T) {
	csvText := "LocationDesc,Question,Data_Value,StratificationCategory1,Stratification1\n" +
		"Ohio," + obesity + ",10,Total,Total\n" +
		"Ohio," + obesity + ",NaN,Total,Total\n" +
		"Ohio," + obesity + ",Inf,Total,Total\n" +
		"Ohio," + obesity + ",-infinity,Total,Total\n" +
		"Iowa," + obesity + ",20,Total,Total\n"

	ds, err := stats.ReadCSV(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 usable rows, got %d", ds.Len())
	}

	got, err := run(t, ds, "states_mean", stats.Request{Question: obesity})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := map[string]float64{"Ohio": 10, "Iowa": 20}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("expected encodable result, got %v", err)
	}
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := stats.ReadCSV(strings.NewReader("LocationDesc,Question\nOhio,q\n"))
	if err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestQueries(t *testing.T) {
	ds := testDataset(t)

	tests := []struct {
		name  string
		query string
		req   stats.Request
		want  any
	}{
		{
			name:  "states mean",
			query: "states_mean",
			req:   stats.Request{Question: muscle},
			want:  map[string]float64{"Ohio": 50, "Utah": 60},
		},
		{
			name:  "state mean",
			query: "state_mean",
			req:   stats.Request{Question: obesity, State: "Ohio"},
			want:  map[string]float64{"Ohio": 32},
		},
		{
			name:  "state mean unknown state",
			query: "state_mean",
			req:   stats.Request{Question: obesity, State: "Atlantis"},
			want:  map[string]float64{},
		},
		{
			name:  "best5 lower is better",
			query: "best5",
			req:   stats.Request{Question: obesity},
			want:  map[string]float64{"Utah": 20, "Maine": 22, "Iowa": 25, "Idaho": 28, "Ohio": 32},
		},
		{
			name:  "worst5 lower is better",
			query: "worst5",
			req:   stats.Request{Question: obesity},
			want:  map[string]float64{"Iowa": 25, "Idaho": 28, "Ohio": 32, "Texas": 35, "Kansas": 40},
		},
		{
			name:  "best5 fewer than five states",
			query: "best5",
			req:   stats.Request{Question: muscle},
			want:  map[string]float64{"Utah": 60, "Ohio": 50},
		},
		{
			name:  "global mean",
			query: "global_mean",
			req:   stats.Request{Question: obesity},
			want:  map[string]float64{"global_mean": 29.25},
		},
		{
			name:  "diff from mean",
			query: "diff_from_mean",
			req:   stats.Request{Question: muscle},
			want:  map[string]float64{"Ohio": 5, "Utah": -5},
		},
		{
			name:  "state diff from mean",
			query: "state_diff_from_mean",
			req:   stats.Request{Question: obesity, State: "Ohio"},
			want:  map[string]float64{"Ohio": -2.75},
		},
		{
			name:  "state mean by category",
			query: "state_mean_by_category",
			req:   stats.Request{Question: obesity, State: "Ohio"},
			want: map[string]map[string]float64{"Ohio": {
				"('Age (years)', '18 - 24')": 30,
				"('Gender', 'Male')":         34,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, ds, tt.query, tt.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMeanByCategory_KeysAndMissingStrata(t *testing.T) {
	ds := testDataset(t)

	got, err := run(t, ds, "mean_by_category", stats.Request{Question: obesity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	means := got.(map[string]float64)

	if means["('Ohio', 'Age (years)', '18 - 24')"] != 30 {
		t.Fatalf("expected Ohio age mean 30, got %v", means)
	}
	for k := range means {
		if strings.Contains(k, "Idaho") {
			t.Fatalf("expected Idaho (no strata) to be left out, got key %s", k)
		}
	}
	if len(means) != 7 {
		t.Fatalf("expected 7 groups, got %d: %v", len(means), means)
	}
}

func TestQueries_InvalidRequests(t *testing.T) {
	ds := testDataset(t)

	if _, err := run(t, ds, "states_mean", stats.Request{Question: "Fake question"}); !errors.Is(err, stats.ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if _, err := run(t, ds, "state_mean", stats.Request{Question: obesity}); !errors.Is(err, stats.ErrStateRequired) {
		t.Fatalf("expected ErrStateRequired, got %v", err)
	}
	if _, err := run(t, ds, "state_diff_from_mean", stats.Request{Question: obesity, State: "Atlantis"}); !errors.Is(err, stats.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := run(t, ds, "global_mean", stats.Request{Question: stats.QuestionsBestIsMax[0]}); !errors.Is(err, stats.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	q, _ := stats.Lookup("global_mean")
	if _, err := ds.Computation(q)(json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNames(t *testing.T) {
	names := stats.Names()
	if len(names) != 9 {
		t.Fatalf("expected 9 queries, got %d", len(names))
	}
	for _, n := range names {
		if _, ok := stats.Lookup(n); !ok {
			t.Fatalf("expected %s to resolve", n)
		}
	}
}
