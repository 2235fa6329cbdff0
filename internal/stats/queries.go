package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"stats-service/internal/entity"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrStateRequired   = errors.New("state is required")
	ErrNoData          = errors.New("no data for request")
)

const rankSize = 5

// Request is the payload of every query job.
type Request struct {
	Question string `json:"question"`
	State    string `json:"state,omitempty"`
}

type Query struct {
	Name       string
	NeedsState bool
	run        func(d *Dataset, req Request) (any, error)
}

var queries = map[string]Query{
	"states_mean":            {Name: "states_mean", run: statesMean},
	"state_mean":             {Name: "state_mean", NeedsState: true, run: stateMean},
	"best5":                  {Name: "best5", run: best5},
	"worst5":                 {Name: "worst5", run: worst5},
	"global_mean":            {Name: "global_mean", run: globalMean},
	"diff_from_mean":         {Name: "diff_from_mean", run: diffFromMean},
	"state_diff_from_mean":   {Name: "state_diff_from_mean", NeedsState: true, run: stateDiffFromMean},
	"mean_by_category":       {Name: "mean_by_category", run: meanByCategory},
	"state_mean_by_category": {Name: "state_mean_by_category", NeedsState: true, run: stateMeanByCategory},
}

func Lookup(name string) (Query, bool) {
	q, ok := queries[name]
	return q, ok
}

func Names() []string {
	names := make([]string, 0, len(queries))
	for name := range queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r Request) Validate(q Query) error {
	if !IsKnownQuestion(r.Question) {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, r.Question)
	}
	if q.NeedsState && strings.TrimSpace(r.State) == "" {
		return ErrStateRequired
	}
	return nil
}

// Computation binds q to the dataset as a job computation over a JSON Request.
func (d *Dataset) Computation(q Query) entity.Computation {
	return func(payload json.RawMessage) (any, error) {
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decode request: %w", err)
		}
		if err := req.Validate(q); err != nil {
			return nil, err
		}
		return q.run(d, req)
	}
}

type acc struct {
	sum float64
	n   int
}

func (a *acc) add(v float64) {
	a.sum += v
	a.n++
}

func (a acc) mean() float64 { return a.sum / float64(a.n) }

// meansBy groups the rows of question (optionally one state) by key.
// Rows for which key reports false are left out.
func (d *Dataset) meansBy(question, state string, key func(Record) (string, bool)) map[string]float64 {
	groups := map[string]*acc{}
	d.each(question, state, func(r Record) {
		k, ok := key(r)
		if !ok {
			return
		}
		a := groups[k]
		if a == nil {
			a = &acc{}
			groups[k] = a
		}
		a.add(r.Value)
	})

	out := make(map[string]float64, len(groups))
	for k, a := range groups {
		out[k] = a.mean()
	}
	return out
}

func byState(r Record) (string, bool) { return r.State, true }

func (d *Dataset) globalMean(question string) (float64, bool) {
	var a acc
	d.each(question, "", func(r Record) { a.add(r.Value) })
	if a.n == 0 {
		return 0, false
	}
	return a.mean(), true
}

func statesMean(d *Dataset, req Request) (any, error) {
	return d.meansBy(req.Question, "", byState), nil
}

func stateMean(d *Dataset, req Request) (any, error) {
	return d.meansBy(req.Question, req.State, byState), nil
}

type ranked struct {
	state string
	mean  float64
}

// ranking orders states from best to worst for the question.
func (d *Dataset) ranking(question string) []ranked {
	means := d.meansBy(question, "", byState)
	out := make([]ranked, 0, len(means))
	for s, m := range means {
		out = append(out, ranked{state: s, mean: m})
	}

	asc := lowerIsBetter(question)
	sort.Slice(out, func(i, j int) bool {
		if out[i].mean != out[j].mean {
			if asc {
				return out[i].mean < out[j].mean
			}
			return out[i].mean > out[j].mean
		}
		return out[i].state < out[j].state
	})
	return out
}

func toMap(rs []ranked) map[string]float64 {
	out := make(map[string]float64, len(rs))
	for _, r := range rs {
		out[r.state] = r.mean
	}
	return out
}

func best5(d *Dataset, req Request) (any, error) {
	rs := d.ranking(req.Question)
	if len(rs) > rankSize {
		rs = rs[:rankSize]
	}
	return toMap(rs), nil
}

func worst5(d *Dataset, req Request) (any, error) {
	rs := d.ranking(req.Question)
	if len(rs) > rankSize {
		rs = rs[len(rs)-rankSize:]
	}
	return toMap(rs), nil
}

func globalMean(d *Dataset, req Request) (any, error) {
	m, ok := d.globalMean(req.Question)
	if !ok {
		return nil, ErrNoData
	}
	return map[string]float64{"global_mean": m}, nil
}

func diffFromMean(d *Dataset, req Request) (any, error) {
	global, ok := d.globalMean(req.Question)
	if !ok {
		return map[string]float64{}, nil
	}
	out := d.meansBy(req.Question, "", byState)
	for s, m := range out {
		out[s] = global - m
	}
	return out, nil
}

func stateDiffFromMean(d *Dataset, req Request) (any, error) {
	global, ok := d.globalMean(req.Question)
	if !ok {
		return nil, ErrNoData
	}
	m, ok := d.meansBy(req.Question, req.State, byState)[req.State]
	if !ok {
		return nil, fmt.Errorf("%w: state %q", ErrNoData, req.State)
	}
	return map[string]float64{req.State: global - m}, nil
}

func meanByCategory(d *Dataset, req Request) (any, error) {
	return d.meansBy(req.Question, "", func(r Record) (string, bool) {
		if r.Category == "" || r.Stratification == "" {
			return "", false
		}
		return tupleKey(r.State, r.Category, r.Stratification), true
	}), nil
}

func stateMeanByCategory(d *Dataset, req Request) (any, error) {
	means := d.meansBy(req.Question, req.State, func(r Record) (string, bool) {
		if r.Category == "" || r.Stratification == "" {
			return "", false
		}
		return tupleKey(r.Category, r.Stratification), true
	})
	return map[string]map[string]float64{req.State: means}, nil
}

// tupleKey renders grouping keys the way existing clients expect them:
// ('Ohio', 'Age (years)', '18 - 24').
func tupleKey(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if strings.Contains(p, "'") && !strings.Contains(p, `"`) {
			quoted[i] = `"` + p + `"`
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(p, "'", `\'`) + "'"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
