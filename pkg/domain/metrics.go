package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Metrics is the snapshot reported by one run of the external tool.
// Lower is better for both Primary and Constraint.
type Metrics struct {
	Primary    float64            `json:"primary"`
	Constraint float64            `json:"constraint"`
	Fields     map[string]float64 `json:"fields,omitempty"`
}

// WorstMetrics is the baseline used before the first run of an episode.
func WorstMetrics() Metrics {
	return Metrics{Primary: math.Inf(1), Constraint: math.Inf(1)}
}

// Observation holds the structural features of a design artifact.
// The zero value means the observation is unavailable.
type Observation struct {
	Features map[string]float64 `json:"features"`
}

// IsZero reports whether the observation is the unavailable sentinel.
func (o Observation) IsZero() bool {
	return len(o.Features) == 0
}

// Vector returns the features in FeatureNames order.
func (o Observation) Vector() []float64 {
	out := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[i] = o.Features[name]
	}
	return out
}

// Validate checks that every feature of the vector is present.
func (o Observation) Validate() error {
	for _, name := range FeatureNames {
		if _, ok := o.Features[name]; !ok {
			return fmt.Errorf("observation missing feature %q", name)
		}
	}
	return nil
}

// Record is a best-known result and where it was found.
type Record struct {
	Optimization float64 `json:"optimization"`
	Constraint   float64 `json:"constraint"`
	Episode      int     `json:"episode"`
	Iteration    int     `json:"iteration"`
}

// EmptyRecord is the initial value of every best-known record.
func EmptyRecord() Record {
	return Record{Optimization: math.Inf(1), Constraint: math.Inf(1), Episode: -1, Iteration: -1}
}

// IsEmpty reports whether no run has been recorded yet.
func (r Record) IsEmpty() bool {
	return r.Episode < 0
}

// Records groups the three best-known results of a session.
type Records struct {
	MeetsConstraint Record `json:"best_meets_constraint"`
	Primary         Record `json:"best_primary"`
	Constraint      Record `json:"best_constraint"`
}

// EmptyRecords returns a Records set with no run recorded.
func EmptyRecords() Records {
	return Records{
		MeetsConstraint: EmptyRecord(),
		Primary:         EmptyRecord(),
		Constraint:      EmptyRecord(),
	}
}

// Merge keeps, per record, the better of r and other. Ties keep r, so the
// record found first wins.
func (r Records) Merge(other Records) Records {
	out := r
	if other.MeetsConstraint.Optimization < out.MeetsConstraint.Optimization {
		out.MeetsConstraint = other.MeetsConstraint
	}
	if other.Primary.Optimization < out.Primary.Optimization {
		out.Primary = other.Primary
	}
	if other.Constraint.Constraint < out.Constraint.Constraint {
		out.Constraint = other.Constraint
	}
	return out
}

// JSON has no infinity; unset metrics travel as null.

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}

type metricsJSON struct {
	Primary    *float64           `json:"primary"`
	Constraint *float64           `json:"constraint"`
	Fields     map[string]float64 `json:"fields,omitempty"`
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsJSON{
		Primary:    finite(m.Primary),
		Constraint: finite(m.Constraint),
		Fields:     m.Fields,
	})
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var aux metricsJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.Primary = orInf(aux.Primary)
	m.Constraint = orInf(aux.Constraint)
	m.Fields = aux.Fields
	return nil
}

type recordJSON struct {
	Optimization *float64 `json:"optimization"`
	Constraint   *float64 `json:"constraint"`
	Episode      int      `json:"episode"`
	Iteration    int      `json:"iteration"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Optimization: finite(r.Optimization),
		Constraint:   finite(r.Constraint),
		Episode:      r.Episode,
		Iteration:    r.Iteration,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var aux recordJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Optimization = orInf(aux.Optimization)
	r.Constraint = orInf(aux.Constraint)
	r.Episode = aux.Episode
	r.Iteration = aux.Iteration
	return nil
}
