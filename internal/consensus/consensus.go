// Package consensus combines same-entity, same-metric values from multiple
// providers into one governed value via configured per-provider weights.
package consensus

import (
	"sort"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// GroupKey identifies one aggregation unit.
type GroupKey struct {
	CanonicalID string     `json:"canonical_id"`
	Metric      string     `json:"metric"`
	AsOf        model.Date `json:"as_of"`
}

// Value is one consensus result.
type Value struct {
	GroupKey
	Consensus float64 `json:"consensus"`
	Providers int     `json:"providers"`
}

// Report is the outcome of aggregating a batch of observations. A group
// whose weights are all zero lands in NoConsensus; its failure never aborts
// the batch.
type Report struct {
	Values      []Value    `json:"values"`
	NoConsensus []GroupKey `json:"no_consensus,omitempty"`

	// UnresolvedCount is the number of observations carrying the unresolved
	// sentinel. They aggregate under the sentinel like any other group so
	// the volume stays visible, but are never merged into a real entity.
	UnresolvedCount int `json:"unresolved_count"`
}

// Aggregator applies configured per-provider weights.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator creates an aggregator. A provider absent from weights gets
// weight zero: unconfigured providers contribute nothing rather than
// silently averaging in.
func NewAggregator(weights map[string]float64) *Aggregator {
	return &Aggregator{weights: weights}
}

// ApplyWeights stamps the configured weight onto each observation,
// replacing whatever the producer set.
func (a *Aggregator) ApplyWeights(obs []model.Observation) []model.Observation {
	out := make([]model.Observation, len(obs))
	for i, o := range obs {
		o.Weight = a.weights[o.Provider]
		out[i] = o
	}
	return out
}

// Aggregate computes the weighted mean per (canonical_id, metric, as_of)
// group using only observations with weight > 0. All-zero weights produce a
// NoConsensus entry for that group alone, never an unweighted average and
// never a division by zero.
func Aggregate(obs []model.Observation) Report {
	groups := map[GroupKey][]model.Observation{}
	var order []GroupKey
	unresolved := 0

	for _, o := range obs {
		if o.CanonicalID == model.UnresolvedID {
			unresolved++
		}
		key := GroupKey{CanonicalID: o.CanonicalID, Metric: o.Metric, AsOf: o.AsOf}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], o)
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.CanonicalID != b.CanonicalID {
			return a.CanonicalID < b.CanonicalID
		}
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		return a.AsOf.Before(b.AsOf)
	})

	r := Report{UnresolvedCount: unresolved}
	for _, key := range order {
		var weightedSum, weightSum float64
		contributing := 0
		for _, o := range groups[key] {
			if o.Weight <= 0 {
				continue
			}
			weightedSum += o.Value * o.Weight
			weightSum += o.Weight
			contributing++
		}
		if weightSum == 0 {
			r.NoConsensus = append(r.NoConsensus, key)
			continue
		}
		r.Values = append(r.Values, Value{
			GroupKey:  key,
			Consensus: weightedSum / weightSum,
			Providers: contributing,
		})
	}
	return r
}
