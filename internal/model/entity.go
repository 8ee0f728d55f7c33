package model

import "time"

// UnresolvedID is the sentinel canonical id assigned to observations whose
// entity could not be resolved. It is a real value, not a null: downstream
// aggregation groups unresolved records under it so their volume stays
// visible instead of silently dropping.
const UnresolvedID = "__unresolved__"

// CrosswalkRecord maps one canonical entity to its provider-native
// identifiers. ProviderIDs is sparse: a provider that has never seen the
// entity simply has no key.
type CrosswalkRecord struct {
	CanonicalID string            `json:"canonical_id"`
	DisplayName string            `json:"display_name"`
	Team        string            `json:"team,omitempty"`
	Position    string            `json:"position,omitempty"`
	ProviderIDs map[string]string `json:"provider_ids"`
}

// AliasRecord is one curated free-text alias for a canonical entity.
// Append-only; a given (alias_text, source) pair resolves to exactly one
// canonical id.
type AliasRecord struct {
	CanonicalID string    `json:"canonical_id"`
	AliasText   string    `json:"alias_text"`
	Source      string    `json:"source"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// Observation is one provider's value for one entity/metric/date. Transient:
// produced by transformation, consumed by the consensus aggregator, never
// persisted by this subsystem.
type Observation struct {
	CanonicalID string  `json:"canonical_id" csv:"canonical_id"`
	Provider    string  `json:"provider" csv:"provider"`
	Metric      string  `json:"metric" csv:"metric"`
	Value       float64 `json:"value" csv:"value"`
	AsOf        Date    `json:"as_of" csv:"as_of"`
	Weight      float64 `json:"weight" csv:"weight"`
}
