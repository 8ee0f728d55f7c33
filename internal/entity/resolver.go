// Package entity maps provider-native identifiers and free-text names onto
// the canonical cross-provider identity space.
package entity

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// MatchTier records which resolution tier produced a match.
type MatchTier string

const (
	TierNativeID    MatchTier = "native_id"
	TierDisplayName MatchTier = "display_name"
	TierAlias       MatchTier = "alias"
	TierUnresolved  MatchTier = "unresolved"
)

// Query is one resolution request: a provider plus either a native id or a
// free-text name, with optional disambiguating attributes.
type Query struct {
	Provider string
	NativeID string
	Name     string
	Team     string
	Position string
}

// Resolution is the outcome of a resolve call. An unresolved query still
// yields a usable CanonicalID (the sentinel), never a silent null.
type Resolution struct {
	CanonicalID string    `json:"canonical_id"`
	Tier        MatchTier `json:"tier"`
}

// Resolved reports whether the query matched a real entity.
func (r Resolution) Resolved() bool { return r.Tier != TierUnresolved }

type aliasKey struct {
	text   string
	source string
}

// Resolver resolves queries against an immutable crosswalk/alias snapshot.
// Resolution is deterministic: the same query against the same snapshot
// always yields the same answer, so concurrent use needs no locking.
//
// The tiers are ordered exact matches, deliberately without edit-distance
// fallback: a fuzzy match between similarly-named distinct players is a
// silent misassignment, which is worse than leaving the record unresolved.
// Ambiguity is fixed by growing the alias table, not by guessing.
type Resolver struct {
	byNative map[string]map[string]string           // provider -> native id -> canonical
	byName   map[string][]*model.CrosswalkRecord    // normalized display name -> candidates
	byAlias  map[aliasKey]string                    // (normalized alias, source) -> canonical
	aliasAny map[string][]string                    // normalized alias -> canonicals across sources
	records  map[string]*model.CrosswalkRecord      // canonical id -> record
}

// NewResolver indexes a crosswalk and alias snapshot. Crosswalk-build
// invariants are enforced here, not at read time: a native id claimed by two
// canonical ids, or an (alias_text, source) pair pointing at two canonical
// ids, fails the build.
func NewResolver(crosswalk []model.CrosswalkRecord, aliases []model.AliasRecord) (*Resolver, error) {
	r := &Resolver{
		byNative: map[string]map[string]string{},
		byName:   map[string][]*model.CrosswalkRecord{},
		byAlias:  map[aliasKey]string{},
		aliasAny: map[string][]string{},
		records:  map[string]*model.CrosswalkRecord{},
	}

	for i := range crosswalk {
		rec := &crosswalk[i]
		if rec.CanonicalID == "" {
			return nil, eris.New("entity: crosswalk record missing canonical_id")
		}
		if _, dup := r.records[rec.CanonicalID]; dup {
			return nil, eris.Errorf("entity: duplicate canonical_id %s", rec.CanonicalID)
		}
		r.records[rec.CanonicalID] = rec

		for provider, nativeID := range rec.ProviderIDs {
			if nativeID == "" {
				continue
			}
			m, ok := r.byNative[provider]
			if !ok {
				m = map[string]string{}
				r.byNative[provider] = m
			}
			if prev, claimed := m[nativeID]; claimed && prev != rec.CanonicalID {
				return nil, eris.Errorf("entity: %s id %q claimed by both %s and %s",
					provider, nativeID, prev, rec.CanonicalID)
			}
			m[nativeID] = rec.CanonicalID
		}

		if name := NormalizeName(rec.DisplayName); name != "" {
			r.byName[name] = append(r.byName[name], rec)
		}
	}

	for _, a := range aliases {
		norm := NormalizeName(a.AliasText)
		if norm == "" {
			continue
		}
		key := aliasKey{text: norm, source: a.Source}
		if prev, ok := r.byAlias[key]; ok {
			if prev != a.CanonicalID {
				return nil, eris.Errorf("entity: alias %q from %s points at both %s and %s",
					a.AliasText, a.Source, prev, a.CanonicalID)
			}
			continue
		}
		r.byAlias[key] = a.CanonicalID
		r.aliasAny[norm] = append(r.aliasAny[norm], a.CanonicalID)
	}

	zap.L().Debug("entity: resolver built",
		zap.Int("crosswalk_records", len(crosswalk)),
		zap.Int("aliases", len(aliases)),
	)
	return r, nil
}

// Resolve maps a query to a canonical id. First matching tier wins; there is
// no backtracking across tiers.
func (r *Resolver) Resolve(q Query) Resolution {
	// Tier 1: provider-native id. Authoritative when present.
	if q.NativeID != "" {
		if id, ok := r.byNative[q.Provider][q.NativeID]; ok {
			return Resolution{CanonicalID: id, Tier: TierNativeID}
		}
	}

	if q.Name == "" {
		return Resolution{CanonicalID: model.UnresolvedID, Tier: TierUnresolved}
	}
	name := NormalizeName(q.Name)

	// Tier 2: normalized name against canonical display names.
	if id, ok := r.disambiguate(r.byName[name], q); ok {
		return Resolution{CanonicalID: id, Tier: TierDisplayName}
	}

	// Tier 3: normalized name against the alias table. An alias curated for
	// the querying provider wins; otherwise any source may match as long as
	// the candidates agree after disambiguation.
	if id, ok := r.byAlias[aliasKey{text: name, source: q.Provider}]; ok {
		return Resolution{CanonicalID: id, Tier: TierAlias}
	}
	var candidates []*model.CrosswalkRecord
	seen := map[string]bool{}
	for _, id := range r.aliasAny[name] {
		if seen[id] {
			continue
		}
		seen[id] = true
		if rec, ok := r.records[id]; ok {
			candidates = append(candidates, rec)
		}
	}
	if id, ok := r.disambiguate(candidates, q); ok {
		return Resolution{CanonicalID: id, Tier: TierAlias}
	}

	return Resolution{CanonicalID: model.UnresolvedID, Tier: TierUnresolved}
}

// disambiguate narrows same-name candidates by position, then team. A tier
// only matches when exactly one candidate survives; ambiguity falls through
// to the next tier rather than guessing.
func (r *Resolver) disambiguate(candidates []*model.CrosswalkRecord, q Query) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0].CanonicalID, true
	}

	narrowed := candidates
	if q.Position != "" {
		narrowed = filterBy(narrowed, func(rec *model.CrosswalkRecord) bool {
			return strings.EqualFold(rec.Position, q.Position)
		})
	}
	if len(narrowed) > 1 && q.Team != "" {
		narrowed = filterBy(narrowed, func(rec *model.CrosswalkRecord) bool {
			return strings.EqualFold(rec.Team, q.Team)
		})
	}
	if len(narrowed) == 1 {
		return narrowed[0].CanonicalID, true
	}
	return "", false
}

func filterBy(recs []*model.CrosswalkRecord, keep func(*model.CrosswalkRecord) bool) []*model.CrosswalkRecord {
	var out []*model.CrosswalkRecord
	for _, rec := range recs {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
