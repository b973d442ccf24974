package models

import "pensio/internal/scheme"

// State is the working state of one request. It is owned by a single
// goroutine for the lifetime of the request and is not safe for concurrent use.
type State struct {
	dossiers map[string]*Dossier
	order    []string
	ruleSets map[string]*scheme.RuleSet
}

// NewState returns empty working state with no dossiers.
func NewState() *State {
	return &State{
		dossiers: make(map[string]*Dossier),
		ruleSets: make(map[string]*scheme.RuleSet),
	}
}

// Dossier looks up a dossier created earlier in the request.
func (s *State) Dossier(dossierID string) (*Dossier, bool) {
	d, ok := s.dossiers[dossierID]
	return d, ok
}

// PutDossier stores d, replacing any dossier with the same id in place.
func (s *State) PutDossier(d *Dossier) (replaced bool) {
	if _, ok := s.dossiers[d.DossierID]; ok {
		replaced = true
	} else {
		s.order = append(s.order, d.DossierID)
	}
	s.dossiers[d.DossierID] = d
	return replaced
}

// DossierCount returns the number of dossiers in working state.
func (s *State) DossierCount() int {
	return len(s.dossiers)
}

// RuleSet returns a rule set already fetched during this request.
func (s *State) RuleSet(schemeID string) (*scheme.RuleSet, bool) {
	r, ok := s.ruleSets[schemeID]
	return r, ok
}

// RememberRuleSet pins a fetched rule set for the rest of the request.
// The first rule set seen for a scheme wins.
func (s *State) RememberRuleSet(rules *scheme.RuleSet) *scheme.RuleSet {
	if existing, ok := s.ruleSets[rules.SchemeID]; ok {
		return existing
	}
	s.ruleSets[rules.SchemeID] = rules
	return rules
}

// Snapshot returns deep copies of all dossiers in creation order.
func (s *State) Snapshot() []Dossier {
	out := make([]Dossier, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.dossiers[id].clone())
	}
	return out
}
