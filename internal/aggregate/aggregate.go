// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate groups per-page analysis results by participant.
//
// Grouping is sequential and order-dependent: a detected identifier carries
// forward over following Unknown pages, and pages re-detecting a previously
// seen identifier accumulate into that identifier's existing group because
// the map is keyed by identifier, not by run.
package aggregate

import (
	"fmt"

	"github.com/meshintel/formscan/pkg/types"
)

// State is the carry-forward grouping state, advanced once per page.
// The zero value is not valid; use NewState.
type State struct {
	// CurrentID is the last resolved participant identifier. Empty means
	// no page has resolved an identifier yet.
	CurrentID string

	// UnknownCounter is the next suffix for a synthesized Unknown_N
	// placeholder. It only ever increases.
	UnknownCounter int
}

// NewState returns the initial state for a document run.
func NewState() State {
	return State{UnknownCounter: 1}
}

// Resolve advances the state for one page and returns the participant
// identifier the page's elements belong to.
//
// A non-Unknown detection that differs from CurrentID switches the current
// group; re-detecting the current identifier is a no-op. When no identifier
// has ever been detected, an Unknown page synthesizes "Unknown_N" and the
// placeholder persists until a real identifier appears. An Unknown page
// after any resolved identifier continues that identifier's group.
func (s State) Resolve(detectedID string) (State, string) {
	if detectedID != types.UnknownID {
		if s.CurrentID == "" || detectedID != s.CurrentID {
			s.CurrentID = detectedID
		}
	}
	if s.CurrentID == "" {
		s.CurrentID = fmt.Sprintf("Unknown_%d", s.UnknownCounter)
		s.UnknownCounter++
	}
	return s, s.CurrentID
}

// Groups maps resolved participant identifiers to their accumulated
// elements, preserving first-insertion key order for export.
type Groups struct {
	order []string
	byID  map[string][]types.Element
}

// NewGroups returns an empty group accumulation.
func NewGroups() *Groups {
	return &Groups{byID: make(map[string][]types.Element)}
}

// Append stamps every element's ParticipantID with id and appends the
// elements to id's group, creating the group if absent. A page with no
// elements still creates the group entry, matching the run's resolution
// history, but contributes nothing to it.
func (g *Groups) Append(id string, elems []types.Element) {
	if _, ok := g.byID[id]; !ok {
		g.order = append(g.order, id)
		g.byID[id] = nil
	}
	for i := range elems {
		elems[i].ParticipantID = id
	}
	g.byID[id] = append(g.byID[id], elems...)
}

// IDs returns the group keys in first-insertion order.
func (g *Groups) IDs() []string {
	return g.order
}

// Elements returns the accumulated elements for id, in page order.
func (g *Groups) Elements(id string) []types.Element {
	return g.byID[id]
}

// Len returns the number of groups, including empty ones.
func (g *Groups) Len() int {
	return len(g.order)
}

// TotalElements returns the element count across all groups.
func (g *Groups) TotalElements() int {
	n := 0
	for _, elems := range g.byID {
		n += len(elems)
	}
	return n
}

// Aggregate runs the full grouping algorithm over an ordered page sequence.
// The incremental pipeline uses State and Groups directly; Aggregate serves
// re-export from archived runs and tests.
func Aggregate(pages []types.PageAnalysis) *Groups {
	st := NewState()
	groups := NewGroups()
	for _, page := range pages {
		var id string
		st, id = st.Resolve(page.ParticipantID)
		groups.Append(id, page.Elements)
	}
	return groups
}
