package triage

import (
	"maps"
	"slices"
)

// State is where a sample stands in triage. White, Corrected, StillInspect and
// NonCodingWhitelisted are terminal; Inspect is left for suspicious samples that
// never went through correction.
type State int

const (
	Unclassified State = iota
	White
	Inspect
	Corrected
	StillInspect
	NonCodingWhitelisted
)

func (s State) String() string {
	switch s {
	case White:
		return "white"
	case Inspect:
		return "inspect"
	case Corrected:
		return "corrected"
	case StillInspect:
		return "still-inspect"
	case NonCodingWhitelisted:
		return "noncoding-whitelisted"
	}
	return "unclassified"
}

// Tree is the output directory a state routes to.
func (s State) Tree() string {
	switch s {
	case White:
		return "white"
	case Corrected:
		return "corrected"
	case Inspect, StillInspect, NonCodingWhitelisted:
		return "inspect"
	}
	return ""
}

// Manifest maps sample ids to their triage state.
type Manifest map[string]State

// Decide moves every sample out of Unclassified. Suspicious ids that are not
// among samples are left out of the manifest and returned sorted.
func Decide(samples []string, suspicious map[string]bool, outcomes Outcomes) (Manifest, []string) {
	m := make(Manifest, len(samples))
	for _, id := range samples {
		if !suspicious[id] {
			m[id] = White
			continue
		}
		m[id] = inspected(outcomes[id])
	}
	var unknown []string
	for id := range suspicious {
		if _, ok := m[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	slices.Sort(unknown)
	return m, unknown
}

func inspected(outcomes []Outcome) State {
	if len(outcomes) == 0 {
		return Inspect
	}
	corrected := false
	for _, o := range outcomes {
		switch o {
		case NeedsInspection:
			return StillInspect
		case AutoCorrected:
			corrected = true
		}
	}
	if corrected {
		return Corrected
	}
	return NonCodingWhitelisted
}

// Samples lists the ids in state s, sorted.
func (m Manifest) Samples(s State) []string {
	var ids []string
	for _, id := range slices.Sorted(maps.Keys(m)) {
		if m[id] == s {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m Manifest) Counts() map[State]int {
	counts := make(map[State]int)
	for _, s := range m {
		counts[s]++
	}
	return counts
}
