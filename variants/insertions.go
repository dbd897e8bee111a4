package variants

import "fmt"

// insertions reports runs of reference gaps. Pos is the reference base right
// after the inserted bases and Coords names the two reference bases around them.
func (d Detector) insertions(a aligned) []Mutation {
	var out []Mutation
	for _, run := range gapRuns(a.ref) {
		start, end := run[0], run[1]
		length := end - start
		if length < minLen(d.MinInsLen) {
			continue
		}
		pos := a.refPos[start] + 1
		m := Mutation{
			Type:         Insertion,
			Pos:          pos,
			Coords:       fmt.Sprintf("%d:%d", pos-1, pos),
			IndelLen:     length,
			IndelSeq:     a.seq[start:end],
			IsFrameshift: length%3 != 0,
			SampleID:     a.sampleID,
		}
		d.codingPosition(&m)
		m.PrevNts, m.NextNts = a.flanks(pos, pos-1)
		out = append(out, m)
	}
	return out
}
