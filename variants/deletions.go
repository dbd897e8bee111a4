package variants

import "fmt"

func (d Detector) deletions(a aligned) []Mutation {
	var out []Mutation
	for _, run := range gapRuns(a.seq) {
		start, end := run[0], run[1]
		length := end - start
		if length < minLen(d.MinDelLen) {
			continue
		}
		pos := a.refPos[start] + 1
		m := Mutation{
			Type:         Deletion,
			Pos:          pos,
			Coords:       fmt.Sprintf("%d:%d", pos, pos+length-1),
			IndelLen:     length,
			IndelSeq:     a.ref[start:end],
			IsFrameshift: length%3 != 0,
			SampleID:     a.sampleID,
		}
		d.codingPosition(&m)
		m.PrevNts, m.NextNts = a.flanks(pos, pos+length-1)
		out = append(out, m)
	}
	return out
}
