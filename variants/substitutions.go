package variants

import (
	"fmt"

	"github.com/gmaffy/genome-release/annotation"
)

func isBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// substitutions translates every changed codon once per sample. Codons that
// cannot be read in frame (sample gaps, ambiguous bases, reference insertions
// inside the codon) and changes outside annotated genes are not reported.
func (d Detector) substitutions(a aligned) []Mutation {
	var out []Mutation
	lastCodon := -1
	for i := 0; i < len(a.ref); i++ {
		r, s := a.ref[i], a.seq[i]
		if r == s || !isBase(r) || !isBase(s) {
			continue
		}
		pos := a.refPos[i] + 1
		g, ok := d.Genes.Lookup(pos)
		if !ok {
			continue
		}
		codonStart, codonNum, ok := g.CodonStart(pos)
		if !ok || codonStart == lastCodon {
			continue
		}
		refCodon, altCodon, ok := a.codon(codonStart)
		if !ok {
			continue
		}
		lastCodon = codonStart

		refAA, ok1 := annotation.Translate(refCodon)
		altAA, ok2 := annotation.Translate(altCodon)
		if !ok1 || !ok2 {
			continue
		}
		effect := Missense
		switch {
		case refAA == altAA:
			effect = Synonymous
		case altAA == annotation.Stop:
			effect = Nonsense
		}
		if effect == Synonymous && !d.KeepSynonymous {
			continue
		}

		m := Mutation{
			Type:     Substitution,
			Gene:     g.Name,
			Pos:      pos,
			Coords:   fmt.Sprintf("%d:%d", pos, pos),
			CodonNum: codonNum,
			RefCodon: refCodon,
			AltCodon: altCodon,
			RefAA:    refAA,
			AltAA:    altAA,
			Effect:   effect,
			SampleID: a.sampleID,
		}
		m.PrevNts, m.NextNts = a.flanks(pos, pos)
		out = append(out, m)
	}
	return out
}

// codon reads the reference and sample codon starting at reference position start.
func (a aligned) codon(start int) (string, string, bool) {
	if start < 1 || start+2 >= len(a.posCol) {
		return "", "", false
	}
	c0 := a.posCol[start]
	if a.posCol[start+1] != c0+1 || a.posCol[start+2] != c0+2 {
		return "", "", false
	}
	alt := a.seq[c0 : c0+3]
	for i := 0; i < 3; i++ {
		if !isBase(alt[i]) {
			return "", "", false
		}
	}
	return a.ref[c0 : c0+3], alt, true
}
