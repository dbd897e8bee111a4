package variants

import (
	"fmt"
	"strings"

	"github.com/gmaffy/genome-release/annotation"
)

type Type string

const (
	Insertion    Type = "insertion"
	Deletion     Type = "deletion"
	Substitution Type = "substitution"
)

type Effect string

const (
	Missense   Effect = "missense"
	Nonsense   Effect = "nonsense"
	Synonymous Effect = "synonymous"
)

// FlankLen is the amount of reference context kept on each side of a mutation.
const FlankLen = 10

// Mutation is one difference between a sample and the reference. Pos is the
// 1-based ungapped reference position: the first deleted base, the reference
// base following an insertion, or the first changed base of a codon.
type Mutation struct {
	Type     Type
	Gene     string
	Pos      int
	Coords   string
	CodonNum int

	IndelLen     int
	IndelSeq     string
	IsFrameshift bool

	RefCodon string
	AltCodon string
	RefAA    string
	AltAA    string
	Effect   Effect

	PrevNts string
	NextNts string

	SampleID string
}

// Key is the mutation with its sample cleared. Two records describe the same
// mutation iff their keys are equal.
func (m Mutation) Key() Mutation {
	m.SampleID = ""
	return m
}

func (m Mutation) IsCoding() bool {
	return m.Gene != "" && m.Gene != annotation.NonCodingRegion
}

// Name is the identity matched against the non-concerning mutation list, e.g.
// S:N501Y, S:DEL69/6, ORF1a:INS100GAT or Non-coding region:DEL29734/3.
func (m Mutation) Name() string {
	loc := m.CodonNum
	if !m.IsCoding() || loc == 0 {
		loc = m.Pos
	}
	switch m.Type {
	case Substitution:
		return fmt.Sprintf("%s:%s%d%s", m.Gene, m.RefAA, m.CodonNum, m.AltAA)
	case Deletion:
		return fmt.Sprintf("%s:DEL%d/%d", m.Gene, loc, m.IndelLen)
	case Insertion:
		return fmt.Sprintf("%s:INS%d%s", m.Gene, loc, m.IndelSeq)
	default:
		return fmt.Sprintf("%s:%s%d", m.Gene, strings.ToUpper(string(m.Type)), m.Pos)
	}
}

// NtChanges counts the codon bases a substitution changes.
func (m Mutation) NtChanges() int {
	n := 0
	for i := 0; i < len(m.RefCodon) && i < len(m.AltCodon); i++ {
		if m.RefCodon[i] != m.AltCodon[i] {
			n++
		}
	}
	return n
}
