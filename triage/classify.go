package triage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gmaffy/genome-release/variants"
)

// Policy is the allow-list a release is judged against. Genes are matched by
// name and mutations by variants.Mutation.Name, e.g. "S:N501Y".
type Policy struct {
	NonconcerningGenes     []string `yaml:"nonconcerning_genes" json:"nonconcerning_genes"`
	NonconcerningMutations []string `yaml:"nonconcerning_mutations" json:"nonconcerning_mutations"`
}

// LoadPolicy reads a YAML policy file. JSON is valid YAML, so the older
// config.json form loads as well.
func LoadPolicy(path string) (Policy, error) {
	var p Policy
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing policy %s: %w", path, err)
	}
	return p, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

// Classify flags every mutation outside the policy and collects the samples that
// carry at least one of them. Corrected markers are stripped from the ids. The
// returned mutations are copies in input order (insertions, deletions, then
// substitutions), so callers may mark them without touching the inputs.
func Classify(ins, dels, subs []variants.AggregatedMutation, p Policy) (map[string]bool, []variants.AggregatedMutation) {
	genes := toSet(p.NonconcerningGenes)
	names := toSet(p.NonconcerningMutations)

	ids := make(map[string]bool)
	var flagged []variants.AggregatedMutation
	for _, group := range [][]variants.AggregatedMutation{ins, dels, subs} {
		for _, m := range group {
			if genes[m.Gene] || names[m.Name()] {
				continue
			}
			m.Samples = append([]string(nil), m.Samples...)
			for _, entry := range m.Samples {
				ids[variants.SampleOf(entry)] = true
			}
			flagged = append(flagged, m)
		}
	}
	return ids, flagged
}
