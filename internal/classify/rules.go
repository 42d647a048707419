package classify

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

// rulesFile is the on-disk override format. The bucket set is fixed; only
// the keyword groups per bucket can be replaced. Each entry under a bucket
// is a group of alternatives that must all co-occur with the other groups,
// mirroring the built-in rule shape.
//
//	living_expense:
//	  - ["생활비", "생활"]
//	  - ["지출"]
//	travel_expense:
//	  - ["여행"]
type rulesFile map[string][][]string

var bucketsByName = func() map[string]Bucket {
	m := make(map[string]Bucket, len(bucketNames))
	for b, n := range bucketNames {
		m[n] = b
	}
	return m
}()

// NewFromFile returns a classifier whose keyword rules are loaded from a
// YAML file. Buckets absent from the file keep their built-in rules; unknown
// bucket names are an error.
func NewFromFile(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	overridden := make(map[Bucket][][]string, len(rf))
	for name, groups := range rf {
		b, ok := bucketsByName[name]
		if !ok || b == Uncategorized {
			return nil, fmt.Errorf("unknown bucket %q in rules file", name)
		}
		if len(groups) == 0 {
			return nil, fmt.Errorf("bucket %q has no keyword groups", name)
		}
		overridden[b] = groups
	}

	rules := make([]rule, len(defaultRules))
	copy(rules, defaultRules)
	for i := range rules {
		if groups, ok := overridden[rules[i].bucket]; ok {
			rules[i] = rule{bucket: rules[i].bucket, groups: groups}
		}
	}
	return &Classifier{rules: rules}, nil
}
