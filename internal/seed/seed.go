// Package seed holds the reference data the directory ships with: the US
// states (plus DC) and a starter set of practice areas. The importer and the
// nomination workflow use it to canonicalise free-text state input.
package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var referenceYAML []byte

// StateRef is a reference state
type StateRef struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// PracticeAreaRef is a starter practice area
type PracticeAreaRef struct {
	Name     string `yaml:"name"`
	Featured bool   `yaml:"featured"`
}

// Reference is the parsed reference file
type Reference struct {
	States        []StateRef        `yaml:"states"`
	PracticeAreas []PracticeAreaRef `yaml:"practiceAreas"`
}

var (
	loadOnce sync.Once
	loaded   *Reference
	loadErr  error
	byKey    map[string]StateRef
)

// Load parses the embedded reference data once
func Load() (*Reference, error) {
	loadOnce.Do(func() {
		var ref Reference
		if err := yaml.Unmarshal(referenceYAML, &ref); err != nil {
			loadErr = fmt.Errorf("failed to parse reference data: %w", err)
			return
		}
		byKey = make(map[string]StateRef, len(ref.States)*2)
		for _, s := range ref.States {
			byKey[normalize(s.Code)] = s
			byKey[normalize(s.Name)] = s
		}
		loaded = &ref
	})
	return loaded, loadErr
}

// LookupState resolves a two-letter code or a full state name, case-insensitively
func LookupState(input string) (StateRef, bool) {
	if _, err := Load(); err != nil {
		return StateRef{}, false
	}
	s, ok := byKey[normalize(input)]
	return s, ok
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, ".")
	return strings.Join(strings.Fields(s), " ")
}
