package procedure

import "strings"

// Step is one numbered instruction inside a section. Number is the step
// number in canonical decimal form, so it has no size limit.
type Step struct {
	Number      string
	Description string
}

// Section groups steps under a name. Notes are keyed by step number.
type Section struct {
	Name  string
	Steps []Step
	Notes map[string]string
}

// Note returns the note attached to step n, or "".
func (s *Section) Note(n string) string {
	return s.Notes[n]
}

// StepNumber canonicalizes a run of ASCII digits: leading zeros are
// dropped, so "007" and "7" name the same step.
func StepNumber(digits string) string {
	if n := strings.TrimLeft(digits, "0"); n != "" {
		return n
	}
	return "0"
}

// Procedure is an ordered collection of sections keyed by name.
type Procedure struct {
	sections []*Section
	byName   map[string]*Section
	skipped  int
}

func New() *Procedure {
	return &Procedure{byName: make(map[string]*Section)}
}

// Section returns the section with the given name, creating it at the end
// of the order if it does not exist yet.
func (p *Procedure) Section(name string) *Section {
	if s, ok := p.byName[name]; ok {
		return s
	}
	s := &Section{Name: name, Notes: make(map[string]string)}
	p.byName[name] = s
	p.sections = append(p.sections, s)
	return s
}

// Lookup returns the named section without creating it.
func (p *Procedure) Lookup(name string) (*Section, bool) {
	s, ok := p.byName[name]
	return s, ok
}

// Sections returns the sections in insertion order.
func (p *Procedure) Sections() []*Section {
	return p.sections
}

func (p *Procedure) Empty() bool {
	return len(p.sections) == 0
}

type Stats struct {
	Sections int
	Steps    int
	Notes    int
	Skipped  int // non-blank lines that matched no pattern
}

func (p *Procedure) Stats() Stats {
	st := Stats{Sections: len(p.sections), Skipped: p.skipped}
	for _, s := range p.sections {
		st.Steps += len(s.Steps)
		st.Notes += len(s.Notes)
	}
	return st
}
