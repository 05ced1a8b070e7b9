package procedure

import (
	"regexp"
	"strings"
)

var (
	sectionRe = regexp.MustCompile(`^Section\s+(\d+):\s+(.+)`)
	stepRe    = regexp.MustCompile(`^Step\s+(\d+):\s+(.+)`)
	noteRe    = regexp.MustCompile(`^Step\s+(\d+)\s+Note:\s+(.+)`)
)

// Parse builds a Procedure from loosely structured model output.
//
// Each trimmed line is tried as a section header, then a step, then a step
// note; the first match wins. Lines matching none of them are skipped and
// counted in Stats().Skipped. A section header only selects the current
// section: the section itself appears once a step or note is filed under
// it, so headers with nothing beneath them are dropped. Steps seen before
// any section header land in the section named "".
func Parse(text string) *Procedure {
	p := New()
	current := ""

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			current = strings.TrimSpace(m[2])
			continue
		}

		if m := stepRe.FindStringSubmatch(line); m != nil {
			s := p.Section(current)
			s.Steps = append(s.Steps, Step{Number: StepNumber(m[1]), Description: m[2]})
			continue
		}

		if m := noteRe.FindStringSubmatch(line); m != nil {
			p.Section(current).Notes[StepNumber(m[1])] = m[2]
			continue
		}

		p.skipped++
	}
	return p
}
