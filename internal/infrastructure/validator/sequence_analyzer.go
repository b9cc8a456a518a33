package validator

import (
	"strings"

	"flowdiagram/internal/domain/entity"
)

// DiagramMarker is the literal prefix every generated diagram must start
// with. No leading whitespace or comments are forgiven.
const DiagramMarker = "sequenceDiagram"

type AnalysisResult struct {
	Passed   bool
	Warnings []*entity.DiagramWarning
}

type Analyzer interface {
	HasMarker(source string) bool
	Analyze(source string) *AnalysisResult
}

type SequenceAnalyzer struct{}

func NewSequenceAnalyzer() *SequenceAnalyzer {
	return &SequenceAnalyzer{}
}

// HasMarker reports whether the diagram source starts with the required
// grammar marker. This is the only check that rejects a generation.
func (a *SequenceAnalyzer) HasMarker(source string) bool {
	return strings.HasPrefix(source, DiagramMarker)
}

var arrowTokens = []string{"-->>", "->>", "--x", "-x", "--)", "-)", "-->", "->"}

var keywordStatements = []string{
	"participant ", "actor ", "note ", "loop", "alt", "opt", "else", "end",
	"par", "and", "critical", "option", "break", "rect", "activate ",
	"deactivate ", "autonumber", "title", "box", "link ", "links ",
	"create ", "destroy ",
}

// Analyze lints the body of a sequence diagram. Findings are advisory
// only and are attached to archived diagrams, never returned to the
// generation caller as an error.
func (a *SequenceAnalyzer) Analyze(source string) *AnalysisResult {
	result := &AnalysisResult{Passed: true}

	if !a.HasMarker(source) {
		result.Passed = false
		result.Warnings = append(result.Warnings, &entity.DiagramWarning{
			Line:    1,
			Message: "diagram does not start with " + DiagramMarker,
		})
		return result
	}

	lines := strings.Split(source, "\n")
	statements := 0
	for i, raw := range lines {
		if i == 0 {
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		statements++
		if !a.knownStatement(line) {
			result.Warnings = append(result.Warnings, &entity.DiagramWarning{
				Line:    i + 1,
				Message: "unrecognized sequence statement: " + line,
			})
		}
	}

	if statements == 0 {
		result.Warnings = append(result.Warnings, &entity.DiagramWarning{
			Line:    1,
			Message: "diagram has no statements",
		})
	}

	return result
}

func (a *SequenceAnalyzer) knownStatement(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywordStatements {
		if strings.HasPrefix(lower, kw) || lower == strings.TrimSpace(kw) {
			return true
		}
	}
	for _, arrow := range arrowTokens {
		if strings.Contains(line, arrow) {
			return true
		}
	}
	return false
}
