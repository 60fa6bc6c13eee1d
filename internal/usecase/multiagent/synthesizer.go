package multiagent

import (
	"context"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// SummaryHeader opens every combined answer.
const SummaryHeader = "Here's a comprehensive summary based on all agents:\n\n"

// JoinSynthesizer concatenates one titled section per report, in the order
// given, separated by blank lines.
type JoinSynthesizer struct{}

// Synthesize implements domain.Synthesizer. It never fails.
func (JoinSynthesizer) Synthesize(_ context.Context, _ string, reports []*domain.Report) (string, error) {
	return SummaryHeader + JoinSections(reports), nil
}

// JoinSections renders reports as markdown sections.
func JoinSections(reports []*domain.Report) string {
	sections := make([]string, 0, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		sections = append(sections, "### "+Title(r.Specialty)+" ("+AgentName(r.Specialty)+")\n"+r.Summary)
	}
	return strings.Join(sections, "\n\n")
}
