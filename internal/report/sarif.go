package report

import (
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/example/metascan/internal/risk"
)

const (
	toolName = "metascan"
	toolURI  = "https://github.com/example/metascan"
)

// sarifLevel maps risk levels onto SARIF result levels.
func sarifLevel(level risk.Level) string {
	switch level {
	case risk.LevelHigh:
		return "error"
	case risk.LevelMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF renders every finding as a SARIF result located at its file.
func (a Artifact) WriteSARIF(w io.Writer) error {
	rep, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)

	registered := map[string]struct{}{}
	for _, fr := range a.Results {
		for _, finding := range fr.Result.Findings {
			if _, ok := registered[finding.RuleID]; !ok {
				run.AddRule(finding.RuleID).
					WithDescription(finding.Reason).
					WithProperties(sarif.Properties{
						"category": string(finding.Category),
						"weight":   finding.Weight,
					})
				registered[finding.RuleID] = struct{}{}
			}

			message := finding.Reason
			if len(finding.Fields) > 0 {
				message += " Fields: " + strings.Join(finding.Fields, ", ") + "."
			}

			run.CreateResultForRule(finding.RuleID).
				WithLevel(sarifLevel(fr.Result.Level)).
				WithMessage(sarif.NewTextMessage(message)).
				AddLocation(
					sarif.NewLocationWithPhysicalLocation(
						sarif.NewPhysicalLocation().
							WithArtifactLocation(sarif.NewSimpleArtifactLocation(fr.Path)),
					),
				)
		}
	}

	rep.AddRun(run)
	return rep.PrettyWrite(w)
}
