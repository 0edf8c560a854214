package mutation

import (
	"regexp"
	"strings"
)

// Risk ranks how dangerous a plan item is.
type Risk int

const (
	RiskLow Risk = iota
	RiskMed
	RiskHigh
)

// String returns the display name of the risk level.
func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMed:
		return "MED"
	case RiskHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// RiskClassifier scores a plan item from its type and target text. The
// pattern set is policy, not structure, so callers may swap in their own.
type RiskClassifier interface {
	Assess(t Type, target string) Risk
}

// destructivePatterns flag shell text that can irreversibly destroy data.
var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-[a-z]*[rf]`),
	regexp.MustCompile(`rm\s+.*\*`),
	regexp.MustCompile(`mv\s+.*\s+/`),
	regexp.MustCompile(`git\s+reset`),
	regexp.MustCompile(`git\s+clean`),
	regexp.MustCompile(`chmod\s+777`),
	regexp.MustCompile(`sudo\s+rm`),
	regexp.MustCompile(`dd\s+if=`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`\bfdisk\b`),
	regexp.MustCompile(`\bformat\b`),
}

// PatternClassifier is the default classifier: destructive shell patterns
// are HIGH, any shell or git command is at least MED, file writes and
// patches are LOW, everything else MED.
type PatternClassifier struct {
	destructive []*regexp.Regexp
}

// NewPatternClassifier returns the default classifier. Extra patterns, if
// given, are added to the built-in destructive set.
func NewPatternClassifier(extra ...*regexp.Regexp) *PatternClassifier {
	patterns := make([]*regexp.Regexp, 0, len(destructivePatterns)+len(extra))
	patterns = append(patterns, destructivePatterns...)
	patterns = append(patterns, extra...)
	return &PatternClassifier{destructive: patterns}
}

// Assess implements RiskClassifier.
func (c *PatternClassifier) Assess(t Type, target string) Risk {
	switch t {
	case TypeRunBash, TypeGitOp:
		if c.isDestructive(target) {
			return RiskHigh
		}
		return RiskMed
	case TypeWriteFile, TypePatchFile:
		return RiskLow
	default:
		return RiskMed
	}
}

func (c *PatternClassifier) isDestructive(target string) bool {
	for _, pattern := range c.destructive {
		if pattern.MatchString(target) {
			return true
		}
	}
	return false
}

// commandFamilies maps well-known command prefixes to the advisory label
// shown in the confirmation UI. Advisory only; risk comes from the
// destructive-pattern check.
var commandFamilies = []struct {
	match *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(^|\s)sudo(\s|$)`), "Elevated privileges required"},
	{regexp.MustCompile(`(^|\s)git(\s|$)`), "Git operation"},
	{regexp.MustCompile(`(^|\s)(npm|yarn|pnpm|pip|cargo|go)(\s|$)`), "Package manager operation"},
	{regexp.MustCompile(`(^|\s)(docker|podman|kubectl)(\s|$)`), "Container runtime operation"},
}

// commandNotes builds the advisory detail lines attached to a command
// preview.
func commandNotes(command string) []string {
	var notes []string
	for _, family := range commandFamilies {
		if family.match.MatchString(command) {
			notes = append(notes, family.label)
		}
	}
	return notes
}

// truncateCommand shortens long command lines for display.
func truncateCommand(command string) string {
	command = strings.TrimSpace(command)
	if len(command) <= 60 {
		return command
	}
	return command[:57] + "..."
}
