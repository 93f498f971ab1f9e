// Package warehouse classifies peer stock documents into sourcing roles. The
// engine consumes explicit role tags; the filename/content heuristic lives
// here as an optional default detector for callers that do not tag documents
// themselves.
package warehouse

import (
	"sort"
	"strings"

	"github.com/starlogistic/replen/pkg/tabular"
)

// Role is the function a stock document plays in a run.
type Role int

const (
	// RoleAuto asks the registry to run the heuristic detector.
	RoleAuto Role = iota
	// RoleBranch is a peer location that can be pulled from, ranked by priority.
	RoleBranch
	// RoleDisplay is the showroom location, tracked apart from sellable stock.
	RoleDisplay
)

func (r Role) String() string {
	switch r {
	case RoleBranch:
		return "branch"
	case RoleDisplay:
		return "display"
	default:
		return "auto"
	}
}

// Document is one peer-warehouse extract handed to the engine: a name (usually
// the source filename without extension), decoded rows, and an optional
// explicit role. Priority matters for RoleBranch only; zero means "detect".
type Document struct {
	Name     string
	Rows     tabular.Rows
	Role     Role
	Priority int
}

// DetectConfig holds the name tokens the heuristic detector matches against.
type DetectConfig struct {
	DisplayTokens   []string // showroom markers, e.g. "tba"
	PrimaryTokens   []string // primary sourcing branch, e.g. "64"
	SecondaryTokens []string // secondary sourcing branch, e.g. "7bc"
}

// DefaultDetectConfig mirrors the store's historical file naming.
func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		DisplayTokens:   []string{"tba", "showroom"},
		PrimaryTokens:   []string{"64"},
		SecondaryTokens: []string{"7bc"},
	}
}

// DetectRole applies the filename/content heuristic: a display token anywhere
// in the document name (or its in-row warehouse label) marks the showroom;
// everything else is a branch with priority 1 for a primary token, 2 for a
// secondary token, 3 otherwise.
func DetectRole(name, contentLabel string, cfg DetectConfig) (Role, int) {
	n := strings.ToLower(name)
	l := strings.ToLower(contentLabel)
	if containsAny(n, cfg.DisplayTokens) || containsAny(l, cfg.DisplayTokens) {
		return RoleDisplay, 0
	}
	switch {
	case containsAny(n, cfg.PrimaryTokens):
		return RoleBranch, 1
	case containsAny(n, cfg.SecondaryTokens):
		return RoleBranch, 2
	default:
		return RoleBranch, 3
	}
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if t != "" && strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// Classified is the registry output: branches ordered by ascending priority
// (stable among ties) and at most one display document. When several display
// documents appear the last one wins; the caller is told via the Replaced
// count so it can log the data-quality problem.
type Classified struct {
	Branches []Document
	Display  *Document
	Replaced int
}

// Classify assigns a role to every document. Documents tagged RoleAuto go
// through DetectRole using the document name and the supplied content label
// (looked up by name; pass nil when labels were not extracted).
func Classify(docs []Document, labels map[string]string, cfg DetectConfig) Classified {
	var out Classified
	for _, d := range docs {
		role, prio := d.Role, d.Priority
		if role == RoleAuto {
			role, prio = DetectRole(d.Name, labels[d.Name], cfg)
		}
		if role == RoleDisplay {
			if out.Display != nil {
				out.Replaced++
			}
			doc := d
			doc.Role = RoleDisplay
			out.Display = &doc
			continue
		}
		if prio <= 0 {
			prio = 3
		}
		d.Role = RoleBranch
		d.Priority = prio
		out.Branches = append(out.Branches, d)
	}
	sort.SliceStable(out.Branches, func(i, j int) bool {
		return out.Branches[i].Priority < out.Branches[j].Priority
	})
	return out
}
