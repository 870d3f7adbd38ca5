package persona

import (
	"fmt"
	"strings"
)

// Document is the persona metadata kept in the persona store.
type Document struct {
	Identity  DocumentIdentity `json:"identity" yaml:"identity"`
	Style     DocumentStyle    `json:"style" yaml:"style"`
	Reminders []string         `json:"reminders" yaml:"reminders"`
}

type DocumentIdentity struct {
	Name       string   `json:"name" yaml:"name"`
	Role       string   `json:"role" yaml:"role"`
	State      string   `json:"state" yaml:"state"`
	CoreValues []string `json:"core_values" yaml:"core_values"`
}

type DocumentStyle struct {
	Tone string `json:"tone" yaml:"tone"`
}

// Memory is the opaque memory blob stored next to a persona.
type Memory struct {
	Entries     []any  `json:"entries" yaml:"entries"`
	LastUpdated string `json:"last_updated" yaml:"last_updated"`
	Version     string `json:"version" yaml:"version"`
}

func defaultMemory() Memory {
	return Memory{Entries: []any{}, LastUpdated: "2025-06-17", Version: "1.0"}
}

// InjectDocument prepends the document's identity section to base.
// A nil document returns base unchanged.
func InjectDocument(base string, doc *Document) string {
	if doc == nil {
		return base
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.\n", doc.Identity.Name, doc.Identity.Role)
	fmt.Fprintf(&b, "You are %s.\n", doc.Identity.State)
	fmt.Fprintf(&b, "Your core values are: %s.\n", strings.Join(doc.Identity.CoreValues, ", "))
	fmt.Fprintf(&b, "Your tone should be %s.\n", doc.Style.Tone)
	fmt.Fprintf(&b, "Reminders: %s.\n", strings.Join(doc.Reminders, "; "))
	b.WriteString("\n")
	b.WriteString(base)
	return b.String()
}
