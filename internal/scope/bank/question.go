// Package bank holds the read-only question collection and the loaders that produce it.
package bank

import (
	"fmt"
	"strings"
)

// Type is the question kind
type Type string

const (
	TypeSingle   Type = "single"
	TypeMulti    Type = "multi"
	TypeShort    Type = "short"
	TypeCase     Type = "case"
	TypePractice Type = "practice"
	TypeOther    Type = "other"
)

// Types lists every known type in display order
var Types = []Type{TypeSingle, TypeMulti, TypeShort, TypeCase, TypePractice, TypeOther}

// ParseType parses a type name. The empty string parses to the empty Type,
// which filters treat as "any".
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// normalizeType maps missing or unknown dataset values to TypeOther
func normalizeType(s string) Type {
	t, err := ParseType(s)
	if err != nil || t == "" {
		return TypeOther
	}
	return t
}

// Label returns a human readable name
func (t Type) Label() string {
	switch t {
	case TypeSingle:
		return "Single choice"
	case TypeMulti:
		return "Multiple choice"
	case TypeShort:
		return "Short answer"
	case TypeCase:
		return "Case study"
	case TypePractice:
		return "Practical"
	default:
		return "Other"
	}
}

// SourceRef points at where a question was extracted from
type SourceRef struct {
	File string `json:"file" yaml:"file" validate:"required"`
	Page *int   `json:"page,omitempty" yaml:"page,omitempty"`
}

// String renders the reference as "file · p.N"
func (s SourceRef) String() string {
	if s.Page == nil {
		return s.File
	}
	return fmt.Sprintf("%s · p.%d", s.File, *s.Page)
}

// Question is a single read-only entry of the bank.
// ID is the only field that is stable across sessions.
type Question struct {
	ID             string      `json:"id" validate:"required"`
	Number         string      `json:"number,omitempty"`
	Module         string      `json:"module,omitempty"`
	Type           Type        `json:"type" validate:"oneof=single multi short case practice other"`
	Stem           string      `json:"stem"`
	Options        string      `json:"options,omitempty"`
	StandardAnswer string      `json:"standardAnswer,omitempty"`
	Source         []SourceRef `json:"source,omitempty" validate:"dive"`
	UpdatedAt      string      `json:"updatedAt,omitempty"`
	MyAnswer       string      `json:"myAnswer,omitempty"`
}

const previewLen = 80

// Preview returns the first 80 runes of the stem with whitespace collapsed
func (q Question) Preview() string {
	runes := []rune(q.Stem)
	truncated := len(runes) > previewLen
	if truncated {
		runes = runes[:previewLen]
	}
	preview := strings.Join(strings.Fields(string(runes)), " ")
	if truncated {
		preview += "…"
	}
	return preview
}

// Heading returns "#number · module" as shown in result lists
func (q Question) Heading() string {
	head := "#" + q.Number
	if q.Module != "" {
		head += " · " + q.Module
	}
	return head
}
