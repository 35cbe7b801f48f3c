package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrDatasetLoad marks failures that make the question bank unusable.
// Callers treat it as fatal.
var ErrDatasetLoad = errors.New("dataset load failed")

var validate = validator.New()

// Bank is the immutable, ordered question collection
type Bank struct {
	questions []Question
	byID      map[string]int
	modules   []string
}

// New validates the questions and builds a bank preserving their order
func New(questions []Question) (*Bank, error) {
	b := &Bank{
		questions: make([]Question, len(questions)),
		byID:      make(map[string]int, len(questions)),
	}
	copy(b.questions, questions)

	seenModule := make(map[string]bool)
	for i := range b.questions {
		q := &b.questions[i]
		if q.Type == "" {
			q.Type = TypeOther
		}
		if err := validate.Struct(q); err != nil {
			return nil, fmt.Errorf("%w: question %d (%q): %v", ErrDatasetLoad, i, q.ID, err)
		}
		if prev, ok := b.byID[q.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q at %d and %d", ErrDatasetLoad, q.ID, prev, i)
		}
		b.byID[q.ID] = i

		if q.Module != "" && !seenModule[q.Module] {
			seenModule[q.Module] = true
			b.modules = append(b.modules, q.Module)
		}
	}

	return b, nil
}

// Load fetches, decodes and validates a dataset
func Load(ctx context.Context, src Source) (*Bank, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatasetLoad, err)
	}

	questions, err := Decode(src.Name(), data)
	if err != nil {
		return nil, err
	}

	return New(questions)
}

// Decode parses a JSON array, or a YAML sequence when name ends in .yaml/.yml.
// Optional text fields holding non-text values degrade to "".
func Decode(name string, data []byte) ([]Question, error) {
	var raw []map[string]any

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDatasetLoad, name, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDatasetLoad, name, err)
		}
	}

	questions := make([]Question, 0, len(raw))
	for _, m := range raw {
		questions = append(questions, fromMap(m))
	}
	return questions, nil
}

func fromMap(m map[string]any) Question {
	return Question{
		ID:             textOf(m["id"]),
		Number:         textOf(m["number"]),
		Module:         textOf(m["module"]),
		Type:           normalizeType(textOf(m["type"])),
		Stem:           textOf(m["stem"]),
		Options:        textOf(m["options"]),
		StandardAnswer: textOf(m["standardAnswer"]),
		Source:         sourcesOf(m["source"]),
		UpdatedAt:      textOf(m["updatedAt"]),
		MyAnswer:       textOf(m["myAnswer"]),
	}
}

func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func pageOf(v any) *int {
	var n int
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil
		}
		n = int(i)
	case int:
		n = x
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	case float64:
		n = int(x)
	default:
		return nil
	}
	return &n
}

// sourcesOf keeps entries that name a file and drops the rest
func sourcesOf(v any) []SourceRef {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	refs := make([]SourceRef, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		file := textOf(m["file"])
		if file == "" {
			continue
		}
		refs = append(refs, SourceRef{File: file, Page: pageOf(m["page"])})
	}
	return refs
}

// Len returns the number of questions
func (b *Bank) Len() int {
	return len(b.questions)
}

// All returns the questions in insertion order (copy)
func (b *Bank) All() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Get retrieves a question by ID
func (b *Bank) Get(id string) (Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// Has checks if a question exists
func (b *Bank) Has(id string) bool {
	_, ok := b.byID[id]
	return ok
}

// Modules returns distinct non-empty modules in first-appearance order
func (b *Bank) Modules() []string {
	out := make([]string, len(b.modules))
	copy(out, b.modules)
	return out
}
