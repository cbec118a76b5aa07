package importer

import (
	"strings"

	"github.com/robrary/cookbook/recipe"
)

// stepKind tags the shapes recipeInstructions takes in the wild.
type stepKind int

const (
	stepUnknown stepKind = iota
	stepText             // a bare string, possibly several lines
	stepList             // an array of steps
	stepSection          // a HowToSection grouping nested steps
	stepLeaf             // any other object, usually a HowToStep
)

// nestedStepKeys are the properties that may carry child steps.
var nestedStepKeys = []string{"itemListElement", "steps"}

type step struct {
	kind     stepKind
	text     string
	children []step
}

// decodeStep classifies a decoded JSON value into one of the known step shapes.
func decodeStep(v any) step {
	switch n := v.(type) {
	case string:
		return step{kind: stepText, text: n}
	case []any:
		children := make([]step, 0, len(n))
		for _, item := range n {
			children = append(children, decodeStep(item))
		}
		return step{kind: stepList, children: children}
	case map[string]any:
		if hasType(n, "HowToSection") {
			return step{kind: stepSection, text: cleanText(stringField(n, "name")), children: nestedSteps(n)}
		}
		text := cleanText(stringField(n, "text"))
		if text == "" {
			text = cleanText(stringField(n, "name"))
		}
		return step{kind: stepLeaf, text: text, children: nestedSteps(n)}
	default:
		return step{kind: stepUnknown}
	}
}

func nestedSteps(n map[string]any) []step {
	var out []step
	for _, key := range nestedStepKeys {
		if v, ok := n[key]; ok {
			out = append(out, decodeStep(v))
		}
	}
	return out
}

// lines flattens a step tree into directions entries in display order.
func (s step) lines() []string {
	var out []string
	switch s.kind {
	case stepText:
		for _, line := range strings.Split(s.text, "\n") {
			if t := cleanText(line); t != "" {
				out = append(out, t)
			}
		}
	case stepList:
		for _, c := range s.children {
			out = append(out, c.lines()...)
		}
	case stepSection:
		if s.text != "" {
			out = append(out, recipe.Section(s.text))
		}
		for _, c := range s.children {
			out = append(out, c.lines()...)
		}
	case stepLeaf:
		if s.text != "" {
			out = append(out, s.text)
		}
		for _, c := range s.children {
			out = append(out, c.lines()...)
		}
	}
	return out
}

// normalizeInstructions turns a recipeInstructions value into directions.
func normalizeInstructions(v any) []string {
	lines := decodeStep(v).lines()
	if lines == nil {
		return []string{}
	}
	return lines
}
