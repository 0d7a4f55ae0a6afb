package generator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrExtraction reports that no JSON structure could be recovered from
// the model's free-form response. The stage never falls back to a
// partial or guessed object.
var ErrExtraction = errors.New("no JSON structure recoverable from model response")

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\n?(.*?)```")

// RecoverStructure pulls a JSON value out of free-form model output.
// The candidate text is the first fenced code block if one exists,
// otherwise the whole response; an ordered chain of parsers then runs
// against it, short-circuiting on the first success:
//
//  1. strict JSON parse of the trimmed candidate
//  2. strict JSON parse of the outermost bracket span
//  3. permissive literal parse of the same span (single quotes,
//     trailing commas, Python-style True/False/None)
//
// All failures collapse into ErrExtraction.
func RecoverStructure(text string) (any, error) {
	candidate := text
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, ErrExtraction
	}

	for _, parse := range []func(string) (any, bool){
		parseStrict,
		parseSpanStrict,
		parseSpanPermissive,
	} {
		if v, ok := parse(candidate); ok {
			return v, nil
		}
	}
	return nil, ErrExtraction
}

func parseStrict(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// Reject parses that only consumed a leading fragment.
	if dec.More() {
		return nil, false
	}
	return v, true
}

func parseSpanStrict(s string) (any, bool) {
	span, ok := bracketSpan(s)
	if !ok {
		return nil, false
	}
	return parseStrict(span)
}

func parseSpanPermissive(s string) (any, bool) {
	span, ok := bracketSpan(s)
	if !ok {
		return nil, false
	}
	v, err := parsePermissive(span)
	if err != nil {
		return nil, false
	}
	return v, true
}

// bracketSpan returns the substring from the earliest opening bracket
// to the latest closing bracket, the widest span that could hold a
// JSON structure embedded in prose.
func bracketSpan(s string) (string, bool) {
	start := -1
	for _, c := range []byte{'{', '['} {
		if i := strings.IndexByte(s, c); i != -1 && (start == -1 || i < start) {
			start = i
		}
	}
	end := -1
	for _, c := range []byte{'}', ']'} {
		if i := strings.LastIndexByte(s, c); i > end {
			end = i
		}
	}
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
