// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured turns model replies into Go values. Replies are
// untrusted text: the JSON value is located inside any surrounding prose or
// Markdown fences, lightly repaired, and decoded with weak typing so that
// near-miss shapes still decode: numbers as strings or percentages, a single
// string where a list is expected, objects where text is expected.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrNoJSON is returned when a reply contains no JSON object or array.
var ErrNoJSON = errors.New("no JSON value in reply")

var (
	// fencePattern matches a Markdown code fence, optionally tagged json.
	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

	// trailingCommaPattern matches a comma directly before a closing brace or bracket.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// Kind is the JSON value kind a caller expects from a reply.
type Kind int

const (
	// KindAny accepts the first well-formed value.
	KindAny Kind = iota
	KindObject
	KindArray
)

// Extract returns the JSON text embedded in reply: the first well-formed
// object or array.
func Extract(reply string) (string, error) {
	return ExtractKind(reply, KindAny)
}

// ExtractKind returns the JSON text embedded in reply. Every balanced
// {...} or [...] span is tried in order; the first well-formed span of the
// wanted kind wins, else the first well-formed span of any kind.
func ExtractKind(reply string, want Kind) (string, error) {
	text := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if text == "" {
		return "", ErrNoJSON
	}
	if json.Valid([]byte(text)) && (want == KindAny || kindOf(text) == want) {
		return text, nil
	}

	var first, malformed string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		span := balancedSpan(text, i)
		if span == "" {
			continue
		}
		candidate, ok := repair(span)
		if !ok {
			if malformed == "" {
				malformed = span
			}
			continue
		}
		if want == KindAny || kindOf(candidate) == want {
			return candidate, nil
		}
		if first == "" {
			first = candidate
		}
	}
	if first != "" {
		return first, nil
	}
	if malformed != "" {
		return "", fmt.Errorf("%w: malformed JSON near %q", ErrNoJSON, truncate(malformed, 60))
	}
	return "", ErrNoJSON
}

// repair returns span, or span without trailing commas, when either is
// well-formed JSON.
func repair(span string) (string, bool) {
	if json.Valid([]byte(span)) {
		return span, true
	}
	repaired := trailingCommaPattern.ReplaceAllString(span, "$1")
	if json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return "", false
}

func kindOf(text string) Kind {
	switch strings.TrimSpace(text)[0] {
	case '{':
		return KindObject
	case '[':
		return KindArray
	}
	return KindAny
}

// balancedSpan returns the balanced {...} or [...] span opening at s[start],
// skipping brackets inside string literals, or "" when it never closes.
func balancedSpan(s string, start int) string {
	open := s[start]
	closing := byte('}')
	if open == '[' {
		closing = ']'
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// Decode extracts the JSON value from reply and decodes it into dst, which
// must be a non-nil pointer. Structs and maps prefer an object in the reply,
// slices prefer an array.
func Decode(reply string, dst any) error {
	raw, err := ExtractKind(reply, kindFor(dst))
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return fmt.Errorf("parsing reply JSON: %w", err)
	}
	return DecodeValue(v, dst)
}

func kindFor(dst any) Kind {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return KindAny
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return KindObject
	case reflect.Slice, reflect.Array:
		return KindArray
	}
	return KindAny
}

// DecodeValue converts a generic value (maps, slices, scalars, or already
// typed structs) into dst using json tag names and weak typing.
func DecodeValue(v any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(scoreHook, textHook),
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	return nil
}

// scorePattern matches model scores such as "85%", "8/10" or " 7.5 ".
var scorePattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*(?:%|/\s*\d+(?:\.\d+)?)?\s*$`)

// scoreHook reads numeric fields given as percentages or "n/10" text.
func scoreHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	default:
		return data, nil
	}
	m := scorePattern.FindStringSubmatch(reflect.ValueOf(data).String())
	if m == nil {
		return data, nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return data, nil
	}
	return f, nil
}

// textKeys are the fields consulted, in order, when an object stands where
// text is expected.
var textKeys = []string{"issue", "description", "text", "suggestion", "recommendation", "message", "detail"}

// textHook turns an object found where a string is expected into text: its
// first descriptive field, else its compact JSON.
func textHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String || from.Kind() != reflect.Map {
		return data, nil
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	for _, k := range textKeys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return data, nil
	}
	return string(b), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
