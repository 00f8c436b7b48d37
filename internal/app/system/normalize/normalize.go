// internal/app/system/normalize/normalize.go
//
// Package normalize coerces loosely-typed JSON input into the values the
// stores persist. Optional strings collapse to "" when absent, null or
// blank; boolean-like flags accept a closed set of spellings.
package normalize

import (
	"strings"

	"github.com/dalemusser/deruta/internal/app/system/apperr"
)

// Visited flag values.
const (
	VisitedYes = "SI"
	VisitedNo  = ""
)

// Text returns v as a stored string: "" when v is nil or blank after
// trimming, v unchanged otherwise. Non-string values are rejected.
func Text(field string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		if strings.TrimSpace(s) == "" {
			return "", nil
		}
		return s, nil
	default:
		return "", apperr.Validation(`field "` + field + `" must be a string`)
	}
}

// Required is Text with presence enforcement.
func Required(field string, v any) (string, error) {
	s, err := Text(field, v)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", apperr.Validation(`missing field "` + field + `"`)
	}
	return s, nil
}

// Fields applies Text to each named key of body and returns the full set,
// so absent keys come back as "".
func Fields(body map[string]any, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		s, err := Text(name, body[name])
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

// Flag accepts true, false, "true" and "false". Anything else, including
// absence, is a validation error.
func Flag(field string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch b {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, apperr.Validation(`field "` + field + `" must be true or false`)
}

// FlagInt converts a flag to the 0/1 form kept in the relational store.
func FlagInt(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

// Visited validates the two-valued visited flag. Absence is not accepted;
// clients clear the flag by sending "".
func Visited(v any) (string, error) {
	s, ok := v.(string)
	if !ok || (s != VisitedYes && s != VisitedNo) {
		return "", apperr.Validation(`visited must be "SI" or ""`)
	}
	return s, nil
}

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
