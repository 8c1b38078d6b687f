// Package jsonutil decodes JSON out of generative-model output. Models return
// free text that usually contains JSON but may wrap it in markdown fences or
// surround it with prose, so decoding walks a fallback ladder: strict parse,
// fence-stripped parse, extracted-substring parse, typed failure.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Strategy identifies which rung of the ladder produced a successful decode.
type Strategy string

const (
	StrategyStrict    Strategy = "strict"
	StrategyFenced    Strategy = "fenced"
	StrategyExtracted Strategy = "extracted"
)

// DecodeError is the typed failure returned when every strategy fails.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("no JSON found in model output (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// DecodeTolerant unmarshals model output into v, tolerating markdown fences
// and surrounding prose. Returns the strategy that succeeded.
func DecodeTolerant(raw string, v interface{}) (Strategy, error) {
	trimmed := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return StrategyStrict, nil
	}

	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return StrategyFenced, nil
		}
	}

	if sub := extractObject(trimmed); sub != "" {
		if err := json.Unmarshal([]byte(sub), v); err == nil {
			return StrategyExtracted, nil
		}
	}

	// Report the strict error; it is the most useful one.
	err := json.Unmarshal([]byte(trimmed), v)
	return "", &DecodeError{Raw: raw, Err: err}
}

// extractObject salvages the outermost balanced {...} or [...] from text.
func extractObject(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
