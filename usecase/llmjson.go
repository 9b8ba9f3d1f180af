package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-interviewer/domain"
)

var errNoJSON = errors.New("no JSON value found in model output")

// ExtractJSON strips markdown code fences and returns the first top-level
// balanced JSON object in raw. Arrays met on the way are skipped whole; the
// first of them is returned only when raw holds no object.
func ExtractJSON(raw string) (string, error) {
	s := stripCodeFence(strings.TrimSpace(raw))

	var array string
	for i := 0; i < len(s); {
		j := strings.IndexAny(s[i:], "{[")
		if j < 0 {
			break
		}
		start := i + j
		body, err := balancedAt(s, start)
		if s[start] == '{' {
			return body, err
		}
		if err != nil {
			i = start + 1
			continue
		}
		if array == "" {
			array = body
		}
		i = start + len(body)
	}
	if array != "" {
		return array, nil
	}
	return "", errNoJSON
}

// balancedAt returns the JSON value opening at s[start], honoring strings and
// escapes.
func balancedAt(s string, start int) (string, error) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return "", fmt.Errorf("unbalanced %q at offset %d", ch, i)
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON value in model output")
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a bare language tag line such as ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// decodeModelJSON cleans raw model output, decodes it into out and validates
// the result. Any failure is an UpstreamFormat error for task.
func decodeModelJSON(v *Validator, raw string, task domain.Task, out any) error {
	body, err := ExtractJSON(raw)
	if err != nil {
		return domain.ErrUpstreamFormat(err, task)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return domain.ErrUpstreamFormat(fmt.Errorf("decode: %w", err), task)
	}
	fields, err := v.Struct(out)
	if err != nil {
		return domain.ErrUpstreamFormat(err, task)
	}
	if len(fields) > 0 {
		return domain.ErrUpstreamFormat(errors.New("schema mismatch"), task).WithDetails(fields)
	}
	return nil
}
