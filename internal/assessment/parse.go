package assessment

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports a completion that could not be turned into a Result,
// with the original raw text attached for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// requiredKeys lists the fields a completion must carry for each variant.
// A syntactically valid object missing one of these is still a ParseError.
var requiredKeys = map[Kind][]string{
	KindQuiescent: {"is_quiescent", "justification", "responsible_party", "suggested_action", "suggested_deadline", "planned_comment"},
	KindQuality:   {"needs_improvement", "quality_score", "quality_assessment", "responsible_party", "suggested_deadline", "planned_comment"},
}

// objectPattern grabs the outermost JSON object in a completion, dropping
// any prose the model wrapped around it.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Parse turns a raw model completion into the Result variant for kind.
// It tries a strict JSON parse first, then one round of sanitization
// (code-fence and prose stripping, literal newlines inside string values
// escaped, control characters removed) before giving up. Parse never
// panics; malformed input yields a *ParseError.
func Parse(kind Kind, raw string) (Result, error) {
	candidate := extractObject(stripFences(strings.TrimSpace(raw)))

	res, err := decode(kind, candidate)
	if err == nil {
		return res, nil
	}

	res, err = decode(kind, sanitize(candidate))
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return res, nil
}

func decode(kind Kind, data string) (Result, error) {
	if data == "" {
		return nil, fmt.Errorf("empty response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	for _, key := range requiredKeys[kind] {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("missing required field %q", key)
		}
	}

	var res Result
	switch kind {
	case KindQuiescent:
		res = &QuiescentResult{}
	case KindQuality:
		res = &QualityResult{}
	default:
		return nil, fmt.Errorf("unknown assessment kind %q", kind)
	}
	if err := json.Unmarshal([]byte(data), res); err != nil {
		return nil, err
	}
	return res, nil
}

// stripFences unwraps a markdown code block if the model added one. An
// unclosed fence is left alone and will fail the strict parse instead.
func stripFences(s string) string {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(s, marker)
		if start == -1 {
			continue
		}
		start += len(marker)
		end := strings.Index(s[start:], "```")
		if end == -1 {
			return s
		}
		return strings.TrimSpace(s[start : start+end])
	}
	return s
}

// extractObject trims non-structural text around the outermost JSON object.
func extractObject(s string) string {
	if m := objectPattern.FindString(s); m != "" {
		return m
	}
	return s
}

// sanitize repairs the defects models most often introduce inside JSON
// string values: literal line breaks become \n escapes, tabs become \t,
// and remaining control characters are dropped. Text outside string values
// is preserved untouched apart from control characters.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			continue
		}
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inString = false
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			// drop control characters, including \r
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
