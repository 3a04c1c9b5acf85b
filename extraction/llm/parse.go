package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrNoAnswer is returned when a response holds no decodable JSON object.
var ErrNoAnswer = errors.New("no JSON answer in response")

var (
	blankLines     = regexp.MustCompile(`\n\s*\n+`)
	trailingCommas = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseAnswer extracts the JSON object a model returned inside <json> tags.
// Repairs are applied one at a time until the text decodes.
func ParseAnswer(text string) (map[string]any, error) {
	body := jsonBody(text)
	if body == "" {
		return nil, ErrNoAnswer
	}

	candidate := body
	for _, repair := range repairs {
		candidate = repair(candidate)
		if answer, ok := decodeObject(candidate); ok {
			return answer, nil
		}
	}
	return nil, ErrNoAnswer
}

// repairs run in order; each receives the output of the previous one.
var repairs = []func(string) string{
	func(s string) string { return s },
	wrapBraces,
	quoteKeys,
	dropTrailingCommas,
	undoubleBraces,
	joinParagraphs,
}

// jsonBody returns the text between <json> and </json>, or the whole text
// when the tags are missing, with code fences removed.
func jsonBody(text string) string {
	if i := strings.Index(text, "<json>"); i >= 0 {
		text = text[i+len("<json>"):]
		if j := strings.Index(text, "</json>"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "</thinking>"); i >= 0 {
		text = text[i+len("</thinking>"):]
	}
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

func decodeObject(s string) (map[string]any, bool) {
	var answer map[string]any
	if err := json.Unmarshal([]byte(s), &answer); err != nil || answer == nil {
		return nil, false
	}
	return answer, true
}

func wrapBraces(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if !strings.HasSuffix(s, "}") {
		s += "}"
	}
	return s
}

func dropTrailingCommas(s string) string {
	return trailingCommas.ReplaceAllString(s, "$1")
}

// joinParagraphs handles answers split into several blank-line separated
// fragments of one object.
func joinParagraphs(s string) string {
	s = blankLines.ReplaceAllString(strings.TrimSpace(s), ",")
	return wrapBraces(dropTrailingCommas(s))
}

// undoubleBraces collapses the {{ }} escaping some models copy from
// templated prompts.
func undoubleBraces(s string) string {
	s = strings.ReplaceAll(s, "{{", "{")
	return strings.ReplaceAll(s, "}}", "}")
}

// quoteKeys adds missing quotes around object keys, covering both bare keys
// (key: 1) and keys missing only the opening quote (key": 1).
func quoteKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+32)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if inString {
			out = append(out, ch)
			if ch == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out = append(out, ch)
			continue
		}
		out = append(out, ch)
		if ch != '{' && ch != ',' {
			continue
		}

		j := i + 1
		for j < len(in) && unicode.IsSpace(in[j]) {
			j++
		}
		k := j
		for k < len(in) && isKeyRune(in[k]) {
			k++
		}
		if k == j || !unicode.IsLetter(in[j]) && in[j] != '_' {
			continue
		}

		switch {
		case k < len(in) && in[k] == ':':
			out = append(out, in[i+1:j]...)
			out = append(out, '"')
			out = append(out, in[j:k]...)
			out = append(out, '"')
			i = k - 1
		case k+1 < len(in) && in[k] == '"' && in[k+1] == ':':
			out = append(out, in[i+1:j]...)
			out = append(out, '"')
			out = append(out, in[j:k+1]...)
			i = k
		}
	}
	return string(out)
}

func isKeyRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}
