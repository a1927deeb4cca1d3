package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNoJSON is returned when a reply contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in reply")

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractJSON returns the span from the first '{' to the last '}' of a
// reply, which tolerates prose or code fences around the object.
func ExtractJSON(reply string) (string, bool) {
	m := jsonObject.FindString(reply)
	return m, m != ""
}

// DecodeJSON extracts the JSON object of a reply into v.
func DecodeJSON(reply string, v any) error {
	raw, ok := ExtractJSON(reply)
	if !ok {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to parse reply: %w", err)
	}
	return nil
}
