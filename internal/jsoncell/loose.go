package jsoncell

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// looseString accepts a JSON string, number, boolean or null. Sheets
// written by hand often store grades and ids as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("expected scalar, got %s", b)
	default:
		*s = looseString(b)
	}
	return nil
}

// looseInt accepts a JSON number or a numeric string.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v := strings.TrimSpace(string(s))
	if v == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("count %q: %w", v, err)
	}
	*n = looseInt(f)
	return nil
}
