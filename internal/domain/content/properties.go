package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/ekn/internal/domain"
)

var (
	errNotString  = errors.New("not a string")
	errNotList    = errors.New("not a list of strings")
	errNotInteger = errors.New("not an integer")
	errNotBool    = errors.New("not a boolean")
	errNegative   = errors.New("negative value")
	errBadDate    = errors.New("not an RFC 3339 or YYYY-MM-DD date")
)

// Properties is the decoded JSON-LD style property bag of a content object.
type Properties map[string]any

// Decode parses a JSON object into Properties. Numbers are kept exact.
func Decode(data []byte) (Properties, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p Properties
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode content properties: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("decode content properties: %w: not an object", domain.ErrInvalidProperty)
	}
	return p, nil
}

// Has reports whether the property is present and not null.
func (p Properties) Has(name string) bool {
	v, ok := p[name]
	return ok && v != nil
}

// String returns a string property; absent means "".
func (p Properties) String(name string) (string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.InvalidProperty(name, errNotString)
	}
	return s, nil
}

// Strings returns a list-of-strings property as a fresh slice.
func (p Properties) Strings(name string) ([]string, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, domain.InvalidProperty(name, errNotList)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, domain.InvalidProperty(name, errNotList)
		}
		out = append(out, s)
	}
	return out, nil
}

// Count returns a non-negative integer property; absent means 0.
func (p Properties) Count(name string) (int, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, domain.InvalidProperty(name, err)
	}
	if n < 0 {
		return 0, domain.InvalidProperty(name, errNegative)
	}
	return n, nil
}

// Bool returns a boolean property; absent means false.
func (p Properties) Bool(name string) (bool, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, domain.InvalidProperty(name, errNotBool)
	}
	return b, nil
}

// Date returns a date property; absent means the zero time.
func (p Properties) Date(name string) (time.Time, error) {
	s, err := p.String(name)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, domain.InvalidProperty(name, err)
	}
	return t, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errNotInteger
		}
		return int(i), nil
	case float64:
		if n != float64(int(n)) {
			return 0, errNotInteger
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, errNotInteger
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, errBadDate
}
