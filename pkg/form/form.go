package form

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// Field is a single key/value pair of a form payload
type Field struct {
	Key   string
	Value string
}

// Payload is an ordered application/x-www-form-urlencoded body.
// Fields keep their insertion order and duplicate keys are allowed.
type Payload struct {
	fields []Field
}

// New creates an empty payload
func New() *Payload {
	return &Payload{}
}

// Add appends a field. The value is stringified: strings are kept as-is,
// numbers use their shortest representation and fmt.Stringer values
// (for example decimal.Decimal) use String(). A nil value becomes "".
func (p *Payload) Add(key string, value interface{}) *Payload {
	p.fields = append(p.fields, Field{Key: key, Value: stringify(value)})
	return p
}

// Get returns the first value stored under key
func (p *Payload) Get(key string) (string, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the fields in insertion order
func (p *Payload) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Len returns the number of fields
func (p *Payload) Len() int {
	return len(p.fields)
}

// Encode renders the payload as key1=value1&key2=value2. Empty values are
// kept as "key=" since the provider expects explicit empty filters.
func (p *Payload) Encode() string {
	var sb strings.Builder
	for i, f := range p.fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.Value))
	}
	return sb.String()
}

// String implements fmt.Stringer
func (p *Payload) String() string {
	return p.Encode()
}

// Decode parses an encoded body back into an ordered payload
func Decode(body string) (*Payload, error) {
	p := New()
	if body == "" {
		return p, nil
	}

	for _, part := range strings.Split(body, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value for %q: %w", key, err)
		}
		p.fields = append(p.fields, Field{Key: key, Value: value})
	}

	return p, nil
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return cast.ToString(value)
}
