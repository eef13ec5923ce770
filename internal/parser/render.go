package parser

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Property is one frontmatter key/value pair. Render keeps the given order.
type Property struct {
	Key   string
	Value any
}

// Render writes frontmatter followed by body. Properties with nil values are
// skipped, time.Time values are written as RFC 3339 with nanoseconds. With
// no properties the body is returned unchanged.
func Render(props []Property, body string) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range props {
		if p.Value == nil {
			continue
		}
		v := p.Value
		if t, ok := v.(time.Time); ok {
			v = t.Format(time.RFC3339Nano)
		}
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, fmt.Errorf("parser: encode %s: %w", p.Key, err)
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
			&val,
		)
	}
	if len(mapping.Content) == 0 {
		return []byte(body), nil
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
