package parser

import (
	"time"

	"github.com/starford/tempus/internal/timestamps"
)

// decodeMoments replaces the created and modified frontmatter values with
// time.Time so they read back exactly as Render wrote them. Keys whose value
// cannot be read as a moment keep their raw value and are returned in invalid.
func decodeMoments(fm map[string]interface{}) (created, modified *time.Time, invalid []string) {
	read := func(key string) *time.Time {
		raw, ok := fm[key]
		if !ok || raw == nil {
			return nil
		}
		t, err := timestamps.ParseMoment(raw)
		if err != nil {
			invalid = append(invalid, key)
			return nil
		}
		fm[key] = t
		return &t
	}
	created = read(timestamps.PredicateCreated)
	modified = read(timestamps.PredicateModified)
	return created, modified, invalid
}
