package share

import (
	"strings"
	"unicode"
)

// maxIDLength bounds share identifiers accepted from the URL.
const maxIDLength = 512

// ID is the opaque identifier of a share link.
type ID string

func (id ID) String() string { return string(id) }

// ParseID trims raw and rejects identifiers that cannot be a share id.
// The id is otherwise opaque; its format belongs to the remote API.
func ParseID(raw string) (ID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrMissingID
	}
	if len(s) > maxIDLength {
		return "", ErrInvalidID
	}
	for _, r := range s {
		if unicode.IsControl(r) || r == '/' {
			return "", ErrInvalidID
		}
	}
	return ID(s), nil
}
