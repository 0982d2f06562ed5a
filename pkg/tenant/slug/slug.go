package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gymstack/gymstack/pkg/common"
)

const maxNumericProbes = 999

// Slugify normalizes a display name into a subdomain-safe identifier:
// lowercase ASCII, non-alphanumeric runs collapsed to a single hyphen,
// leading and trailing hyphens trimmed. Deterministic and pure.
func Slugify(text string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// TakenFunc reports whether a slug is already claimed in the registry.
type TakenFunc func(ctx context.Context, slug string) (bool, error)

// Allocator suggests registry-unique slugs. It only probes: no reservation
// is made, so the caller must still handle an insert-time unique violation.
type Allocator struct {
	taken   TakenFunc
	randHex func() string
}

func NewAllocator(taken TakenFunc) *Allocator {
	return &Allocator{
		taken: taken,
		randHex: func() string {
			return strings.ReplaceAll(uuid.New().String(), "-", "")[:4]
		},
	}
}

// SuggestUnique slugifies the base name and returns it when free; otherwise
// it probes base-1..base-999 and falls back to a random 4-hex-digit suffix.
func (a *Allocator) SuggestUnique(ctx context.Context, base string) (string, error) {
	candidate := Slugify(base)
	if candidate == "" {
		return "", common.ErrInvalidSubdomain
	}

	free, err := a.free(ctx, candidate)
	if err != nil {
		return "", err
	}
	if free {
		return candidate, nil
	}

	for i := 1; i <= maxNumericProbes; i++ {
		probe := fmt.Sprintf("%s-%d", candidate, i)
		free, err := a.free(ctx, probe)
		if err != nil {
			return "", err
		}
		if free {
			return probe, nil
		}
	}

	return fmt.Sprintf("%s-%s", candidate, a.randHex()), nil
}

func (a *Allocator) free(ctx context.Context, slug string) (bool, error) {
	taken, err := a.taken(ctx, slug)
	if err != nil {
		return false, err
	}
	return !taken, nil
}
