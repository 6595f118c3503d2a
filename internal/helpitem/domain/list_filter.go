package domain

import (
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/helperhq/helper/internal/errors"
)

// DefaultListLimit caps help item listings when the caller does not ask for a
// page size.
const DefaultListLimit = 10

// ListFilter narrows help item listings. After keeps items whose end date is
// still ahead of it; items without an end date always match.
type ListFilter struct {
	Done  bool
	After *time.Time
	Limit int
}

// ParseListFilter builds a ListFilter from raw query values. done matches
// only the literal "true"; everything else, including absence, means open
// items. after accepts the literal "now" or an RFC 3339 timestamp.
func ParseListFilter(done, after, limit string, now time.Time) (ListFilter, error) {
	filter := ListFilter{
		Done:  done == "true",
		Limit: DefaultListLimit,
	}

	switch after {
	case "":
	case "now":
		cutoff := now.UTC()
		filter.After = &cutoff
	default:
		cutoff, err := time.Parse(time.RFC3339, after)
		if err != nil {
			return ListFilter{}, apperrors.Validation(
				fmt.Sprintf("after must be %q or an RFC 3339 timestamp, got %q", "now", after),
			)
		}
		filter.After = &cutoff
	}

	if limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 1 {
			return ListFilter{}, apperrors.Validation(
				fmt.Sprintf("limit must be a positive integer, got %q", limit),
			)
		}
		filter.Limit = parsed
	}

	return filter, nil
}
