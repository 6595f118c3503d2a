package domain

import (
	"fmt"
	"strings"
)

// actionSeparator delimits the segments of an action descriptor.
const actionSeparator = "::"

// Action is a parsed action descriptor of the form DOMAIN::ACTION or
// DOMAIN::OBJECT_ID::ACTION. ObjectID is empty for the two-segment form.
type Action struct {
	Domain   string
	ObjectID string
	Name     string
}

// String renders the descriptor back to its wire form.
func (a Action) String() string {
	if a.ObjectID == "" {
		return a.Domain + actionSeparator + a.Name
	}
	return a.Domain + actionSeparator + a.ObjectID + actionSeparator + a.Name
}

// ParseAction parses an action descriptor. Only two arities are legal:
// DOMAIN::ACTION and DOMAIN::OBJECT_ID::ACTION. A malformed descriptor is a
// programming error in the caller, not client input, so the error carries no
// client-facing status.
func ParseAction(descriptor string) (Action, error) {
	if descriptor == "" {
		return Action{}, fmt.Errorf("empty action descriptor")
	}

	parts := strings.Split(descriptor, actionSeparator)
	for _, part := range parts {
		if part == "" {
			return Action{}, fmt.Errorf("malformed action descriptor: %q", descriptor)
		}
	}

	switch len(parts) {
	case 2:
		return Action{Domain: parts[0], Name: parts[1]}, nil
	case 3:
		return Action{Domain: parts[0], ObjectID: parts[1], Name: parts[2]}, nil
	default:
		return Action{}, fmt.Errorf("malformed action descriptor: %q", descriptor)
	}
}
