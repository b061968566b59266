package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
)

// Mark is what a player puts on a cell.
type Mark string

const (
	MarkNone Mark = ""
	PlayerX  Mark = "X"
	PlayerO  Mark = "O"
)

// ParseMark accepts "X" or "O", case-insensitively.
func ParseMark(value string) (Mark, error) {
	mark := Mark(strings.ToUpper(strings.TrimSpace(value)))
	if !mark.IsValid() {
		return MarkNone, fmt.Errorf("%w: %q", apperror.ErrInvalidPlayer, value)
	}

	return mark, nil
}

func (that Mark) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// Opponent returns the other player. MarkNone has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return MarkNone
	}
}

func (that Mark) String() string {
	return string(that)
}
