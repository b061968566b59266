package apperror

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrNotFound             = errors.New("game not found")
	ErrWrongTurn            = errors.New("it's not your turn")
	ErrOutOfBounds          = errors.New("move is outside the board")
	ErrCellOccupied         = errors.New("cell is already occupied")
	ErrGameAlreadyOver      = errors.New("game is already over")
	ErrInvalidPlayer        = errors.New("player must be X or O")
	ErrVersionRequired      = errors.New("expected version is required")
	ErrInvalidVersion       = errors.New("expected version must be a UUID")
	ErrVersionConflict      = errors.New("the game state has changed, refresh and try again")
	ErrGameAlreadyExists    = errors.New("game already exists")
)

// Kind groups errors by how a caller is expected to react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindClient
	KindNotFound
	KindConflict
)

var clientErrors = []error{
	ErrInvalidConfiguration,
	ErrWrongTurn,
	ErrOutOfBounds,
	ErrCellOccupied,
	ErrGameAlreadyOver,
	ErrInvalidPlayer,
	ErrVersionRequired,
	ErrInvalidVersion,
}

// KindOf classifies err. Anything it does not recognise is treated as an
// infrastructure failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrVersionConflict), errors.Is(err, ErrGameAlreadyExists):
		return KindConflict
	}

	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return KindClient
		}
	}

	return KindInternal
}
