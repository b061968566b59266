package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-api/internal/apperror"
)

// Status is the outcome state of a game. Once it leaves InProgress it never changes again.
type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusXWins      Status = "XWins"
	StatusOWins      Status = "OWins"
	StatusDraw       Status = "Draw"
)

const (
	MinBoardSize = 3

	// every third move rolls for a swapped mark
	specialMoveInterval = 3
	opponentMoveChance  = 10
)

// EmptyVersion is the version of a game that has not seen a move yet.
var EmptyVersion = uuid.Nil.String()

var directions = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

var timeNow = time.Now

// RandomSource returns an integer in [0, 100).
type RandomSource func() int

// GameState is the flat, persistable form of a game. The board is not part of it;
// it is always rebuilt from Moves.
type GameState struct {
	ID           string
	BoardSize    int
	WinCondition int
	Status       Status
	CurrentTurn  Mark
	Version      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Moves        []Move
}

type Game struct {
	id           string
	boardSize    int
	winCondition int
	status       Status
	currentTurn  Mark
	version      string
	createdAt    time.Time
	updatedAt    time.Time

	moves []Move
	board [][]Mark
}

// CreateNew starts a game with X to move and no version yet.
func CreateNew(boardSize, winCondition int) (*Game, error) {
	if boardSize < MinBoardSize {
		return nil, fmt.Errorf("%w: board size must be at least %d, got %d",
			apperror.ErrInvalidConfiguration, MinBoardSize, boardSize)
	}

	if winCondition < 1 || winCondition > boardSize {
		return nil, fmt.Errorf("%w: win condition must be between 1 and %d, got %d",
			apperror.ErrInvalidConfiguration, boardSize, winCondition)
	}

	now := timeNow().UTC()

	return &Game{
		id:           uuid.NewString(),
		boardSize:    boardSize,
		winCondition: winCondition,
		status:       StatusInProgress,
		currentTurn:  PlayerX,
		version:      EmptyVersion,
		createdAt:    now,
		updatedAt:    now,
		board:        newBoard(boardSize),
	}, nil
}

// Rehydrate rebuilds a game from a stored state. Historical moves are trusted as is;
// the board is replayed from them in move number order.
func Rehydrate(state GameState) *Game {
	moves := slices.Clone(state.Moves)
	slices.SortStableFunc(moves, func(a, b Move) int {
		return a.MoveNumber - b.MoveNumber
	})

	game := &Game{
		id:           state.ID,
		boardSize:    state.BoardSize,
		winCondition: state.WinCondition,
		status:       state.Status,
		currentTurn:  state.CurrentTurn,
		version:      state.Version,
		createdAt:    state.CreatedAt,
		updatedAt:    state.UpdatedAt,
		moves:        moves,
		board:        newBoard(state.BoardSize),
	}

	for _, move := range moves {
		if game.inBounds(move.Row, move.Column) {
			game.board[move.Row][move.Column] = move.Player
		}
	}

	return game
}

// ApplyMove places a mark for player at (row, column). A failed call leaves the game untouched.
func (that *Game) ApplyMove(player Mark, row, column int, random RandomSource) error {
	if that.status != StatusInProgress {
		return fmt.Errorf("%w: status %s", apperror.ErrGameAlreadyOver, that.status)
	}

	if player != that.currentTurn {
		return fmt.Errorf("%w: player %s, current turn %s", apperror.ErrWrongTurn, player, that.currentTurn)
	}

	if !that.inBounds(row, column) {
		return fmt.Errorf("%w: (%d, %d) on a %dx%d board",
			apperror.ErrOutOfBounds, row, column, that.boardSize, that.boardSize)
	}

	if that.board[row][column] != MarkNone {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, row, column)
	}

	moveNumber := len(that.moves) + 1

	placed := player
	if moveNumber%specialMoveInterval == 0 && random != nil && random() < opponentMoveChance {
		placed = player.Opponent()
	}

	now := timeNow().UTC()
	move := Move{
		GameID:     that.id,
		Player:     placed,
		Row:        row,
		Column:     column,
		MoveNumber: moveNumber,
		CreatedAt:  now,
	}

	that.moves = append(that.moves, move)
	that.board[row][column] = placed

	that.updateStatus(move)

	// the turn follows the requester, not the mark that landed
	if that.status == StatusInProgress {
		that.currentTurn = player.Opponent()
	}

	that.version = uuid.NewString()
	that.updatedAt = now

	return nil
}

func (that *Game) updateStatus(last Move) {
	switch {
	case that.isWinningMove(last):
		if last.Player == PlayerX {
			that.status = StatusXWins
		} else {
			that.status = StatusOWins
		}
	case len(that.moves) == that.boardSize*that.boardSize:
		that.status = StatusDraw
	}
}

func (that *Game) isWinningMove(last Move) bool {
	for _, dir := range directions {
		run := 1 + that.countRun(last, dir[0], dir[1]) + that.countRun(last, -dir[0], -dir[1])
		if run >= that.winCondition {
			return true
		}
	}

	return false
}

// countRun counts consecutive marks of last.Player from last, not including it, stepping by (dRow, dCol).
func (that *Game) countRun(last Move, dRow, dCol int) int {
	count := 0

	for step := 1; step < that.winCondition; step++ {
		row, column := last.Row+step*dRow, last.Column+step*dCol
		if !that.inBounds(row, column) || that.board[row][column] != last.Player {
			break
		}
		count++
	}

	return count
}

func (that *Game) inBounds(row, column int) bool {
	return row >= 0 && row < that.boardSize && column >= 0 && column < that.boardSize
}

func (that *Game) ID() string { return that.id }
func (that *Game) BoardSize() int { return that.boardSize }
func (that *Game) WinCondition() int { return that.winCondition }
func (that *Game) Status() Status { return that.status }
func (that *Game) CurrentTurn() Mark { return that.currentTurn }
func (that *Game) Version() string { return that.version }
func (that *Game) CreatedAt() time.Time { return that.createdAt }
func (that *Game) UpdatedAt() time.Time { return that.updatedAt }

func (that *Game) IsFinished() bool {
	return that.status != StatusInProgress
}

// Moves returns a copy of the move history.
func (that *Game) Moves() []Move {
	return slices.Clone(that.moves)
}

// LastMove returns the most recent move, if any.
func (that *Game) LastMove() (Move, bool) {
	if len(that.moves) == 0 {
		return Move{}, false
	}

	return that.moves[len(that.moves)-1], true
}

// Board returns a copy of the board, rows first.
func (that *Game) Board() [][]Mark {
	board := make([][]Mark, len(that.board))
	for i, row := range that.board {
		board[i] = slices.Clone(row)
	}

	return board
}

// State returns the persistable form of the game.
func (that *Game) State() GameState {
	return GameState{
		ID:           that.id,
		BoardSize:    that.boardSize,
		WinCondition: that.winCondition,
		Status:       that.status,
		CurrentTurn:  that.currentTurn,
		Version:      that.version,
		CreatedAt:    that.createdAt,
		UpdatedAt:    that.updatedAt,
		Moves:        that.Moves(),
	}
}

func newBoard(size int) [][]Mark {
	if size < 0 {
		size = 0
	}

	board := make([][]Mark, size)
	for i := range board {
		board[i] = make([]Mark, size)
	}

	return board
}
