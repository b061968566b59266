package rest

import (
	"time"

	"github.com/rocketscienceinc/tictactoe-api/internal/entity"
)

type snapshot struct {
	ID           string         `json:"id"`
	BoardSize    int            `json:"boardSize"`
	WinCondition int            `json:"winCondition"`
	Status       string         `json:"status"`
	CurrentTurn  string         `json:"currentTurn"`
	Version      string         `json:"version"`
	Board        [][]*string    `json:"board"`
	Moves        []moveSnapshot `json:"moves"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type moveSnapshot struct {
	Player     string    `json:"player"`
	Row        int       `json:"row"`
	Column     int       `json:"column"`
	MoveNumber int       `json:"moveNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newSnapshot(game *entity.Game) snapshot {
	board := game.Board()
	cells := make([][]*string, len(board))
	for i, row := range board {
		cells[i] = make([]*string, len(row))
		for j, mark := range row {
			if mark != entity.MarkNone {
				value := mark.String()
				cells[i][j] = &value
			}
		}
	}

	history := game.Moves()
	moves := make([]moveSnapshot, 0, len(history))
	for _, move := range history {
		moves = append(moves, moveSnapshot{
			Player:     move.Player.String(),
			Row:        move.Row,
			Column:     move.Column,
			MoveNumber: move.MoveNumber,
			CreatedAt:  move.CreatedAt,
		})
	}

	return snapshot{
		ID:           game.ID(),
		BoardSize:    game.BoardSize(),
		WinCondition: game.WinCondition(),
		Status:       string(game.Status()),
		CurrentTurn:  game.CurrentTurn().String(),
		Version:      game.Version(),
		Board:        cells,
		Moves:        moves,
		CreatedAt:    game.CreatedAt(),
		UpdatedAt:    game.UpdatedAt(),
	}
}
