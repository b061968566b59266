package entity

import "time"

// Move is one mark placed on the board. Player is the mark that actually
// landed, which can differ from the player who asked for the move.
type Move struct {
	GameID     string    `json:"gameId"`
	Player     Mark      `json:"player"`
	Row        int       `json:"row"`
	Column     int       `json:"column"`
	MoveNumber int       `json:"moveNumber"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SameCell reports whether the move landed on (row, column).
func (that Move) SameCell(row, column int) bool {
	return that.Row == row && that.Column == column
}
