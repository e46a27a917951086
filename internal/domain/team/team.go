package team

import (
	"strconv"
	"time"
)

// Team is a group chat that runs reward cycles.
type Team struct {
	TeamID             string // Decimal chat id
	ChatID             int64
	Title              string
	ChampionTelegramID int64 // 0 until someone claims the champion role
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IDForChat returns the team id used for a chat.
func IDForChat(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// HasChampion reports whether a champion is configured.
func (t *Team) HasChampion() bool {
	return t.ChampionTelegramID != 0
}
