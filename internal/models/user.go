package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// UserTotals is the XP payload returned after a completion changes a user's progress.
type UserTotals struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

func (u User) Totals() UserTotals {
	return UserTotals{XP: u.XP, Level: u.Level}
}
