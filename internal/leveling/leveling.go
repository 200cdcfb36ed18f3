// Package leveling computes XP and level transitions.
//
// XP is a mixed-radix counter: the digit for level n rolls over at
// ThresholdFor(n), which grows linearly with the level.
package leveling

import (
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

// Progress is a user's position on the leveling curve.
// Invariant: 0 <= XP < ThresholdFor(Level), Level >= 0.
type Progress struct {
	XP    int
	Level int
}

// FromUser extracts a user's progress.
func FromUser(u models.User) Progress {
	return Progress{XP: u.XP, Level: u.Level}
}

// Apply writes p onto u.
func (p Progress) Apply(u *models.User) {
	u.XP = p.XP
	u.Level = p.Level
}

// ThresholdFor returns the XP needed to advance from level to level+1.
func ThresholdFor(level int) int {
	return constants.BaseLevelThreshold + level*constants.LevelThresholdStep
}

// XPToNextLevel is the XP still missing before p levels up.
func XPToNextLevel(p Progress) int {
	return ThresholdFor(p.Level) - p.XP
}

// Award adds amount XP, carrying into as many levels as it covers.
func Award(p Progress, amount int) Progress {
	xp, level := p.XP+amount, p.Level
	for xp >= ThresholdFor(level) {
		xp -= ThresholdFor(level)
		level++
	}
	return Progress{XP: xp, Level: level}
}

// Revoke removes amount XP, borrowing from lower levels. Level 0 has nothing
// to borrow from, so the result floors at (0, 0).
func Revoke(p Progress, amount int) Progress {
	xp, level := p.XP-amount, p.Level
	for xp < 0 && level > 0 {
		level--
		xp += ThresholdFor(level)
	}
	if level <= 0 {
		level = 0
		if xp < 0 {
			xp = 0
		}
	}
	return Progress{XP: xp, Level: level}
}

// Adjust awards a positive delta and revokes a negative one.
func Adjust(p Progress, delta int) Progress {
	if delta >= 0 {
		return Award(p, delta)
	}
	return Revoke(p, -delta)
}
