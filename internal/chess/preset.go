package chess

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// DifficultyPreset tunes a selection policy. ReplyCap bounds how many of the
// opponent's replies the hard policy looks at, in board-scan order.
type DifficultyPreset struct {
	Name         Difficulty
	ReplyCap     int
	CaptureBonus float64
	ThinkDelay   time.Duration
}

const (
	defaultReplyCap     = 10
	defaultCaptureBonus = 0.1
)

var presetMu sync.RWMutex

var presets = map[Difficulty]DifficultyPreset{
	Easy: {
		Name:       Easy,
		ThinkDelay: 300 * time.Millisecond,
	},
	Medium: {
		Name:       Medium,
		ThinkDelay: 500 * time.Millisecond,
	},
	Hard: {
		Name:         Hard,
		ReplyCap:     defaultReplyCap,
		CaptureBonus: defaultCaptureBonus,
		ThinkDelay:   800 * time.Millisecond,
	},
}

func GetPreset(d Difficulty) (DifficultyPreset, error) {
	presetMu.RLock()
	defer presetMu.RUnlock()
	p, ok := presets[d]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown preset: %s", d)
	}
	return p, nil
}

// SetPreset replaces a preset after validating it. Engines read presets on
// every move, so the change applies to games already in progress.
func SetPreset(p DifficultyPreset) error {
	if err := ValidatePreset(p); err != nil {
		return err
	}
	presetMu.Lock()
	presets[p.Name] = p
	presetMu.Unlock()
	return nil
}

func ValidatePreset(p DifficultyPreset) error {
	if _, err := ParseDifficulty(string(p.Name)); err != nil {
		return err
	}
	if p.Name == Hard && p.ReplyCap <= 0 {
		return fmt.Errorf("preset %s requires a positive reply cap", p.Name)
	}
	if p.CaptureBonus < 0 {
		return fmt.Errorf("preset %s has negative capture bonus", p.Name)
	}
	if p.ThinkDelay < 0 {
		return fmt.Errorf("preset %s has negative think delay", p.Name)
	}
	return nil
}
