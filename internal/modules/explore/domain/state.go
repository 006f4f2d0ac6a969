package domain

import (
	"fmt"
	"time"

	apperrors "flavorlab/internal/platform/errors"
)

type State int

const (
	Hidden State = iota
	Active
	Fading
	JustRevealed
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Active:
		return "active"
	case Fading:
		return "fading"
	case JustRevealed:
		return "just-revealed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type TickKind int

const (
	GraceExpired TickKind = iota
	FadeStep
)

// Tick is a timer expiry addressed to one node. Epoch must match the node's
// current epoch or the tick is stale and ignored.
type Tick struct {
	NodeID string
	Epoch  uint64
	Kind   TickKind
	Step   int
}

type Config struct {
	K               int
	GraceDelay      time.Duration
	FadeDuration    time.Duration
	FadeSteps       int
	MaxTrailDisplay int
}

func DefaultConfig() Config {
	return Config{
		K:               3,
		GraceDelay:      2000 * time.Millisecond,
		FadeDuration:    3000 * time.Millisecond,
		FadeSteps:       10,
		MaxTrailDisplay: 12,
	}
}

func (c Config) Validate() error {
	switch {
	case c.K < 1:
		return fmt.Errorf("%w: k must be at least 1", apperrors.ErrInvalidInput)
	case c.GraceDelay < 0:
		return fmt.Errorf("%w: grace delay must not be negative", apperrors.ErrInvalidInput)
	case c.FadeDuration <= 0:
		return fmt.Errorf("%w: fade duration must be positive", apperrors.ErrInvalidInput)
	case c.FadeSteps < 1:
		return fmt.Errorf("%w: fade steps must be at least 1", apperrors.ErrInvalidInput)
	case c.MaxTrailDisplay < 1:
		return fmt.Errorf("%w: trail display must be at least 1", apperrors.ErrInvalidInput)
	}
	return nil
}

// fadeOffset is the time from fade start to the given step. The last step
// lands exactly on FadeDuration regardless of rounding.
func (c Config) fadeOffset(step int) time.Duration {
	return c.FadeDuration * time.Duration(step) / time.Duration(c.FadeSteps)
}
