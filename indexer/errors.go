package indexer

import "errors"

var (
	// ErrInvalidConfig is returned by NewTree for unusable dimension/capacity settings.
	ErrInvalidConfig = errors.New("invalid index config")
	// ErrUnknownStrategy is returned by StrategyByName.
	ErrUnknownStrategy = errors.New("unknown split strategy")
	// ErrInvariantViolation marks structural corruption. The index panics with an error
	// wrapping it; Validate returns errors wrapping it.
	ErrInvariantViolation = errors.New("rtree invariant violation")
)
