package dynamo

import "errors"

// Domain errors for engine operations.
var (
	// ErrInvalidRadius indicates a non-finite, non-positive or oversized radius.
	ErrInvalidRadius = errors.New("dynamo: invalid particle radius")

	// ErrInvalidPosition indicates a spawn position with NaN or Inf components.
	ErrInvalidPosition = errors.New("dynamo: invalid particle position")

	// ErrInvalidHandle indicates a handle that does not address an existing particle.
	ErrInvalidHandle = errors.New("dynamo: unknown particle handle")

	// ErrInvalidLink indicates a self-link or a non-positive rest length.
	ErrInvalidLink = errors.New("dynamo: invalid link")

	// ErrInvalidTimestep indicates a negative or non-finite update delta.
	ErrInvalidTimestep = errors.New("dynamo: invalid timestep")

	// ErrInvalidConfig indicates world parameters outside their valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid world configuration")

	// ErrInvalidEvent indicates a scripted spawn with an unknown kind or bad parameters.
	ErrInvalidEvent = errors.New("dynamo: invalid scene event")

	// ErrInvalidState indicates particle state went non-finite.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)
