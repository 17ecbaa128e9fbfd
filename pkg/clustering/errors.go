package clustering

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected is the kind of every StructuralError
	ErrDisconnected = errors.New("graph is disconnected; increase inter-cluster edge probability")

	// ErrUnresolvedResidual is the kind of every ConvergenceError
	ErrUnresolvedResidual = errors.New("cannot resolve residual cluster: isolated unseeded component")
)

// StructuralError reports that the distance table could not be densely assembled
// because some vertex pairs are unreachable. The caller may regenerate the graph or
// proceed with the infinite distances.
type StructuralError struct {
	Components       int
	UnreachablePairs int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s (%d components, %d unreachable pairs)", ErrDisconnected, e.Components, e.UnreachablePairs)
}

func (e *StructuralError) Unwrap() error { return ErrDisconnected }

// ConvergenceError reports a residual propagation round that assigned nothing
type ConvergenceError struct {
	Round    int
	Pending  []int
	Assigned int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s (round %d, pending vertices %v)", ErrUnresolvedResidual, e.Round, e.Pending)
}

func (e *ConvergenceError) Unwrap() error { return ErrUnresolvedResidual }
