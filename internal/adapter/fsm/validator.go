package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/harmonia-labs/lessonbook/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// eventsByKind converts each kind's domain transition table into
// looplab/fsm EventDesc format. Edges with the same transition+destination
// are consolidated into a single EventDesc with multiple source states
// (e.g., a rate's "activate" from both "created" and "deactivated").
var eventsByKind = buildEvents()

func buildEvents() map[domain.Kind][]loopfsm.EventDesc {
	out := make(map[domain.Kind][]loopfsm.EventDesc, len(domain.Transitions))

	for kind, edges := range domain.Transitions {
		type key struct {
			transition string
			dst        string
		}
		grouped := make(map[key][]string)
		order := make([]key, 0)

		for _, e := range edges {
			k := key{transition: string(e.Transition), dst: string(e.Dst)}
			if _, exists := grouped[k]; !exists {
				order = append(order, k)
			}
			grouped[k] = append(grouped[k], string(e.Src))
		}

		descs := make([]loopfsm.EventDesc, 0, len(order))
		for _, k := range order {
			descs = append(descs, loopfsm.EventDesc{
				Name: k.transition,
				Src:  grouped[k],
				Dst:  k.dst,
			})
		}
		out[kind] = descs
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current status. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks if the given transition is valid for the kind from the
// current status and returns the destination status. Returns a
// domain.InvalidTransitionError if the transition is not allowed.
func (v *Validator) Apply(ctx context.Context, kind domain.Kind, current domain.Status, transition domain.Transition) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), eventsByKind[kind], nil)

	if err := machine.Event(ctx, string(transition)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &domain.InvalidTransitionError{
				Kind:       kind,
				Current:    current,
				Transition: transition,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}
