package fsm

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/queuedesk/internal/domain"
)

var _ domain.TransitionValidator = (*Validator)(nil)

// Validator checks ticket events against the lifecycle graph with looplab/fsm.
type Validator struct {
	lifecycle []loopfsm.EventDesc
}

func New() *Validator {
	return &Validator{lifecycle: lifecycle()}
}

// lifecycle turns domain.Transitions into one EventDesc per ticket event.
// A ticket event always lands on the same status; only where it may fire
// from varies, so cancel becomes a single edge out of waiting, called and
// serving.
func lifecycle() []loopfsm.EventDesc {
	var descs []loopfsm.EventDesc
	seen := make(map[domain.Event]bool)

	for _, t := range domain.Transitions {
		if seen[t.Event] {
			continue
		}
		seen[t.Event] = true

		sources := domain.SourcesOf(t.Event)
		src := make([]string, len(sources))
		for i, s := range sources {
			src[i] = string(s)
		}
		descs = append(descs, loopfsm.EventDesc{Name: string(t.Event), Src: src, Dst: string(t.Dst)})
	}
	return descs
}

// Apply replays event on a machine parked at the ticket's stored status and
// reports where the ticket lands. The machine is thrown away afterwards: the
// ticket store, not looplab/fsm, owns the current status.
func (v *Validator) Apply(ctx context.Context, current domain.Status, event domain.Event) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), v.lifecycle, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		if rejected(err) {
			return "", &domain.TransitionError{Event: event, Current: current}
		}
		return "", fmt.Errorf("ticket %s from %s: %w", event, current, err)
	}
	return domain.Status(machine.Current()), nil
}

// rejected reports whether err means the lifecycle has no such edge.
func rejected(err error) bool {
	var invalid loopfsm.InvalidEventError
	var unknown loopfsm.UnknownEventError
	var none loopfsm.NoTransitionError
	return errors.As(err, &invalid) || errors.As(err, &unknown) || errors.As(err, &none)
}
