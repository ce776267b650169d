// Package surface is the document-level input surface copy and paste events
// are delivered on. Handlers are bound with a selector and run for every
// ancestor of the event target the selector matches, innermost first.
package surface

import (
	"errors"
	"fmt"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"gfmclip/pkg/clipboard"
	gferrors "gfmclip/pkg/errors"
	"gfmclip/pkg/logger"
	"gfmclip/pkg/nodes"
	"gfmclip/pkg/paste"
)

type EventType string

const (
	Copy  EventType = "copy"
	Paste EventType = "paste"
)

// Selection is the user's current selection. Fragment returns a fresh
// clone on every call, or nil when nothing is selected.
type Selection interface {
	Fragment() *html.Node
}

// Event is one copy or paste.
type Event struct {
	ID        string
	Type      EventType
	Target    *html.Node
	Selection Selection
	Clipboard clipboard.Carrier
	Editable  paste.Editable

	// CurrentTarget is the ancestor of Target whose binding is running.
	CurrentTarget *html.Node

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault suppresses the platform's own handling.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopPropagation stops handlers bound on outer ancestors.
func (e *Event) StopPropagation() { e.propagationStopped = true }

func (e *Event) DefaultPrevented() bool   { return e.defaultPrevented }
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// Handler handles an event. Returning a skip error from pkg/errors means the
// handler chose not to intercept.
type Handler func(e *Event) error

type binding struct {
	id       uint64
	typ      EventType
	selector string
	matcher  cascadia.Matcher
	handler  Handler
}

// Surface dispatches events to delegated handlers.
type Surface struct {
	mu       sync.RWMutex
	bindings []binding
	nextID   uint64
}

func New() *Surface {
	return &Surface{}
}

// On binds h to events of type typ whose target is, or is inside, an element
// matching selector. The returned function removes the binding.
func (s *Surface) On(typ EventType, selector string, h Handler) (func(), error) {
	m, err := nodes.Compile(selector)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.bindings = append(s.bindings, binding{id: id, typ: typ, selector: selector, matcher: m, handler: h})

	return func() { s.off(id) }, nil
}

func (s *Surface) off(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bindings {
		if b.id == id {
			s.bindings = append(s.bindings[:i:i], s.bindings[i+1:]...)
			return
		}
	}
}

// Len returns the number of bindings.
func (s *Surface) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bindings)
}

func (s *Surface) snapshot(typ EventType) []binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []binding
	for _, b := range s.bindings {
		if b.typ == typ {
			out = append(out, b)
		}
	}
	return out
}

// Dispatch delivers e synchronously. Skip errors are logged and dropped;
// other handler errors are returned joined.
func (s *Surface) Dispatch(e *Event) error {
	if e == nil {
		return errors.New("nil event")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	log := logger.With("event_id", e.ID)

	bindings := s.snapshot(e.Type)
	if len(bindings) == 0 || e.Target == nil {
		log.Debug().Str("type", string(e.Type)).Msg("no binding for event")
		return nil
	}

	var errs []error
	for n := e.Target; n != nil && !e.propagationStopped; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, b := range bindings {
			if !b.matcher.Match(n) {
				continue
			}
			e.CurrentTarget = n
			err := b.handler(e)
			switch {
			case err == nil:
				log.Debug().Str("type", string(e.Type)).Str("selector", b.selector).
					Bool("default_prevented", e.defaultPrevented).Msg("event handled")
			case gferrors.IsSkip(err):
				log.Debug().Str("type", string(e.Type)).Str("selector", b.selector).Str("reason", err.Error()).Msg("event not intercepted")
			default:
				log.Error().Err(err).Str("type", string(e.Type)).Str("selector", b.selector).Msg("event handler failed")
				errs = append(errs, fmt.Errorf("%s on %q: %w", e.Type, b.selector, err))
			}
		}
	}
	e.CurrentTarget = nil
	return errors.Join(errs...)
}
