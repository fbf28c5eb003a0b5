package models

import (
	"fmt"
	"strings"
)

// Stage is implemented by SiteStage and EntryStage.
type Stage interface {
	comparable
	fmt.Stringer
	Valid() bool
}

// NamedHandler is a registered handler with the name used in logs and errors.
type NamedHandler[H any] struct {
	Name string
	Fn   H
}

// Hooks holds ordered, named handlers per stage.
type Hooks[S Stage, H any] struct {
	order    []S
	handlers map[S][]NamedHandler[H]
}

// SiteHooks is the registry for site-level handlers.
type SiteHooks = Hooks[SiteStage, SiteHandler]

// EntryHooks is the registry for entry-level handlers.
type EntryHooks = Hooks[EntryStage, EntryHandler]

// NewHooks returns an empty registry whose stages run in the given order.
func NewHooks[S Stage, H any](order []S) *Hooks[S, H] {
	return &Hooks[S, H]{order: order, handlers: make(map[S][]NamedHandler[H], len(order))}
}

// NewSiteHooks returns an empty site registry.
func NewSiteHooks() *SiteHooks { return NewHooks[SiteStage, SiteHandler](SiteStages()) }

// NewEntryHooks returns an empty entry registry.
func NewEntryHooks() *EntryHooks { return NewHooks[EntryStage, EntryHandler](EntryStages()) }

// Register appends handler to stage. Out-of-range stages return ErrInvalidStage.
func (h *Hooks[S, H]) Register(stage S, name string, handler H) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, stage)
	}
	h.handlers[stage] = append(h.handlers[stage], NamedHandler[H]{Name: name, Fn: handler})
	return nil
}

// MustRegister is Register for bootstrap code with constant stages.
func (h *Hooks[S, H]) MustRegister(stage S, name string, handler H) {
	if err := h.Register(stage, name, handler); err != nil {
		panic(err)
	}
}

// Stages returns the stages in execution order.
func (h *Hooks[S, H]) Stages() []S {
	out := make([]S, len(h.order))
	copy(out, h.order)
	return out
}

// Handlers returns the handlers of stage in registration order.
func (h *Hooks[S, H]) Handlers(stage S) []NamedHandler[H] {
	list := h.handlers[stage]
	out := make([]NamedHandler[H], len(list))
	copy(out, list)
	return out
}

// Len returns the total number of registered handlers.
func (h *Hooks[S, H]) Len() int {
	n := 0
	for _, list := range h.handlers {
		n += len(list)
	}
	return n
}

// Describe lists non-empty stages and their handler names, one stage per
// line, for example "pre-scan: start, templates".
func (h *Hooks[S, H]) Describe() string {
	var b strings.Builder
	for _, s := range h.order {
		list := h.handlers[s]
		if len(list) == 0 {
			continue
		}
		names := make([]string, len(list))
		for i, nh := range list {
			names[i] = nh.Name
		}
		fmt.Fprintf(&b, "%s: %s\n", s, strings.Join(names, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
