// Package command intercepts named slash commands before the host runtime
// dispatches them.
package command

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Outcome tells the host what to do with a command after interception.
type Outcome int

const (
	// Continue lets the host dispatch the command as usual.
	Continue Outcome = iota
	// Handled means the command was fully served here.
	Handled
	// Failed means the command was ours but could not be served.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Handled:
		return "handled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Invocation is one command call from a session.
type Invocation struct {
	Name      string
	SessionID string
	Args      string
}

// Poster delivers text into a session without asking for a reply.
type Poster interface {
	Post(ctx context.Context, sessionID, text string) error
}

// PosterFunc adapts a function to Poster.
type PosterFunc func(ctx context.Context, sessionID, text string) error

func (f PosterFunc) Post(ctx context.Context, sessionID, text string) error {
	return f(ctx, sessionID, text)
}

// Handler serves one command.
type Handler interface {
	Handle(ctx context.Context, inv Invocation, out Poster) (Outcome, error)
}

// Describer is implemented by handlers that can explain themselves.
type Describer interface {
	Description() string
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv Invocation, out Poster) (Outcome, error)

func (f HandlerFunc) Handle(ctx context.Context, inv Invocation, out Poster) (Outcome, error) {
	return f(ctx, inv, out)
}

// Interceptor routes invocations to registered handlers.
type Interceptor struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewInterceptor() *Interceptor {
	return &Interceptor{handlers: make(map[string]Handler)}
}

// Handle registers h for name, replacing any earlier handler.
func (i *Interceptor) Handle(name string, h Handler) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.handlers[name] = h
}

// Lookup returns the handler registered for name.
func (i *Interceptor) Lookup(name string) (Handler, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	h, ok := i.handlers[name]
	return h, ok
}

// Names returns the registered command names in sorted order.
func (i *Interceptor) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.handlers))
	for n := range i.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Before runs the handler registered for inv.Name. Unknown commands return
// Continue. A Failed outcome always carries a non-nil error.
func (i *Interceptor) Before(ctx context.Context, inv Invocation, out Poster) (Outcome, error) {
	h, ok := i.Lookup(inv.Name)
	if !ok {
		return Continue, nil
	}

	outcome, err := h.Handle(ctx, inv, out)
	if err != nil {
		return Failed, err
	}
	if outcome == Failed {
		return Failed, fmt.Errorf("command %s failed", inv.Name)
	}
	return outcome, nil
}
