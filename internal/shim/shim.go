package shim

import (
	"github.com/callwatch/callwatch/internal/event"
	"github.com/callwatch/callwatch/internal/policy"
	"github.com/callwatch/callwatch/internal/transport"
)

// Shim is the call boundary: sixteen wrapped entry points, a static
// filter policy and one collector session. Wrappers always execute the
// real call and return its result untouched; telemetry is a side
// channel that may lose data but never changes behavior.
type Shim struct {
	registry *Registry
	policy   *policy.Policy
	session  *transport.Session
	resolver Resolver
	deferred bool
}

// NewRegistry builds a bare hook table. The table is plain data and
// needs neither a resolver nor a session; listings and policy checks
// use it standalone.
func NewRegistry() *Registry {
	return newRegistry()
}

// Option configures a Shim at construction.
type Option func(*Shim)

// WithResolver substitutes the resolver, usually a recording fake.
func WithResolver(r Resolver) Option {
	return func(sh *Shim) { sh.resolver = r }
}

// WithPolicy substitutes the filter policy.
func WithPolicy(p *policy.Policy) Option {
	return func(sh *Shim) { sh.policy = p }
}

// WithSession substitutes the collector session.
func WithSession(s *transport.Session) Option {
	return func(sh *Shim) { sh.session = s }
}

// WithDeferredConnect skips the construction-time connect; the session
// arms on the first interesting call instead.
func WithDeferredConnect() Option {
	return func(sh *Shim) { sh.deferred = true }
}

// New assembles the boundary and, unless deferred, makes the session's
// single connect attempt so a live collector sees events from the
// first call onward. A missing or unreachable collector is not an
// error; the boundary simply stays silent.
func New(opts ...Option) *Shim {
	sh := &Shim{
		registry: newRegistry(),
		policy:   policy.Default(),
		session:  transport.New(),
		resolver: NewRealFuncs(),
	}
	for _, opt := range opts {
		opt(sh)
	}
	if !sh.deferred {
		_ = sh.session.Connect()
	}
	return sh
}

// Registry exposes the hook table.
func (sh *Shim) Registry() *Registry { return sh.registry }

// State reports the collector session state.
func (sh *Shim) State() transport.State { return sh.session.State() }

// Stats reports the session's delivery counters.
func (sh *Shim) Stats() transport.Stats { return sh.session.Stats() }

// OnForkChild resets the collector session in a forked child. The Fork
// hook runs it automatically on its child branch; harnesses that fork
// by other means call it themselves.
func (sh *Shim) OnForkChild() {
	sh.session.OnForkChild()
}

// Close releases the collector session at process exit.
func (sh *Shim) Close() {
	sh.session.Close()
}

// observe emits the event for an interesting call. Delivery results
// land in the session counters; hooks never branch on them.
func (sh *Shim) observe(e *Entry, c Call) {
	if !e.Report(sh.policy, c) {
		return
	}
	line, err := event.Line(event.New(e.Category, e.Name, e.Describe(c)))
	if err != nil {
		sh.session.RecordDrop(transport.DropOversize)
		return
	}
	_ = sh.session.Send(line)
}
