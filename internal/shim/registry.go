package shim

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/callwatch/callwatch/internal/event"
	"github.com/callwatch/callwatch/internal/policy"
)

// Entry is one row of the hook table: an entry-point name, the category
// its events carry, the filter deciding when it reports, and the
// memoized real implementation. The table is plain data so it can be
// exercised without touching a resolver or a socket.
type Entry struct {
	Name     string
	Category event.Category
	// Filter is a human-readable summary of Report for listings.
	Filter string
	// Report decides whether the call is interesting.
	Report func(p *policy.Policy, c Call) bool
	// Describe renders the call's detail string, already sanitized.
	Describe func(c Call) string

	once     sync.Once
	fn       any
	err      error
	resolved atomic.Bool
}

// resolveWith memoizes the resolver's answer for this entry. The first
// caller wins; success and failure are equally sticky.
func (e *Entry) resolveWith(r Resolver) (any, error) {
	e.once.Do(func() {
		e.fn, e.err = r.Resolve(e.Name)
		e.resolved.Store(true)
	})
	return e.fn, e.err
}

// Resolved reports whether resolution has been attempted, regardless of
// outcome.
func (e *Entry) Resolved() bool {
	return e.resolved.Load()
}

// Registry is the fixed hook table. Order is stable and matches
// Entries(); the set never changes at runtime.
type Registry struct {
	entries []*Entry
	byName  map[string]*Entry
}

// Entries returns the table rows in registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds an entry by entry-point name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// Names lists the entry-point names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Name
	}
	return out
}

// ResolveAll forces resolution of every entry with res and returns
// the failures by name. Resolution stays sticky either way.
func (r *Registry) ResolveAll(res Resolver) map[string]error {
	failed := make(map[string]error)
	for _, e := range r.entries {
		if _, err := e.resolveWith(res); err != nil {
			failed[e.Name] = err
		}
	}
	return failed
}

func (r *Registry) mustLookup(name string) *Entry {
	e, ok := r.byName[name]
	if !ok {
		panic("shim: unknown entry point " + name)
	}
	return e
}

func reportAlways(*policy.Policy, Call) bool { return true }

func describeNothing(Call) string { return "" }

func describePath(c Call) string { return event.Sanitize(c.Path) }

func describeCommand(c Call) string { return event.Sanitize(c.Command) }

// newRegistry builds the sixteen-entry hook table.
func newRegistry() *Registry {
	entries := []*Entry{
		{
			Name:     "execve",
			Category: event.CategoryExec,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describePath,
		},
		{
			Name:     "system",
			Category: event.CategoryExec,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describeCommand,
		},
		{
			Name:     "popen",
			Category: event.CategoryExec,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describeCommand,
		},
		{
			Name:     "socket",
			Category: event.CategoryNetwork,
			Filter:   "domain != AF_UNIX",
			Report: func(_ *policy.Policy, c Call) bool {
				return policy.ReportSocket(c.Domain)
			},
			Describe: func(c Call) string {
				return fmt.Sprintf("domain=%d type=%d", c.Domain, c.Type)
			},
		},
		{
			Name:     "connect",
			Category: event.CategoryNetwork,
			Filter:   "address family != AF_UNIX",
			Report: func(_ *policy.Policy, c Call) bool {
				return policy.ReportSockaddr(c.Family, c.HasAddr)
			},
			Describe: describeNothing,
		},
		{
			Name:     "bind",
			Category: event.CategoryNetwork,
			Filter:   "address family != AF_UNIX",
			Report: func(_ *policy.Policy, c Call) bool {
				return policy.ReportSockaddr(c.Family, c.HasAddr)
			},
			Describe: describeNothing,
		},
		{
			Name:     "open",
			Category: event.CategoryFile,
			Filter:   "write intent and watched path",
			Report: func(p *policy.Policy, c Call) bool {
				return p.ReportOpen(c.Path, c.Flags)
			},
			Describe: describePath,
		},
		{
			Name:     "fopen",
			Category: event.CategoryFile,
			Filter:   "write mode and watched path",
			Report: func(p *policy.Policy, c Call) bool {
				return p.ReportFopen(c.Path, c.Mode)
			},
			Describe: describePath,
		},
		{
			Name:     "unlink",
			Category: event.CategoryFile,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describePath,
		},
		{
			Name:     "remove",
			Category: event.CategoryFile,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describePath,
		},
		{
			Name:     "ptrace",
			Category: event.CategoryInjection,
			Filter:   "always",
			Report:   reportAlways,
			Describe: func(c Call) string {
				return fmt.Sprintf("request=%d", c.Request)
			},
		},
		{
			Name:     "chmod",
			Category: event.CategoryFile,
			Filter:   "always",
			Report:   reportAlways,
			Describe: func(c Call) string {
				return fmt.Sprintf("%s mode=%o", event.SanitizePath(c.Path), c.FileMode)
			},
		},
		{
			Name:     "chown",
			Category: event.CategoryFile,
			Filter:   "always",
			Report:   reportAlways,
			Describe: func(c Call) string {
				return fmt.Sprintf("%s uid=%d gid=%d", event.SanitizePath(c.Path), c.UID, c.GID)
			},
		},
		{
			Name:     "setuid",
			Category: event.CategoryPrivilege,
			Filter:   "always",
			Report:   reportAlways,
			Describe: func(c Call) string {
				return fmt.Sprintf("uid=%d", c.UID)
			},
		},
		{
			Name:     "setgid",
			Category: event.CategoryPrivilege,
			Filter:   "always",
			Report:   reportAlways,
			Describe: func(c Call) string {
				return fmt.Sprintf("gid=%d", c.GID)
			},
		},
		{
			Name:     "fork",
			Category: event.CategoryProcess,
			Filter:   "always",
			Report:   reportAlways,
			Describe: describeNothing,
		},
	}

	byName := make(map[string]*Entry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	return &Registry{entries: entries, byName: byName}
}
