package event

// Category classifies an observed call on the wire.
type Category string

const (
	CategoryExec      Category = "exec"
	CategoryNetwork   Category = "network"
	CategoryFile      Category = "file"
	CategoryInjection Category = "injection"
	CategoryPrivilege Category = "privilege"
	CategoryProcess   Category = "process"
)

// ModuleLibc labels events observed at the libc call boundary. Other
// instrumentation sources use their own labels; everything in this
// repository emits ModuleLibc.
const ModuleLibc = "libc"

// Categories lists every category a hook can emit, in wire-stable order.
func Categories() []Category {
	return []Category{
		CategoryExec,
		CategoryNetwork,
		CategoryFile,
		CategoryInjection,
		CategoryPrivilege,
		CategoryProcess,
	}
}

// Event is one observed call. Filename and Lineno exist for collector
// compatibility: script-level tracers fill them, the libc boundary
// always leaves them zero.
//
// The JSON tags serve the tolerant decode direction only. Emission goes
// through AppendLine, which fixes key order and byte layout.
type Event struct {
	Type     Category `json:"type"`
	Module   string   `json:"module"`
	Function string   `json:"function"`
	Cmd      string   `json:"cmd"`
	Filename string   `json:"filename"`
	Lineno   int      `json:"lineno"`
}

// New builds a libc-boundary event. detail must already be sanitized;
// see Sanitize.
func New(cat Category, function, detail string) Event {
	return Event{
		Type:     cat,
		Module:   ModuleLibc,
		Function: function,
		Cmd:      detail,
	}
}
