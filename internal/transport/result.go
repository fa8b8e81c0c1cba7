package transport

// State describes a session's relationship with the collector endpoint.
type State int

const (
	// StateDisconnected covers every no-descriptor condition: never
	// armed, endpoint unconfigured, connect failed, closed.
	StateDisconnected State = iota
	// StateConnected means the connect or the most recent send worked.
	StateConnected
	// StateSendFailed means a send failed but the descriptor is kept;
	// later sends are still attempted.
	StateSendFailed
)

// String renders the state for diagnostics.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateSendFailed:
		return "send-failed"
	default:
		return "disconnected"
	}
}

// DropReason says why a line was not delivered.
type DropReason string

const (
	// DropNone marks a delivered result.
	DropNone DropReason = ""
	// DropNoEndpoint: EnvSocket was absent or empty when the session armed.
	DropNoEndpoint DropReason = "no-endpoint"
	// DropNotConnected: the one connect attempt failed, or the session
	// is closed.
	DropNotConnected DropReason = "not-connected"
	// DropWouldBlock: the socket buffer was full at send time.
	DropWouldBlock DropReason = "would-block"
	// DropSendFailed: the kernel refused or shortened the write.
	DropSendFailed DropReason = "send-failed"
	// DropOversize: the encoded line exceeded the line budget.
	DropOversize DropReason = "oversize"
)

// SendResult reports the fate of one line. Hooks discard it by
// contract; session counters are its only audience.
type SendResult struct {
	Delivered bool
	Reason    DropReason
}

// Delivered builds the successful SendResult.
func Delivered() SendResult { return SendResult{Delivered: true} }

// Dropped builds a failed SendResult carrying the reason.
func Dropped(reason DropReason) SendResult { return SendResult{Reason: reason} }

// Stats counts delivery outcomes since the session armed, or since the
// last fork reset.
type Stats struct {
	Delivered    uint64
	NoEndpoint   uint64
	NotConnected uint64
	WouldBlock   uint64
	SendFailed   uint64
	Oversize     uint64
}

// TotalDropped sums every drop counter.
func (st Stats) TotalDropped() uint64 {
	return st.NoEndpoint + st.NotConnected + st.WouldBlock + st.SendFailed + st.Oversize
}

func (st *Stats) count(r SendResult) {
	if r.Delivered {
		st.Delivered++
		return
	}
	switch r.Reason {
	case DropNoEndpoint:
		st.NoEndpoint++
	case DropNotConnected:
		st.NotConnected++
	case DropWouldBlock:
		st.WouldBlock++
	case DropOversize:
		st.Oversize++
	default:
		st.SendFailed++
	}
}
