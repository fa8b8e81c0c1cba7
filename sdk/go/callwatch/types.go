package callwatch

import (
	"github.com/callwatch/callwatch/internal/shim"
	"github.com/callwatch/callwatch/internal/transport"
)

// Watchlist holds the path fragments that make open and fopen calls
// interesting. The two lists are independent, as they are in the
// preloaded shim.
type Watchlist struct {
	OpenPaths  []string
	FopenPaths []string
}

// Hook describes one wrapped entry point.
type Hook struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Filter   string `json:"filter"`
}

// Stats counts event delivery outcomes for this process.
type Stats struct {
	Delivered    uint64
	NoEndpoint   uint64
	NotConnected uint64
	WouldBlock   uint64
	SendFailed   uint64
	Oversize     uint64
}

// Dropped sums the non-delivered outcomes.
func (s Stats) Dropped() uint64 {
	return s.NoEndpoint + s.NotConnected + s.WouldBlock + s.SendFailed + s.Oversize
}

func toStats(st transport.Stats) Stats {
	return Stats{
		Delivered:    st.Delivered,
		NoEndpoint:   st.NoEndpoint,
		NotConnected: st.NotConnected,
		WouldBlock:   st.WouldBlock,
		SendFailed:   st.SendFailed,
		Oversize:     st.Oversize,
	}
}

// Pipe is the parent's end of a Popen shell pipeline.
type Pipe = shim.Pipe

// ResolveError reports an entry point whose real implementation could
// not be found; the call was observed but never executed.
type ResolveError = shim.ResolveError
