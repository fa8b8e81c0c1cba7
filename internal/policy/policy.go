package policy

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Watchlist holds the path substrings that make write-style file
// operations interesting. The open and fopen sets differ on purpose;
// the asymmetry is part of the wire contract and collector scoring is
// calibrated against it.
type Watchlist struct {
	OpenPaths  []string
	FopenPaths []string
}

// Policy decides which hooked calls produce events. Decisions are pure
// functions of the call arguments; a Policy holds no mutable state and
// is safe for concurrent use.
type Policy struct {
	watch Watchlist
}

// New builds a Policy over the given watchlist. Only tests and
// embedding harnesses construct custom watchlists; the shipped
// boundary always runs Default.
func New(w Watchlist) *Policy {
	return &Policy{watch: w}
}

// Default returns the stock policy. Pattern sets are fixed at build
// time; there is no runtime configuration.
func Default() *Policy {
	return New(DefaultWatchlist)
}

// writeIntentMask marks an open as write-styled.
const writeIntentMask = unix.O_WRONLY | unix.O_RDWR | unix.O_CREAT | unix.O_TRUNC

// WriteIntent reports whether open flags carry write intent: any of
// O_WRONLY, O_RDWR, O_CREAT, O_TRUNC.
func WriteIntent(flags int) bool {
	return flags&writeIntentMask != 0
}

// ModeWriteIntent reports whether a stdio open mode writes: the mode
// contains 'w' or 'a'. Update modes like "r+" stay silent.
func ModeWriteIntent(mode string) bool {
	return strings.ContainsAny(mode, "wa")
}

// ReportOpen decides whether an open call is interesting. Evaluation
// order:
//
//  1. an empty path is never interesting
//  2. the flags must carry write intent
//  3. the path must contain one of the open watchlist substrings
//
// Read-only opens of watched paths stay silent.
func (p *Policy) ReportOpen(path string, flags int) bool {
	if path == "" || !WriteIntent(flags) {
		return false
	}
	return containsAny(path, p.watch.OpenPaths)
}

// ReportFopen decides whether a stdio open is interesting: the mode
// must write and the path must contain one of the fopen watchlist
// substrings.
func (p *Policy) ReportFopen(path, mode string) bool {
	if path == "" || !ModeWriteIntent(mode) {
		return false
	}
	return containsAny(path, p.watch.FopenPaths)
}

// ReportSocket decides whether a socket creation is interesting: every
// domain except AF_UNIX. Local sockets are the boundary's own plumbing
// and the noise floor of ordinary IPC.
func ReportSocket(domain int) bool {
	return domain != unix.AF_UNIX
}

// ReportSockaddr decides connect and bind: an address must be present
// and its family must not be AF_UNIX.
func ReportSockaddr(family int, present bool) bool {
	return present && family != unix.AF_UNIX
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
