package callwatch

// Option configures a Tracer at creation time.
type Option func(*config)

type config struct {
	socket     string
	watchlist  *Watchlist
	noAutoDial bool
}

// WithSocket pins the collector socket path, overriding SANDBOX_SOCKET.
func WithSocket(path string) Option {
	return func(c *config) { c.socket = path }
}

// WithWatchlist replaces the built-in open/fopen path watchlist.
func WithWatchlist(w Watchlist) Option {
	return func(c *config) { c.watchlist = &w }
}

// WithoutAutoDial skips the creation-time connect; the session dials
// on the first interesting call instead.
func WithoutAutoDial() Option {
	return func(c *config) { c.noAutoDial = true }
}
