package policy

// DefaultWatchlist contains the hardcoded sensitive-path substrings.
// Matching is plain case-sensitive containment, no globbing. The open
// set watches two locations the fopen set does not (/sbin/ and
// .profile); keep the difference.
var DefaultWatchlist = Watchlist{
	OpenPaths: []string{
		"/etc/",
		"/.ssh/",
		"/bin/",
		"/sbin/",
		"cron",
		".bashrc",
		".profile",
	},
	FopenPaths: []string{
		"/etc/",
		"/.ssh/",
		"/bin/",
		"cron",
		".bashrc",
	},
}
