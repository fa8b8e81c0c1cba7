package policy

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestWriteIntent(t *testing.T) {
	cases := []struct {
		name  string
		flags int
		want  bool
	}{
		{"rdonly", unix.O_RDONLY, false},
		{"wronly", unix.O_WRONLY, true},
		{"rdwr", unix.O_RDWR, true},
		{"creat", unix.O_CREAT, true},
		{"trunc", unix.O_TRUNC, true},
		{"wronly creat trunc", unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC, true},
		{"rdonly cloexec", unix.O_RDONLY | unix.O_CLOEXEC, false},
		{"rdonly nonblock", unix.O_RDONLY | unix.O_NONBLOCK, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WriteIntent(tc.flags); got != tc.want {
				t.Fatalf("WriteIntent(%#x) = %v, want %v", tc.flags, got, tc.want)
			}
		})
	}
}

func TestModeWriteIntent(t *testing.T) {
	cases := []struct {
		mode string
		want bool
	}{
		{"r", false},
		{"rb", false},
		{"r+", false},
		{"w", true},
		{"wb", true},
		{"w+", true},
		{"a", true},
		{"a+", true},
		{"", false},
	}
	for _, tc := range cases {
		if got := ModeWriteIntent(tc.mode); got != tc.want {
			t.Fatalf("ModeWriteIntent(%q) = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestReportOpenWatchedPaths(t *testing.T) {
	p := Default()
	cases := []struct {
		name  string
		path  string
		flags int
		want  bool
	}{
		{"etc write", "/etc/passwd", unix.O_WRONLY, true},
		{"etc read only", "/etc/passwd", unix.O_RDONLY, false},
		{"tmp write", "/tmp/scratch", unix.O_WRONLY | unix.O_CREAT, false},
		{"ssh authorized_keys", "/home/u/.ssh/authorized_keys", unix.O_WRONLY, true},
		{"cron spool", "/var/spool/cron/root", unix.O_RDWR, true},
		{"bashrc create", "/home/u/.bashrc", unix.O_CREAT, true},
		{"profile append", "/home/u/.profile", unix.O_WRONLY | unix.O_APPEND, true},
		{"sbin overwrite", "/usr/sbin/sshd", unix.O_WRONLY | unix.O_TRUNC, true},
		{"bin overwrite", "/usr/bin/ls", unix.O_WRONLY, true},
		{"unwatched home file", "/home/u/notes.txt", unix.O_WRONLY | unix.O_CREAT, false},
		{"empty path", "", unix.O_WRONLY, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ReportOpen(tc.path, tc.flags); got != tc.want {
				t.Fatalf("ReportOpen(%q, %#x) = %v, want %v", tc.path, tc.flags, got, tc.want)
			}
		})
	}
}

func TestReportFopenWatchedPaths(t *testing.T) {
	p := Default()
	cases := []struct {
		name string
		path string
		mode string
		want bool
	}{
		{"etc write", "/etc/hosts", "w", true},
		{"etc read", "/etc/hosts", "r", false},
		{"etc append plus", "/etc/hosts", "a+", true},
		{"ssh config", "/root/.ssh/config", "w", true},
		{"bashrc append", "/home/u/.bashrc", "a", true},
		{"cron drop", "/etc/cron.d/job", "w", true},
		{"unwatched", "/var/tmp/x", "w", false},
		{"empty mode", "/etc/hosts", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.ReportFopen(tc.path, tc.mode); got != tc.want {
				t.Fatalf("ReportFopen(%q, %q) = %v, want %v", tc.path, tc.mode, got, tc.want)
			}
		})
	}
}

// The fopen watchlist is narrower than the open watchlist: /sbin/ and
// .profile writes are visible through open but not through fopen.
func TestWatchlistAsymmetry(t *testing.T) {
	p := Default()

	if !p.ReportOpen("/usr/sbin/cooked", unix.O_WRONLY) {
		t.Fatal("open should watch /sbin/")
	}
	if p.ReportFopen("/usr/sbin/cooked", "w") {
		t.Fatal("fopen should not watch /sbin/")
	}
	if !p.ReportOpen("/home/u/.profile", unix.O_WRONLY) {
		t.Fatal("open should watch .profile")
	}
	if p.ReportFopen("/home/u/.profile", "w") {
		t.Fatal("fopen should not watch .profile")
	}

	for _, sub := range DefaultWatchlist.FopenPaths {
		found := false
		for _, super := range DefaultWatchlist.OpenPaths {
			if sub == super {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("fopen pattern %q missing from open watchlist", sub)
		}
	}
}

func TestReportSocket(t *testing.T) {
	cases := []struct {
		name   string
		domain int
		want   bool
	}{
		{"inet", unix.AF_INET, true},
		{"inet6", unix.AF_INET6, true},
		{"netlink", unix.AF_NETLINK, true},
		{"packet", unix.AF_PACKET, true},
		{"unix", unix.AF_UNIX, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReportSocket(tc.domain); got != tc.want {
				t.Fatalf("ReportSocket(%d) = %v, want %v", tc.domain, got, tc.want)
			}
		})
	}
}

func TestReportSockaddr(t *testing.T) {
	if !ReportSockaddr(unix.AF_INET, true) {
		t.Fatal("inet address present should report")
	}
	if ReportSockaddr(unix.AF_UNIX, true) {
		t.Fatal("unix address should not report")
	}
	if ReportSockaddr(unix.AF_INET, false) {
		t.Fatal("absent address should not report")
	}
}

func TestCustomWatchlist(t *testing.T) {
	p := New(Watchlist{OpenPaths: []string{"/opt/secrets/"}})

	if !p.ReportOpen("/opt/secrets/key", unix.O_WRONLY) {
		t.Fatal("custom pattern should match")
	}
	if p.ReportOpen("/etc/passwd", unix.O_WRONLY) {
		t.Fatal("default patterns should not leak into custom watchlist")
	}
	if p.ReportFopen("/opt/secrets/key", "w") {
		t.Fatal("empty fopen watchlist should never match")
	}
}
