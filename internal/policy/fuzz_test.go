package policy

import (
	"testing"

	"golang.org/x/sys/unix"
)

func FuzzReportOpen(f *testing.F) {
	seeds := []struct {
		path  string
		flags int
	}{
		{"/etc/passwd", unix.O_WRONLY},
		{"/tmp/scratch", unix.O_WRONLY | unix.O_CREAT},
		{"/home/u/.ssh/id_rsa", unix.O_RDWR},
		{"", 0},
		{"/etc/", unix.O_RDONLY},
		{"cron", unix.O_TRUNC},
	}
	for _, s := range seeds {
		f.Add(s.path, s.flags)
	}

	p := Default()
	f.Fuzz(func(t *testing.T, path string, flags int) {
		got := p.ReportOpen(path, flags)
		// Reported implies write intent; a read-only open never reports.
		if got && !WriteIntent(flags) {
			t.Fatalf("reported without write intent: %q %#x", path, flags)
		}
		if got && path == "" {
			t.Fatal("reported with empty path")
		}
	})
}

func FuzzReportFopen(f *testing.F) {
	f.Add("/etc/hosts", "w")
	f.Add("/etc/hosts", "r")
	f.Add("", "")
	f.Add("/root/.bashrc", "a+")

	p := Default()
	f.Fuzz(func(t *testing.T, path, mode string) {
		got := p.ReportFopen(path, mode)
		if got && !ModeWriteIntent(mode) {
			t.Fatalf("reported without write mode: %q %q", path, mode)
		}
		if got && path == "" {
			t.Fatal("reported with empty path")
		}
	})
}
