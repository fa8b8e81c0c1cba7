package cli

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/callwatch/callwatch/internal/event"
	"github.com/callwatch/callwatch/internal/policy"
	"github.com/callwatch/callwatch/internal/shim"
)

func resetCheckFlags() {
	checkFunction = ""
	checkPath = ""
	checkCommand = ""
	checkFlags = ""
	checkMode = ""
	checkDomain = ""
	checkType = 1
	checkFamily = "none"
	checkPerm = "0"
	checkUID = 0
	checkGID = 0
	checkRequest = 0
}

func TestParseOpenFlags(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"O_WRONLY", unix.O_WRONLY, false},
		{"O_WRONLY|O_CREAT", unix.O_WRONLY | unix.O_CREAT, false},
		{"o_rdwr,o_trunc", unix.O_RDWR | unix.O_TRUNC, false},
		{"577", 577, false},
		{"0x241", 0x241, false},
		{"O_SPARKLE", 0, true},
	}
	for _, tc := range cases {
		got, err := parseOpenFlags(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseOpenFlags(%q) accepted", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOpenFlags(%q) err = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseOpenFlags(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestParseFamilyName(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"unix", unix.AF_UNIX, false},
		{"local", unix.AF_UNIX, false},
		{"inet", unix.AF_INET, false},
		{"ipv6", unix.AF_INET6, false},
		{"2", 2, false},
		{"martian", 0, true},
	}
	for _, tc := range cases {
		got, err := parseFamilyName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFamilyName(%q) accepted", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFamilyName(%q) err = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseFamilyName(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBuildCallMapsEveryArgument(t *testing.T) {
	resetCheckFlags()
	checkPath = "/etc/passwd"
	checkFlags = "O_WRONLY"
	checkDomain = "inet"
	checkFamily = "inet6"
	checkPerm = "755"
	checkUID = 7
	checkGID = 8
	checkRequest = 16

	call, err := buildCall()
	if err != nil {
		t.Fatalf("buildCall: %v", err)
	}
	if call.Path != "/etc/passwd" || call.Flags != unix.O_WRONLY {
		t.Errorf("path/flags: %+v", call)
	}
	if call.Domain != unix.AF_INET || call.Family != unix.AF_INET6 || !call.HasAddr {
		t.Errorf("domain/family: %+v", call)
	}
	if call.FileMode != 0o755 || call.UID != 7 || call.GID != 8 || call.Request != 16 {
		t.Errorf("numeric args: %+v", call)
	}
}

func TestBuildCallFamilyNoneMeansNoAddress(t *testing.T) {
	resetCheckFlags()
	call, err := buildCall()
	if err != nil {
		t.Fatalf("buildCall: %v", err)
	}
	if call.HasAddr {
		t.Error("family none still produced an address")
	}
}

func TestBuildCallRejectsBadPerm(t *testing.T) {
	resetCheckFlags()
	checkPerm = "rw-"
	if _, err := buildCall(); err == nil {
		t.Error("non-octal perm accepted")
	}
}

func TestCheckMatchesWatchedWrite(t *testing.T) {
	resetCheckFlags()
	checkPath = "/etc/passwd"
	checkFlags = "O_WRONLY"

	call, err := buildCall()
	if err != nil {
		t.Fatal(err)
	}
	e, ok := shim.NewRegistry().Lookup("open")
	if !ok {
		t.Fatal("open entry missing")
	}
	if !e.Report(policy.Default(), call) {
		t.Fatal("watched write judged silent")
	}
	line, err := event.Line(event.New(e.Category, e.Name, e.Describe(call)))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"file","module":"libc","function":"open","cmd":"/etc/passwd","filename":"","lineno":0}` + "\n"
	if string(line) != want {
		t.Fatalf("line = %q", line)
	}
}
