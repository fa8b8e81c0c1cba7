package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/callwatch/callwatch/internal/event"
	"github.com/callwatch/callwatch/internal/policy"
	"github.com/callwatch/callwatch/internal/shim"
)

var (
	checkFunction string
	checkPath     string
	checkCommand  string
	checkFlags    string
	checkMode     string
	checkDomain   string
	checkType     int
	checkFamily   string
	checkPerm     string
	checkUID      int
	checkGID      int
	checkRequest  int
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkFunction, "function", "", "Hooked function to evaluate (required)")
	checkCmd.Flags().StringVar(&checkPath, "path", "", "File path argument")
	checkCmd.Flags().StringVar(&checkCommand, "command", "", "Shell command argument (system, popen)")
	checkCmd.Flags().StringVar(&checkFlags, "flags", "", "open(2) flags, e.g. O_WRONLY|O_CREAT or a number")
	checkCmd.Flags().StringVar(&checkMode, "mode", "", "fopen mode string, e.g. w or a+")
	checkCmd.Flags().StringVar(&checkDomain, "domain", "", "Socket domain: unix, inet, inet6 or a number")
	checkCmd.Flags().IntVar(&checkType, "type", 1, "Socket type number")
	checkCmd.Flags().StringVar(&checkFamily, "family", "none", "connect/bind address family: none, unix, inet, inet6 or a number")
	checkCmd.Flags().StringVar(&checkPerm, "perm", "0", "chmod permission bits, octal")
	checkCmd.Flags().IntVar(&checkUID, "uid", 0, "uid argument (chown, setuid)")
	checkCmd.Flags().IntVar(&checkGID, "gid", 0, "gid argument (chown, setgid)")
	checkCmd.Flags().IntVar(&checkRequest, "request", 0, "ptrace request number")
	checkCmd.MarkFlagRequired("function")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the filter policy about one call, offline",
	Long: "Evaluates a described call against the static filter policy without\n" +
		"touching a socket or making the call. A reported call prints its\n" +
		"exact wire line on stdout.\n\n" +
		"Exit code 0 if the call would report, 1 if it stays silent.",
	RunE: runPolicyCheck,
}

func runPolicyCheck(cmd *cobra.Command, args []string) error {
	reg := shim.NewRegistry()
	e, ok := reg.Lookup(checkFunction)
	if !ok {
		return fmt.Errorf("unknown function %q; hooked: %s",
			checkFunction, strings.Join(reg.Names(), " "))
	}

	call, err := buildCall()
	if err != nil {
		return err
	}

	if !e.Report(policy.Default(), call) {
		fmt.Fprintf(os.Stderr, "silent: %s would not report this call\n", e.Name)
		os.Exit(1)
	}

	line, err := event.Line(event.New(e.Category, e.Name, e.Describe(call)))
	if err != nil {
		return fmt.Errorf("event exceeds the line budget: %w", err)
	}
	os.Stdout.Write(line)
	return nil
}

func buildCall() (shim.Call, error) {
	call := shim.Call{
		Path:    checkPath,
		Command: checkCommand,
		Mode:    checkMode,
		Type:    checkType,
		UID:     checkUID,
		GID:     checkGID,
		Request: checkRequest,
	}

	flags, err := parseOpenFlags(checkFlags)
	if err != nil {
		return call, err
	}
	call.Flags = flags

	if checkDomain != "" {
		domain, err := parseFamilyName(checkDomain)
		if err != nil {
			return call, fmt.Errorf("--domain: %w", err)
		}
		call.Domain = domain
	}

	if checkFamily != "" && checkFamily != "none" {
		family, err := parseFamilyName(checkFamily)
		if err != nil {
			return call, fmt.Errorf("--family: %w", err)
		}
		call.Family = family
		call.HasAddr = true
	}

	perm, err := strconv.ParseUint(strings.TrimPrefix(checkPerm, "0o"), 8, 32)
	if err != nil {
		return call, fmt.Errorf("--perm: %q is not octal", checkPerm)
	}
	call.FileMode = uint32(perm)

	return call, nil
}

var openFlagNames = map[string]int{
	"O_RDONLY":   unix.O_RDONLY,
	"O_WRONLY":   unix.O_WRONLY,
	"O_RDWR":     unix.O_RDWR,
	"O_CREAT":    unix.O_CREAT,
	"O_TRUNC":    unix.O_TRUNC,
	"O_APPEND":   unix.O_APPEND,
	"O_EXCL":     unix.O_EXCL,
	"O_CLOEXEC":  unix.O_CLOEXEC,
	"O_NONBLOCK": unix.O_NONBLOCK,
}

// parseOpenFlags reads a |-joined list of O_* names, or a plain
// number in any Go integer syntax.
func parseOpenFlags(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 0, 32); err == nil {
		return int(n), nil
	}
	var flags int
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.ToUpper(strings.TrimSpace(part))
		bit, ok := openFlagNames[part]
		if !ok {
			return 0, fmt.Errorf("--flags: unknown flag %q", part)
		}
		flags |= bit
	}
	return flags, nil
}

// parseFamilyName reads an address-family name or number.
func parseFamilyName(s string) (int, error) {
	switch strings.ToLower(s) {
	case "unix", "local":
		return unix.AF_UNIX, nil
	case "inet", "ip4", "ipv4":
		return unix.AF_INET, nil
	case "inet6", "ip6", "ipv6":
		return unix.AF_INET6, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown family %q", s)
	}
	return n, nil
}
