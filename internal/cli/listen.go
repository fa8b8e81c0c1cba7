package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/callwatch/callwatch/internal/collector"
	"github.com/callwatch/callwatch/internal/event"
	"github.com/callwatch/callwatch/internal/transport"
)

// defaultListenSocket is where the dev collector binds when neither
// the flag nor the environment names a socket.
const defaultListenSocket = "/tmp/callwatch.sock"

var (
	listenMirror string
	listenRaw    bool
	listenQuiet  bool
)

func init() {
	rootCmd.AddCommand(listenCmd)
	listenCmd.Flags().StringVar(&listenMirror, "mirror", "", "Append observed events to this JSONL file")
	listenCmd.Flags().BoolVar(&listenRaw, "raw", false, "Print wire-format lines instead of columns")
	listenCmd.Flags().BoolVar(&listenQuiet, "quiet", false, "No per-event output, summary only")
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Receive shim events on a unix socket",
	Long: "Development collector: binds the socket shims connect to and prints\n" +
		"every event as it arrives. Events go to stdout, status to stderr.\n" +
		"Stops on SIGINT or SIGTERM with a delivery summary.",
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	endpoint := os.Getenv(transport.EnvSocket)
	if endpoint == "" {
		endpoint = defaultListenSocket
	}

	l, err := collector.Listen(endpoint)
	if err != nil {
		return err
	}

	var mirror *collector.Mirror
	if listenMirror != "" {
		mirror, err = collector.OpenMirror(listenMirror)
		if err != nil {
			l.Close()
			return err
		}
		defer mirror.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down")
		l.Close()
	}()

	fmt.Fprintf(os.Stderr, "callwatch collector listening on %s\n", endpoint)
	if listenMirror != "" {
		fmt.Fprintf(os.Stderr, "mirroring events to %s\n", listenMirror)
	}
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")

	for ev := range l.Events() {
		if mirror != nil {
			if err := mirror.Record(ev); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		if listenQuiet {
			continue
		}
		if listenRaw {
			line, err := event.Line(ev)
			if err != nil {
				continue
			}
			os.Stdout.Write(line)
		} else {
			fmt.Printf("%-10s %-8s %s\n", ev.Type, ev.Function, ev.Cmd)
		}
	}

	st := l.Stats()
	fmt.Fprintf(os.Stderr, "%d events from %d connections (%d malformed, %d overflowed)\n",
		st.Lines, st.Connections, st.Malformed, st.Overflow)
	return nil
}
