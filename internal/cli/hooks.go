package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/callwatch/callwatch/internal/shim"
)

var (
	hooksJSON    bool
	hooksResolve bool
)

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.Flags().BoolVar(&hooksJSON, "json", false, "JSON output")
	hooksCmd.Flags().BoolVar(&hooksResolve, "resolve", false, "Resolve each hook's real implementation on this host")
}

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List the hooked entry points",
	Long: "Prints the hook table: every wrapped libc entry point, the category\n" +
		"its events carry and when it reports. With --resolve each hook's\n" +
		"real implementation is looked up on this host first.",
	RunE: runHooks,
}

type hookRow struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Filter   string `json:"filter"`
	Resolved string `json:"resolved,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runHooks(cmd *cobra.Command, args []string) error {
	reg := shim.NewRegistry()

	var failed map[string]error
	if hooksResolve {
		failed = reg.ResolveAll(shim.NewRealFuncs())
	}

	rows := make([]hookRow, 0, len(reg.Entries()))
	for _, e := range reg.Entries() {
		row := hookRow{
			Name:     e.Name,
			Category: string(e.Category),
			Filter:   e.Filter,
		}
		if hooksResolve {
			if err, ok := failed[e.Name]; ok {
				row.Resolved = "failed"
				row.Error = err.Error()
			} else {
				row.Resolved = "ok"
			}
		}
		rows = append(rows, row)
	}

	if hooksJSON {
		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if hooksResolve {
		fmt.Printf("%-8s %-10s %-36s %s\n", "HOOK", "CATEGORY", "FILTER", "RESOLVED")
		for _, r := range rows {
			note := r.Resolved
			if r.Error != "" {
				note += " (" + r.Error + ")"
			}
			fmt.Printf("%-8s %-10s %-36s %s\n", r.Name, r.Category, r.Filter, note)
		}
		return nil
	}

	fmt.Printf("%-8s %-10s %s\n", "HOOK", "CATEGORY", "FILTER")
	for _, r := range rows {
		fmt.Printf("%-8s %-10s %s\n", r.Name, r.Category, r.Filter)
	}
	return nil
}
