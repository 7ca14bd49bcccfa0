// Package cli formats dump results for the terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/goetzr/dump-msg-tables/internal/msgtable"
	"github.com/goetzr/dump-msg-tables/internal/pe"
	"github.com/goetzr/dump-msg-tables/internal/resid"
)

// Reporter prints decoded message tables and resource summaries for one
// opened module. Entry lines are written uncolored so piped output carries
// exactly one "hexid: text" line per message; headers and highlights use
// color, which fatih/color drops on non-terminals.
type Reporter struct {
	module *pe.Module
}

// NewReporter creates a reporter for the given module.
func NewReporter(module *pe.Module) *Reporter {
	return &Reporter{module: module}
}

// PrintEntries writes one line per decoded message: the hexadecimal ID
// right-aligned in eight columns, a colon, a space, and the text.
func (r *Reporter) PrintEntries(entries []msgtable.Entry) {
	for _, entry := range entries {
		fmt.Println(entryLine(entry))
	}
}

// PrintIDs lists the message-table resources present in the module without
// decoding them.
func (r *Reporter) PrintIDs(ids []resid.ID) {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Printf("\n========== Message Tables (%d) ==========\n", len(ids))

	if len(ids) == 0 {
		fmt.Println("  no message table resources")
		return
	}

	for i, id := range ids {
		kind := "ordinal"
		if _, ok := id.Name(); ok {
			kind = "name"
		}
		fmt.Printf("  %3d. %s (%s)\n", i+1, id, kind)
	}
	fmt.Println()
}

// PrintTypes prints the module header followed by every resource type
// present, with the number of resources under each. RT_MESSAGETABLE, the
// type this tool dumps, is highlighted.
func (r *Reporter) PrintTypes(types []pe.TypeCount) {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Printf("\n========== Resource Types (%d) ==========\n", len(types))

	r.printModuleInfo()

	if len(types) == 0 {
		fmt.Println("  no resources")
		return
	}

	fmt.Println(strings.Repeat("-", 50))
	for i, tc := range types {
		line := fmt.Sprintf("  %3d. %-24s %d resources", i+1, pe.TypeName(tc.Type), tc.Count)
		if tc.Type == msgtable.ResourceType {
			green := color.New(color.FgGreen)
			_, _ = green.Println(line)
		} else {
			fmt.Println(line)
		}
	}
	fmt.Println(strings.Repeat("-", 50))
}

// PrintError writes the single error line a failed run leaves on standard
// output.
func PrintError(err error) {
	red := color.New(color.FgRed, color.Bold)
	_, _ = red.Printf("ERROR: %v\n", err)
}

func (r *Reporter) printModuleInfo() {
	fmt.Printf("  %-12s: %s\n", "Module", r.module.Path())
	fmt.Printf("  %-12s: %s\n", "Size", formatSize(r.module.Size()))
	fmt.Printf("  %-12s: %s\n", "Architecture", r.module.Architecture())
}

func entryLine(entry msgtable.Entry) string {
	return fmt.Sprintf("%8x: %s", entry.ID, entry.Text)
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
