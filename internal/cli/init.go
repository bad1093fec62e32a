package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/lolpig/internal/render"
)

const (
	sentinelStart = "/* lolpig:start */"
	sentinelEnd   = "/* lolpig:end */"
)

// newInitCommand implements `lolpig init`, which writes (or updates) the
// LOLPIG_DEF macro definition in a header.
func newInitCommand(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the LOLPIG_DEF macro header",
		Long: `Write the LOLPIG_DEF macro definition to a header. The block is wrapped
in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

path defaults to ./` + render.DefaultDefHeader + `.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(a.stdout, section)
				return nil
			}

			path := render.DefaultDefHeader
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(a.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(a.stderr, "wrote LOLPIG_DEF to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the full sentinel-wrapped macro block.
func generateSection() string {
	body := `/*
 * LOLPIG_DEF(name, (doc)) marks the next declaration for export to Python.
 *
 *   LOLPIG_DEF(norm, (
 *       Returns the euclidean norm of a sequence.
 *       ))
 *   PyObject* norm(PyObject* args);
 *
 * name is the python target: "func", "Class", "Class.method", or
 * "Class.attr@get" / "Class.attr@set" for property accessors. The macro
 * expands to nothing; lolpig reads it from the source.
 */
#ifndef LOLPIG_DEF
#define LOLPIG_DEF(name, doc)
#endif`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
