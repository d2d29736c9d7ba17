// Command tisasm assembles a source file into an object file (spec.md
// §6 "Assembler CLI").
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tisvm/asm"
	"tisvm/internal/tisio"
	"tisvm/objfile"
)

func main() {
	var (
		sourcePath string
		outPath    string
		verbose    bool
		noDebug    bool
	)

	cmd := &cobra.Command{
		Use:   "tisasm",
		Short: "Assemble a TIS-family source file into an object file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := tisio.NewLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			src, err := os.ReadFile(sourcePath)
			if err != nil {
				return fmt.Errorf("tisasm: %w", err)
			}

			result, tokens, err := asm.Assemble(string(src), func(line int, format string, args ...any) {
				log.Warnf("%s:%d: %s", sourcePath, line, fmt.Sprintf(format, args...))
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "tisasm: assembly failed:", err)
				fmt.Fprintln(os.Stderr, "tisasm: token stream:")
				asm.Dump(tokens, func(s string) { fmt.Fprintln(os.Stderr, "  "+s) })
				os.Exit(1)
			}

			file := objfile.File{
				Bytecode:  result.Bytecode,
				HasDebug:  !noDebug,
				Source:    string(src),
				LineTable: result.LineTable,
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("tisasm: %w", err)
			}
			defer out.Close()

			if err := objfile.Write(out, file); err != nil {
				return fmt.Errorf("tisasm: writing object file: %w", err)
			}

			log.Infof("wrote %d bytecode bytes to %s", len(result.Bytecode), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "source", "f", "", "input assembly source path (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output object file path (required)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.Flags().BoolVar(&noDebug, "no-debug", false, "emit a raw object file without embedded source/line-table")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("out")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
