// Command tisvm runs an assembled object file on a grid (spec.md §6
// "Runner CLI"). With no -c/--config it behaves exactly like the
// single-block runner the spec describes: top edge slot 0 is a
// 255-byte input, bottom edge slot 0 a 255-byte output. -c widens
// that to an arbitrary grid wiring (a supplemented feature; see
// SPEC_FULL.md §4).
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tisvm/grid"
	"tisvm/internal/tisconfig"
	"tisvm/internal/tisio"
	"tisvm/isa"
	"tisvm/objfile"
)

const defaultMaxTicks = 1024
const defaultSlotBytes = 255

func main() {
	var (
		objectPath string
		configPath string
		debug      bool
		noPrompt   bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "tisvm",
		Short: "Run a TIS-family object file against a grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := tisio.NewLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			data, err := tisconfig.ReadBytecodeFile(objectPath)
			if err != nil {
				return err
			}
			file, err := objfile.Read(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("tisvm: reading object file: %w", err)
			}

			if debug && !file.HasDebug {
				return fmt.Errorf("tisvm: -d requires an object file with embedded debug info")
			}

			g, input, output, err := buildGrid(configPath, noPrompt)
			if err != nil {
				return err
			}
			g.Load(0, 0, file.Bytecode)

			log.Infof("loaded %d bytecode bytes (debug=%v)", len(file.Bytecode), file.HasDebug)

			maxTicks := defaultMaxTicks
			if configPath != "" {
				cfg, err := tisconfig.Load(configPath)
				if err != nil {
					return err
				}
				if cfg.MaxTicks > 0 {
					maxTicks = cfg.MaxTicks
				}
			}
			if debug {
				runDebugger(g, file, maxTicks)
			} else {
				ticks := grid.Run(g, maxTicks)
				log.Infof("ran %d ticks", ticks)
			}

			_ = input
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&objectPath, "object", "f", "", "input object file path (required)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "engage source-level single-stepping")
	cmd.Flags().BoolVarP(&noPrompt, "no-prompt", "r", false, "skip the initial stdin input prompt")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "grid wiring config (defaults to a single 1x1 block)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.MarkFlagRequired("object")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildGrid constructs either the spec's default single-block grid or
// one wired from a tisconfig file, returning the grid plus its top-of
// input/bottom-of-output byte slices for the default case.
func buildGrid(configPath string, noPrompt bool) (*grid.Grid, []byte, []byte, error) {
	if configPath == "" {
		g, err := grid.New(1, 1)
		if err != nil {
			return nil, nil, nil, err
		}
		input := make([]byte, defaultSlotBytes)
		output := make([]byte, defaultSlotBytes)
		if !noPrompt {
			promptForInput(input)
		}
		if err := g.AttachInput(isa.Up, 0, input); err != nil {
			return nil, nil, nil, err
		}
		if err := g.AttachOutput(isa.Dwn, 0, output); err != nil {
			return nil, nil, nil, err
		}
		return g, input, output, nil
	}

	cfg, err := tisconfig.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := grid.New(cfg.Width, cfg.Height)
	if err != nil {
		return nil, nil, nil, err
	}
	var lastOutput []byte
	for _, s := range cfg.Slots {
		side, err := s.Side()
		if err != nil {
			return nil, nil, nil, err
		}
		switch s.Kind {
		case "input":
			if err := g.AttachInput(side, s.Index, s.InputBuffer()); err != nil {
				return nil, nil, nil, err
			}
		case "output":
			buf := s.OutputBuffer()
			if err := g.AttachOutput(side, s.Index, buf); err != nil {
				return nil, nil, nil, err
			}
			lastOutput = buf
		default:
			return nil, nil, nil, fmt.Errorf("tisvm: slot kind must be \"input\" or \"output\", got %q", s.Kind)
		}
	}
	return g, nil, lastOutput, nil
}

// promptForInput reads whitespace-separated decimal byte values from
// stdin to seed buf, stopping at EOF or once buf is full.
func promptForInput(buf []byte) {
	fmt.Println("tisvm: enter input bytes (decimal, whitespace-separated), then EOF:")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Split(bufio.ScanWords)
	i := 0
	for i < len(buf) && scanner.Scan() {
		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			continue
		}
		buf[i] = byte(v)
		i++
	}
}

// runDebugger implements the supplemented source-level stepping
// commands described in SPEC_FULL.md §4: n/next, r/run, b <addr>,
// p/print, q/quit.
func runDebugger(g *grid.Grid, file objfile.File, maxTicks int) {
	b := g.Block(0, 0)
	scanner := bufio.NewScanner(os.Stdin)
	breakpoint := -1
	ticks := 0

	printState := func() {
		line := file.SourceLine(b.PC())
		fmt.Printf("tick=%d pc=%d line=%d acc=%d overflow=%v halted=%v\n",
			ticks, b.PC(), line, b.Acc(), b.Overflow(), b.Halted())
	}

	fmt.Println("tisvm debugger: n[ext], r[un], b <addr>, p[rint], q[uit]")
	printState()
	for ticks < maxTicks && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "n", "next":
			grid.Tick(g)
			ticks++
			printState()
		case "r", "run":
			for ticks < maxTicks && !b.Halted() {
				grid.Tick(g)
				ticks++
				if breakpoint >= 0 && b.PC() == breakpoint {
					break
				}
			}
			printState()
		case "b":
			if len(fields) < 2 {
				fmt.Println("usage: b <addr>")
				continue
			}
			addr, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Println("bad address:", fields[1])
				continue
			}
			breakpoint = addr
			fmt.Println("breakpoint set at", addr)
		case "p", "print":
			printState()
		case "q", "quit":
			return
		default:
			fmt.Println("unknown command:", fields[0])
		}
		if b.Halted() {
			fmt.Println("tisvm: block halted")
			return
		}
	}
}
