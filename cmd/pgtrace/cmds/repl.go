package cmds

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	liner "github.com/go-delve/liner"
	"github.com/spf13/cobra"

	"github.com/knazir/pgtrace/internal/trieindex"
	"github.com/knazir/pgtrace/pkg/normalizer"
)

// newReplCmd builds an interactive, one-Execution-Point-at-a-time
// stepper over an already-produced trace, the same line-editing REPL
// shape delve's own terminal frontend is built on.
func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl <basename>",
		Short: "Interactively step through a normalized trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			basename := args[0]

			traceBytes, err := os.ReadFile(basename + ".vgtrace")
			if err != nil {
				return fmt.Errorf("read trace file: %w", err)
			}
			source, err := readSource(basename)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			ft, err := normalizer.Normalize(ctx, traceBytes, source, normalizer.Options{})
			if err != nil {
				return err
			}

			return runRepl(ft)
		},
	}
	return cmd
}

func runRepl(ft *normalizer.FinalTrace) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	index := trieindex.Build(ft)
	pos := 0

	fmt.Printf("%d execution points loaded. Type `help` for commands.\n", len(ft.Trace))
	for {
		input, err := line.Prompt("(pgtrace) ")
		if err != nil {
			return nil // EOF or Ctrl-D/Ctrl-C: exit cleanly
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			fmt.Println("commands: next, back, goto <n>, locals, find <prefix>, quit")
		case "next":
			pos = step(ft, pos, 1)
		case "back":
			pos = step(ft, pos, -1)
		case "goto":
			if len(fields) == 2 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					pos = clamp(n, len(ft.Trace))
				}
			}
			printPoint(ft, pos)
		case "locals":
			printLocals(ft, pos)
		case "find":
			if len(fields) == 2 {
				for _, name := range index.Find(fields[1]) {
					fmt.Println(name)
				}
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Println("unknown command; type `help`")
		}
	}
}

func step(ft *normalizer.FinalTrace, pos, delta int) int {
	pos = clamp(pos+delta, len(ft.Trace))
	printPoint(ft, pos)
	return pos
}

func clamp(n, length int) int {
	if length == 0 {
		return 0
	}
	if n < 0 {
		return 0
	}
	if n >= length {
		return length - 1
	}
	return n
}

func printPoint(ft *normalizer.FinalTrace, pos int) {
	if pos >= len(ft.Trace) {
		fmt.Println("(no points)")
		return
	}
	p := ft.Trace[pos]
	fmt.Printf("[%d/%d] line %d  %s  func=%s\n", pos+1, len(ft.Trace), p.Line, p.Event, p.FuncName)
}

func printLocals(ft *normalizer.FinalTrace, pos int) {
	if pos >= len(ft.Trace) {
		return
	}
	p := ft.Trace[pos]
	for _, frame := range p.StackToRender {
		fmt.Printf("frame %s (%s):\n", frame.FuncName, frame.FrameID)
		for _, name := range frame.OrderedVarnames {
			enc, _ := json.Marshal(frame.EncodedLocals[name])
			fmt.Printf("  %s = %s\n", name, enc)
		}
	}
}
