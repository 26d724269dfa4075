// wasm-opt reads a module in the wast text format, runs the
// relooper jump-threading optimization over it, and prints the result.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ecoball/binaryen/pkg/jumpthreading"
	"github.com/ecoball/binaryen/pkg/passes"
	"github.com/ecoball/binaryen/pkg/wasm"
	"github.com/ecoball/binaryen/pkg/wast"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	dInput          bool // dump the parsed module before optimization
	noJumpThreading bool
	sequential      bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "wasm-opt: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wasm-opt [file]",
		Short: "wasm-opt optimizes modules in the wast text format",
		Long: `wasm-opt parses a module in a wat-flavored text format, applies the
relooper jump-threading optimization to every function, and prints the
optimized module.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return compile(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dInput, "dinput", false, "Dump the parsed module before optimization")
	rootCmd.Flags().BoolVar(&noJumpThreading, "no-jump-threading", false, "Disable the jump-threading pass")
	rootCmd.Flags().BoolVar(&sequential, "sequential", false, "Process functions one at a time")

	return rootCmd
}

func compile(filename string, out, errOut io.Writer) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	mod, err := wast.Parse(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	if dInput {
		wasm.NewPrinter(errOut).PrintModule(mod)
	}

	if !noJumpThreading {
		jt := jumpthreading.NewPass()
		jt.SetDiagnostics(errOut)
		runner := &passes.Runner{Sequential: sequential}
		if err := runner.Run(mod, jt); err != nil {
			return err
		}
	}

	wasm.NewPrinter(out).PrintModule(mod)
	return nil
}
