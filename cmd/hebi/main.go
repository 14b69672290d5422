// Command hebi is the reference CLI for the Hebi embedding library: running
// scripts, disassembling compiled bytecode, and a simple REPL. It is a thin
// collaborator over the root hebi package — every real capability (parsing,
// compiling, executing) lives in the library, not here.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hebi-lang/hebi/internal/embed/loader"
	"github.com/spf13/cobra"

	"github.com/hebi-lang/hebi"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hebi",
		Short:         "Run and inspect Hebi scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newDisCmd(), newReplCmd())
	return root
}

// newCancellableContext returns a context canceled on SIGINT/SIGTERM, so a
// runaway or long-awaiting script can be interrupted cleanly instead of
// requiring a hard kill.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func newRunCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a .hebi script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, err := hebi.Compile(args[0], string(src))
			if err != nil {
				return err
			}
			if root == "" {
				root = filepath.Dir(args[0])
			}
			ctx, cancel := newCancellableContext()
			defer cancel()
			c := hebi.NewContext(hebi.WithLoader(loader.New(root)))
			_, err = c.Run(ctx, prog)
			return err
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "root directory import paths resolve against (default: script's directory)")
	return cmd
}

func newDisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis <file>",
		Short: "Print the compiled bytecode for a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, err := hebi.Compile(args[0], string(src))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prog.Disassemble())
			return nil
		},
	}
}

func newReplCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = "."
			}
			ctx, cancel := newCancellableContext()
			defer cancel()
			c := hebi.NewContext(hebi.WithLoader(loader.New(root)))

			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(os.Stdout, "> ")
			for scanner.Scan() {
				line := scanner.Text()
				if line != "" {
					v, err := c.Eval(ctx, line)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
					} else if !v.IsNone() {
						fmt.Fprintln(os.Stdout, v.String())
					}
				}
				fmt.Fprint(os.Stdout, "> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "root directory import paths resolve against")
	return cmd
}
