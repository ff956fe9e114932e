package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a question from the stored articles",
		ArgsUsage: "<question>",
		Action:    askAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print each capability call",
			},
		},
	}
}

func askAction(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	desk, err := openDesk(c.Context, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	trace := desk.Ask(c.Context, question)
	if c.Bool("trace") {
		for i, step := range trace.Steps {
			if step.Err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%d. %s(%q) failed: %v\n", i+1, step.Call.Capability, step.Call.Input, step.Err)
				continue
			}
			fmt.Fprintf(c.App.ErrWriter, "%d. %s(%q)\n", i+1, step.Call.Capability, step.Call.Input)
		}
		if trace.Fallback {
			fmt.Fprintf(c.App.ErrWriter, "fallback: %s\n", trace.Reason)
		}
	}
	fmt.Fprintln(c.App.Writer, trace.Answer)
	return nil
}
