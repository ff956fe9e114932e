package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/poiesic/newsdesk/feed"
	"github.com/urfave/cli/v2"
)

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:      "feed",
		Usage:     "Poll the configured RSS/Atom feeds and ingest new items",
		ArgsUsage: "[feed name]",
		Action:    feedAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Poll once and exit instead of following the schedules",
			},
		},
	}
}

func feedAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	desk, err := openDesk(ctx, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	poller, err := desk.FeedPoller()
	if err != nil {
		return err
	}

	if !c.Bool("once") {
		return poller.Run(ctx)
	}

	var failed int
	if name := c.Args().First(); name != "" {
		report, err := poller.Poll(ctx, name)
		if report == nil {
			return err
		}
		failed += printReport(c, report)
	} else {
		for _, report := range poller.PollAll(ctx) {
			failed += printReport(c, report)
		}
	}
	desk.WaitForIndex()

	if failed > 0 {
		return fmt.Errorf("%d feeds failed", failed)
	}
	return nil
}

func printReport(c *cli.Context, report *feed.Report) int {
	if report.Err != nil {
		fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", report.Feed, report.Err)
		return 1
	}
	fmt.Fprintf(c.App.Writer, "%s: %d items, %d new, %d ingested, %d failed\n",
		report.Feed, report.Items, report.New, report.Ingested, report.Failed)
	return 0
}
