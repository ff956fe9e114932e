package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Analyze and store one article, or a batch of URLs",
		ArgsUsage: "<url> <title> | --text <text> <title> | --batch <file>",
		Action:    ingestAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "text",
				Usage: "Treat the first argument as the article text instead of a URL",
			},
			&cli.StringFlag{
				Name:  "batch",
				Usage: "File with one \"<url> <title>\" per line",
			},
		},
	}
}

func ingestAction(c *cli.Context) error {
	var requests []ingestion.Request
	if path := c.String("batch"); path != "" {
		var err error
		if requests, err = readBatch(path); err != nil {
			return err
		}
	} else {
		if c.NArg() != 2 {
			return fmt.Errorf("expected 2 arguments, got %d", c.NArg())
		}
		source := core.SourceFromURL(c.Args().Get(0))
		if c.Bool("text") {
			source = core.SourceFromText(c.Args().Get(0))
		}
		requests = []ingestion.Request{{Title: c.Args().Get(1), Source: source}}
	}

	desk, err := openDesk(c.Context, c)
	if err != nil {
		return err
	}
	defer desk.Close()

	var failed int
	for _, result := range desk.IngestMany(c.Context, requests) {
		if result.Err != nil {
			failed++
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", result.Request.Title, result.Err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "Article %d: %s\n", result.Ack.ArticleID, result.Request.Title)
	}

	// let queued index jobs finish before the index is closed
	desk.WaitForIndex()

	if failed > 0 {
		return fmt.Errorf("%d of %d ingestions failed", failed, len(requests))
	}
	return nil
}

func readBatch(path string) ([]ingestion.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var requests []ingestion.Request
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		url, title, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected \"<url> <title>\"", path, line)
		}
		requests = append(requests, ingestion.Request{
			Title:  strings.TrimSpace(title),
			Source: core.SourceFromURL(url),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("%s: no requests", path)
	}
	return requests, nil
}
