// Command shard-fetch downloads a list of URLs into one raw shard file
// (JSONL), extracting the page text and outbound links.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"

	"github.com/Luvata/data-tooling/internal/extract"
	"github.com/Luvata/data-tooling/internal/shard"
)

var (
	appName = "shard-fetch"
	logger  *logrus.Entry
)

func main() {
	host, _ := os.Hostname()
	rootLogger := logrus.New()
	rootLogger.SetFormatter(new(logrus.JSONFormatter))
	logger = rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	if err := makeApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to error")
		os.Exit(1)
	}
}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "fetch a url list into a raw shard jsonl file"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "urls",
			EnvVar: "SHARD_URLS",
			Usage:  "Path to a file with one url per line",
		},
		cli.StringFlag{
			Name:   "out",
			Value:  "shard.jsonl",
			EnvVar: "SHARD_OUT",
			Usage:  "Output shard file",
		},
		cli.Float64Flag{
			Name:   "rps",
			Value:  2,
			EnvVar: "SHARD_RPS",
			Usage:  "Maximum fetches per second",
		},
		cli.DurationFlag{
			Name:   "timeout",
			Value:  15 * time.Second,
			EnvVar: "SHARD_TIMEOUT",
			Usage:  "Per-request timeout",
		},
	}
	app.Action = runMain
	return app
}

func runMain(appCtx *cli.Context) error {
	urlsPath := appCtx.String("urls")
	if urlsPath == "" {
		return cli.NewExitError("url list file has not been specified", 1)
	}

	urls, err := readURLList(urlsPath)
	if err != nil {
		return err
	}

	out, err := os.Create(appCtx.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()

	client := &http.Client{Timeout: appCtx.Duration("timeout")}
	limiter := rate.NewLimiter(rate.Limit(appCtx.Float64("rps")), 1)
	enc := json.NewEncoder(out)

	fetched := 0
	for _, raw := range urls {
		if err := limiter.Wait(context.Background()); err != nil {
			return err
		}

		rec, err := fetchOne(client, raw)
		if err != nil {
			logger.WithFields(logrus.Fields{"url": raw, "err": err}).Warn("fetch failed")
			continue
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
		fetched++
	}

	logger.WithFields(logrus.Fields{
		"requested": len(urls),
		"fetched":   fetched,
		"out":       appCtx.String("out"),
	}).Info("shard written")
	return nil
}

func fetchOne(client *http.Client, raw string) (shard.Record, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return shard.Record{}, err
	}

	resp, err := client.Get(raw)
	if err != nil {
		return shard.Record{}, err
	}
	defer resp.Body.Close()

	// Error pages are not corpus material.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shard.Record{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	page, err := extract.Parse(resp.Body, base)
	if err != nil {
		return shard.Record{}, err
	}

	return shard.Record{
		URL:          raw,
		Title:        page.Title,
		Text:         page.Text,
		FetchTime:    time.Now().UTC(),
		ExternalURLs: page.ExternalURLs,
	}, nil
}

func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}
