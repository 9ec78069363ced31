package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seo-optimizer/llm-audit/analyzer"
	"github.com/seo-optimizer/llm-audit/audit"
	"github.com/seo-optimizer/llm-audit/fetcher"
	"github.com/seo-optimizer/llm-audit/report"
)

// CLI defines the command-line interface.
type CLI struct {
	URL string `arg:"" optional:"" help:"Page URL to audit."`

	File      string        `short:"f" help:"Audit a local HTML file instead of fetching the URL." type:"path"`
	Format    string        `short:"o" default:"text" enum:"text,json,yaml" help:"Output format (text, json, yaml)."`
	Relay     string        `help:"Relay URL prefix to fetch through; the page URL is appended query-escaped. Empty fetches directly."`
	Timeout   time.Duration `default:"15s" help:"Fetch timeout."`
	UserAgent string        `name:"user-agent" default:"SEOAnalyzer/1.0" help:"User-Agent sent with the request."`
	Verbose   bool          `short:"v" help:"Log fetch details to stderr."`
}

// Dependencies holds what the audit command needs to run.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// Run audits the page and prints the report.
func (c *CLI) Run(deps *Dependencies) error {
	if c.File == "" && c.URL == "" {
		return fmt.Errorf("a URL or --file is required")
	}

	var (
		result audit.Report
		err    error
	)
	if c.File != "" {
		result, err = c.auditFile()
	} else {
		result, err = c.auditURL(deps)
	}
	if err != nil {
		return err
	}

	return report.Render(deps.Stdout, result, c.Format)
}

func (c *CLI) auditURL(deps *Dependencies) (audit.Report, error) {
	f := fetcher.New(
		fetcher.WithRelay(c.Relay),
		fetcher.WithTimeout(c.Timeout),
		fetcher.WithUserAgent(c.UserAgent),
	)
	a := analyzer.New(f, analyzer.WithLogger(deps.Logger))

	ctx, cancel := context.WithTimeout(deps.Ctx, c.Timeout)
	defer cancel()

	result, err := a.Analyze(ctx, c.URL)
	if err != nil {
		return audit.Report{}, fmt.Errorf("failed to audit %s: %w", c.URL, err)
	}
	return result, nil
}

func (c *CLI) auditFile() (audit.Report, error) {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return audit.Report{}, fmt.Errorf("failed to read %s: %w", c.File, err)
	}

	url := strings.TrimSpace(c.URL)
	if url == "" {
		abs, err := filepath.Abs(c.File)
		if err != nil {
			abs = c.File
		}
		url = "file://" + filepath.ToSlash(abs)
	}

	return analyzer.New(nil).AnalyzeHTML(url, string(data))
}
