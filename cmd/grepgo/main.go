// Command grepgo is a fast recursive content-search tool.
//
// Usage:
//
//	grepgo [flags] PATTERN [PATH...]
//
// Exit codes follow grep: 0 when matches were found, 1 when none were,
// 2 on error.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hupe1980/grepgo"
	"github.com/hupe1980/grepgo/model"
)

const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

type cliFlags struct {
	searchMode       string
	algorithm        string
	caseInsensitive  bool
	extensions       []string
	excludeExts      []string
	searchAllFiles   bool
	textOnly         bool
	fileTypes        string
	safetyPolicy     string
	maxSize          int64
	skipBinary       bool
	searchCompressed bool
	count            bool
	filesWithMatches bool
	before           int
	after            int
	contextBoth      int
	threads          int
	followSymlinks   bool
	maxDepth         int
	configPath       string
	noColor          bool
	verbose          bool
	quiet            bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errNoMatches) {
			return exitNoMatch
		}
		fmt.Fprintf(os.Stderr, "grepgo: %v\n", err)
		return exitError
	}
	return exitMatch
}

var errNoMatches = errors.New("no matches")

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:           "grepgo [flags] PATTERN [PATH...]",
		Short:         "Recursively search file trees for a pattern",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, args[0], args[1:])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.searchMode, "mode", "m", "text", "search mode: text, regex or word")
	f.StringVar(&flags.algorithm, "algorithm", "boyer-moore", "matcher: boyer-moore, regex or simple")
	f.BoolVarP(&flags.caseInsensitive, "ignore-case", "i", false, "case-insensitive matching")
	f.StringSliceVarP(&flags.extensions, "extensions", "e", nil, "only search these extensions")
	f.StringSliceVar(&flags.excludeExts, "exclude-extensions", nil, "never search these extensions")
	f.BoolVar(&flags.searchAllFiles, "search-all-files", false, "search every file type")
	f.BoolVar(&flags.textOnly, "text-only", false, "only search plain-text file types")
	f.StringVar(&flags.fileTypes, "file-types", "default", "type strategy: default, comprehensive, conservative or performance")
	f.StringVar(&flags.safetyPolicy, "safety-policy", "default", "resource preset: default, conservative or performance")
	f.Int64Var(&flags.maxSize, "max-size", 0, "skip files larger than this many bytes")
	f.BoolVar(&flags.skipBinary, "skip-binary", false, "sniff and skip binary files")
	f.BoolVarP(&flags.searchCompressed, "search-compressed", "z", false, "search inside gzip, zstd and lz4 files")
	f.BoolVarP(&flags.count, "count", "c", false, "print only the total match count")
	f.BoolVarP(&flags.filesWithMatches, "files-with-matches", "l", false, "print only paths with matches")
	f.IntVarP(&flags.before, "before-context", "B", 0, "lines of context before each match")
	f.IntVarP(&flags.after, "after-context", "A", 0, "lines of context after each match")
	f.IntVarP(&flags.contextBoth, "context", "C", 0, "lines of context around each match")
	f.IntVarP(&flags.threads, "threads", "j", 0, "worker count (default: all cores)")
	f.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow symbolic links")
	f.IntVar(&flags.maxDepth, "max-depth", 0, "limit directory recursion depth")
	f.StringVar(&flags.configPath, "config", "", "config file (default: .grepgo.yaml)")
	f.BoolVar(&flags.noColor, "no-color", false, "disable match highlighting")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "log scan progress to stderr")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress skip and failure diagnostics")

	cmd.AddCommand(newListCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "list [flags] [PATH...]",
		Short: "List files with their classification and size, without searching",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&flags.extensions, "extensions", "e", nil, "only list these extensions as searchable")
	f.StringSliceVar(&flags.excludeExts, "exclude-extensions", nil, "classify these extensions as excluded")
	f.BoolVar(&flags.searchAllFiles, "search-all-files", false, "classify every file type as searchable")
	f.BoolVar(&flags.textOnly, "text-only", false, "only classify plain-text file types as searchable")
	f.StringVar(&flags.fileTypes, "file-types", "default", "type strategy: default, comprehensive, conservative or performance")
	f.StringVar(&flags.safetyPolicy, "safety-policy", "default", "resource preset: default, conservative or performance")
	f.Int64Var(&flags.maxSize, "max-size", 0, "classify files larger than this many bytes as skipped")
	f.BoolVar(&flags.skipBinary, "skip-binary", false, "sniff contents and classify binary files as excluded")
	f.BoolVarP(&flags.searchCompressed, "search-compressed", "z", false, "classify gzip, zstd, lz4 and archive files as searchable")
	f.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow symbolic links")
	f.IntVar(&flags.maxDepth, "max-depth", 0, "limit directory recursion depth")
	f.BoolVar(&flags.verbose, "verbose", false, "include the skip reason for excluded files")

	return cmd
}

func runList(cmd *cobra.Command, flags *cliFlags, paths []string) error {
	var opts []grepgo.Option
	if len(flags.extensions) > 0 {
		opts = append(opts, grepgo.WithIncludeExtensions(flags.extensions...))
	}
	if len(flags.excludeExts) > 0 {
		opts = append(opts, grepgo.WithExcludeExtensions(flags.excludeExts...))
	}
	if flags.searchAllFiles {
		opts = append(opts, grepgo.WithSearchAllFiles())
	}
	if flags.textOnly {
		opts = append(opts, grepgo.WithTextOnly())
	}
	opts = append(opts,
		grepgo.WithFileTypes(flags.fileTypes),
		grepgo.WithSafetyPolicy(flags.safetyPolicy),
	)
	if flags.maxSize > 0 {
		opts = append(opts, grepgo.WithMaxFileSize(flags.maxSize))
	}
	if flags.skipBinary {
		opts = append(opts, grepgo.WithSkipBinary())
	}
	if flags.searchCompressed {
		opts = append(opts, grepgo.WithSearchCompressed())
	}
	if flags.followSymlinks {
		opts = append(opts, grepgo.WithFollowSymlinks())
	}
	if flags.maxDepth > 0 {
		opts = append(opts, grepgo.WithMaxDepth(flags.maxDepth))
	}

	result, err := grepgo.List(cmd.Context(), paths, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range result.Entries {
		if flags.verbose && e.Reason != "" {
			fmt.Fprintf(out, "%-18s %10d  %s  (%s)\n", e.Class, e.Size, e.Path, e.Reason)
			continue
		}
		fmt.Fprintf(out, "%-18s %10d  %s\n", e.Class, e.Size, e.Path)
	}
	fmt.Fprintf(out, "%d files (%d bytes), %d searchable (%d bytes)\n",
		result.TotalFiles, result.TotalSize, result.SearchableFiles, result.SearchableSize)
	return nil
}

func runSearch(cmd *cobra.Command, flags *cliFlags, pattern string, paths []string) error {
	opts, err := buildOptions(cmd, flags)
	if err != nil {
		return err
	}

	scanner, err := grepgo.New(pattern, opts...)
	if err != nil {
		return err
	}
	for _, w := range scanner.Warnings() {
		fmt.Fprintf(os.Stderr, "grepgo: warning: %s\n", w)
	}

	result, err := scanner.Scan(cmd.Context(), paths...)
	if err != nil {
		return err
	}

	if !flags.quiet {
		printDiagnostics(result.Diagnostics)
	}

	switch {
	case flags.count:
		fmt.Fprintln(cmd.OutOrStdout(), result.Count)
		if result.Count == 0 {
			return errNoMatches
		}
	case flags.filesWithMatches:
		for _, path := range result.Files {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		if len(result.Files) == 0 {
			return errNoMatches
		}
	default:
		printMatches(cmd, flags, result.Matches)
		if len(result.Matches) == 0 {
			return errNoMatches
		}
	}
	return nil
}

func buildOptions(cmd *cobra.Command, flags *cliFlags) ([]grepgo.Option, error) {
	var opts []grepgo.Option

	// Config file first so CLI flags override it.
	configPath := flags.configPath
	if configPath == "" {
		configPath = grepgo.FindConfig()
	}
	if configPath != "" {
		cfg, err := grepgo.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, cfg.Options()...)
	}

	// Defaulted string flags only override the config file when the user
	// set them explicitly.
	changed := cmd.Flags().Changed
	if changed("mode") {
		opts = append(opts, grepgo.WithSearchMode(flags.searchMode))
	}
	if changed("algorithm") {
		opts = append(opts, grepgo.WithAlgorithm(flags.algorithm))
	}
	if changed("file-types") {
		opts = append(opts, grepgo.WithFileTypes(flags.fileTypes))
	}
	if changed("safety-policy") {
		opts = append(opts, grepgo.WithSafetyPolicy(flags.safetyPolicy))
	}
	if flags.caseInsensitive {
		opts = append(opts, grepgo.WithCaseInsensitive())
	}
	if len(flags.extensions) > 0 {
		opts = append(opts, grepgo.WithIncludeExtensions(flags.extensions...))
	}
	if len(flags.excludeExts) > 0 {
		opts = append(opts, grepgo.WithExcludeExtensions(flags.excludeExts...))
	}
	if flags.searchAllFiles {
		opts = append(opts, grepgo.WithSearchAllFiles())
	}
	if flags.textOnly {
		opts = append(opts, grepgo.WithTextOnly())
	}
	if flags.maxSize > 0 {
		opts = append(opts, grepgo.WithMaxFileSize(flags.maxSize))
	}
	if flags.skipBinary {
		opts = append(opts, grepgo.WithSkipBinary())
	}
	if flags.searchCompressed {
		opts = append(opts, grepgo.WithSearchCompressed())
	}
	if flags.count {
		opts = append(opts, grepgo.WithCountOnly())
	}
	if flags.filesWithMatches {
		opts = append(opts, grepgo.WithFilesWithMatches())
	}
	before, after := flags.before, flags.after
	if flags.contextBoth > 0 {
		before, after = flags.contextBoth, flags.contextBoth
	}
	if before > 0 || after > 0 {
		opts = append(opts, grepgo.WithContextLines(before, after))
	}
	if flags.threads > 0 {
		opts = append(opts, grepgo.WithWorkers(flags.threads))
	}
	if flags.followSymlinks {
		opts = append(opts, grepgo.WithFollowSymlinks())
	}
	if flags.maxDepth > 0 {
		opts = append(opts, grepgo.WithMaxDepth(flags.maxDepth))
	}
	if flags.verbose {
		opts = append(opts, grepgo.WithLogger(grepgo.NewTextLogger(slog.LevelDebug)))
	}

	return opts, nil
}

func printMatches(cmd *cobra.Command, flags *cliFlags, matches []model.SearchMatch) {
	out := cmd.OutOrStdout()
	useColor := !flags.noColor && isatty.IsTerminal(os.Stdout.Fd())

	pathColor := color.New(color.FgMagenta)
	lineColor := color.New(color.FgGreen)
	matchColor := color.New(color.FgRed, color.Bold)

	for _, m := range matches {
		for _, c := range m.ContextBefore {
			fmt.Fprintf(out, "%s-%d- %s\n", m.Path, c.Line, c.Text)
		}
		if useColor {
			highlighted := highlightLine(m, matchColor)
			fmt.Fprintf(out, "%s:%s: %s\n",
				pathColor.Sprint(m.Path),
				lineColor.Sprintf("%d", m.Line),
				highlighted,
			)
		} else {
			fmt.Fprintf(out, "%s:%d: %s\n", m.Path, m.Line, m.LineText)
		}
		for _, c := range m.ContextAfter {
			fmt.Fprintf(out, "%s-%d- %s\n", m.Path, c.Line, c.Text)
		}
	}
}

// highlightLine colors the matched byte range within its line.
func highlightLine(m model.SearchMatch, c *color.Color) string {
	line := m.LineText
	start := m.Column
	end := start + len(m.Text)
	if start < 0 || end > len(line) || start > end {
		return line
	}
	var b strings.Builder
	b.WriteString(line[:start])
	b.WriteString(c.Sprint(line[start:end]))
	b.WriteString(line[end:])
	return b.String()
}

func printDiagnostics(diags []model.Diagnostic) {
	for _, d := range diags {
		if d.Status == model.StatusFailed {
			fmt.Fprintf(os.Stderr, "grepgo: %s: %s: %v\n", d.Path, d.Reason, d.Err)
		}
	}
}
