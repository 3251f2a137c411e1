// Command gridwalk is the terminal SQL/CSV/JSON explorer's entry point: it
// wires BufferManager, the ActionDispatcher, and the history log together,
// then either runs one query headlessly (--query) or drives a line-oriented
// interactive loop over stdin/stdout. Raw-mode per-keystroke terminal
// rendering is left to whatever real terminal driver embeds this engine;
// this loop exercises the same Buffer/Dispatcher/History path a TUI would.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gridwalk-cli/gridwalk"
	"github.com/gridwalk-cli/gridwalk/internal/buffer"
	"github.com/gridwalk-cli/gridwalk/internal/history"
	"github.com/gridwalk-cli/gridwalk/internal/render"
	"github.com/gridwalk-cli/gridwalk/internal/table"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	exitOK          = 0
	exitLoadError   = 1
	exitQueryError  = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	queryFlag := flag.String("query", "", "execute a SQL statement against the first buffer and exit")
	apiFlag := flag.String("api", "", "optional remote data source URL (http(s):// or s3://) recognized by the loader")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: gridwalk [file...] [--query TEXT] [--api URL]")
		flag.PrintDefaults()
	}
	flag.Parse()
	files := flag.Args()

	logger, err := buildLogger(gridwalk.DefaultConfig().Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		return exitLoadError
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := gridwalk.DefaultConfig()

	db, err := table.OpenDuckDB(ctx, cfg.DuckDB)
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return exitLoadError
	}
	defer db.Close()

	hist, err := history.Open(cfg.History)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open history:", err)
		return exitLoadError
	}

	mgr := buffer.NewManager(cfg, db)

	if *apiFlag != "" {
		files = append(files, *apiFlag)
	}
	for _, path := range files {
		if err := mgr.Open(ctx, path); err != nil {
			fmt.Fprintln(os.Stderr, describeError(err))
			return exitLoadError
		}
	}

	if *queryFlag != "" {
		return runHeadlessQuery(ctx, mgr, hist, *queryFlag)
	}

	return runInteractive(ctx, mgr, hist)
}

func buildLogger(cfg gridwalk.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func describeError(err error) string {
	var gerr *gridwalk.GridError
	if errors.As(err, &gerr) {
		return gerr.UserMessage()
	}
	return err.Error()
}

func runHeadlessQuery(ctx context.Context, mgr *buffer.Manager, hist interface {
	Append(history.Entry) error
}, query string) int {
	active := mgr.ActiveBuffer()
	if active == nil {
		fmt.Fprintln(os.Stderr, "no buffer loaded; pass a file argument before --query")
		return exitLoadError
	}
	if err := active.ExecuteQuery(ctx, query); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return exitQueryError
	}
	if err := hist.Append(history.Entry{Query: query, Source: active.Path()}); err != nil {
		zap.S().Warnw("failed to append history entry", "err", err)
	}

	v := active.View()
	if err := render.Table(ctx, os.Stdout, v, active.LineNumbers(), 0, v.RowCount()); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		return exitQueryError
	}
	fmt.Println(render.Status(v))
	return exitOK
}

// runInteractive reads one line at a time: a line starting with ":" is a
// buffer/session command (:n, :p, :q, :open <path>), anything else is
// executed as a query against the active buffer. This stands in for the key
// stream a real terminal renderer would feed through internal/dispatch.
func runInteractive(ctx context.Context, mgr *buffer.Manager, hist *history.Store) int {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprintln(os.Stdout, "gridwalk ready. Enter a query, or :n/:p/:open <path>/:q.")

	for {
		if ctx.Err() != nil {
			return exitInterrupted
		}
		active := mgr.ActiveBuffer()
		if active != nil {
			fmt.Fprintf(os.Stdout, "[%s]> ", active.Path())
		} else {
			fmt.Fprint(os.Stdout, "[no buffer]> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == ":q" || line == ":quit":
			return exitOK
		case line == ":n":
			mgr.Next()
		case line == ":p":
			mgr.Prev()
		case strings.HasPrefix(line, ":open "):
			path := strings.TrimSpace(strings.TrimPrefix(line, ":open "))
			if err := mgr.Open(ctx, path); err != nil {
				fmt.Fprintln(os.Stderr, describeError(err))
			}
		default:
			active := mgr.ActiveBuffer()
			if active == nil {
				fmt.Fprintln(os.Stderr, "no buffer loaded; use :open <path>")
				continue
			}
			if err := active.ExecuteQuery(ctx, line); err != nil {
				fmt.Fprintln(os.Stderr, describeError(err))
				continue
			}
			if err := hist.Append(history.Entry{Query: line, Source: active.Path()}); err != nil {
				zap.S().Warnw("failed to append history entry", "err", err)
			}
			v := active.View()
			if err := render.Table(ctx, os.Stdout, v, active.LineNumbers(), 0, v.RowCount()); err != nil {
				fmt.Fprintln(os.Stderr, describeError(err))
				continue
			}
			fmt.Println(render.Status(v))
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoadError
	}
	return exitOK
}
