package main

import (
	"context"
	stderrs "errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/bootstrap"
	bootstrapfx "github.com/EternisAI/enchanted-assistant/pkg/bootstrap/fx"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
)

type globalOptions struct {
	Verbose  bool `short:"v" long:"verbose" description:"Log at debug level"`
	PrintEnv bool `long:"print-env" description:"Log the effective environment on startup"`
}

type environment struct {
	opts *globalOptions
}

func (e *environment) setup() (*config.Config, *log.Logger, error) {
	conf, err := config.LoadConfig(e.opts.PrintEnv)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load config")
	}
	level := conf.LogLevel
	if e.opts.Verbose {
		level = "debug"
	}
	return conf, bootstrap.NewLogger(level), nil
}

// run starts an app, populates targets from it and calls fn. Tool output goes
// to stdout, logs go to stderr.
func (e *environment) run(fn func(ctx context.Context, conf *config.Config) error, targets ...any) error {
	conf, logger, err := e.setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrapfx.NewApp(conf, logger, fx.Populate(targets...))
	if err := app.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start application")
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop application", "error", err)
		}
	}()

	return fn(ctx, conf)
}

func main() {
	opts := &globalOptions{}
	env := &environment{opts: opts}

	parser := flags.NewParser(opts, flags.Default)
	parser.ShortDescription = "Personal assistant memory, search and posting tools"

	commands := []struct {
		name, short, long string
		data              any
	}{
		{"retrieve", "Retrieve memories", "Query the knowledge base and stored facts or memory logs", &retrieveCommand{env: env}},
		{"store", "Store a memory", "Store a personal fact or append a memory log entry", &storeCommand{env: env}},
		{"tweet", "Post, reply or delete", "Run one post_tweet action against X", &tweetCommand{env: env}},
		{"websearch", "Search the web", "Run a Serper web search", &webSearchCommand{env: env}},
		{"tools", "List tool definitions", "Print the registered tool definitions as JSON", &toolsCommand{env: env}},
		{"serve", "Serve tools over MCP", "Expose the tools as an MCP server on stdio", &serveCommand{env: env}},
		{"init-table", "Create the DynamoDB table", "Create the memory table if it does not exist and wait until it is active", &initTableCommand{env: env}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if stderrs.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
