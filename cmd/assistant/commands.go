package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/memory"
	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	bootstrapfx "github.com/EternisAI/enchanted-assistant/pkg/bootstrap/fx"
	"github.com/EternisAI/enchanted-assistant/pkg/config"
	"github.com/EternisAI/enchanted-assistant/pkg/factstore/dynamostore"
	"github.com/EternisAI/enchanted-assistant/pkg/twitter"
	"github.com/EternisAI/enchanted-assistant/pkg/websearch"
)

type retrieveCommand struct {
	env      *environment
	Query    string `long:"query" description:"Free-text knowledge base query"`
	Type     string `long:"type" description:"personal_fact, memory, or any other tag for a knowledge base only search" default:"memory"`
	Category string `long:"category" description:"Fact category"`
	Key      string `long:"key" description:"Identity key (defaults to DEFAULT_IDENTITY_KEY)"`
}

func (c *retrieveCommand) Execute([]string) error {
	var service *memory.Service
	return c.env.run(func(ctx context.Context, conf *config.Config) error {
		fmt.Println(service.Retrieve(ctx, memory.RetrieveRequest{
			Query:       c.Query,
			Kind:        memory.ParseKind(c.Type),
			Category:    c.Category,
			IdentityKey: identityKey(c.Key, conf),
		}))
		return nil
	}, &service)
}

type storeCommand struct {
	env      *environment
	Content  string `long:"content" description:"Content to store" required:"true"`
	Type     string `long:"type" description:"personal_fact or a memory log tag" default:"memory"`
	Category string `long:"category" description:"Fact category"`
	Key      string `long:"key" description:"Identity key (defaults to DEFAULT_IDENTITY_KEY)"`
}

func (c *storeCommand) Execute([]string) error {
	var service *memory.Service
	return c.env.run(func(ctx context.Context, conf *config.Config) error {
		fmt.Println(service.Store(ctx, memory.StoreRequest{
			Content:     c.Content,
			Kind:        memory.ParseKind(c.Type),
			Category:    c.Category,
			IdentityKey: identityKey(c.Key, conf),
		}))
		return nil
	}, &service)
}

func identityKey(flagValue string, conf *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return conf.DefaultIdentityKey
}

type tweetCommand struct {
	env    *environment
	Action string `long:"action" description:"post, reply or delete" required:"true"`
	Text   string `long:"text" description:"Tweet text, or text to look for when deleting"`
	ID     string `long:"id" description:"Tweet id to reply to or delete"`
}

func (c *tweetCommand) Execute([]string) error {
	var client *twitter.Client
	return c.env.run(func(ctx context.Context, _ *config.Config) error {
		fmt.Println(client.Execute(ctx, twitter.Request{
			Action:  c.Action,
			Text:    c.Text,
			TweetID: c.ID,
		}))
		return nil
	}, &client)
}

type webSearchCommand struct {
	env   *environment
	Query string `long:"query" description:"Search query" required:"true"`
}

func (c *webSearchCommand) Execute([]string) error {
	var client *websearch.Client
	return c.env.run(func(ctx context.Context, _ *config.Config) error {
		fmt.Println(client.Run(ctx, c.Query))
		return nil
	}, &client)
}

type toolsCommand struct {
	env *environment
}

func (c *toolsCommand) Execute([]string) error {
	var registry *tools.ToolMapRegistry
	return c.env.run(func(context.Context, *config.Config) error {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(registry.Definitions())
	}, &registry)
}

type initTableCommand struct {
	env *environment
}

func (c *initTableCommand) Execute([]string) error {
	var store *dynamostore.Store
	return c.env.run(func(ctx context.Context, conf *config.Config) error {
		created, err := store.EnsureTable(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to ensure table")
		}
		if created {
			fmt.Printf("Created table %s\n", conf.MemoryTable)
		} else {
			fmt.Printf("Table %s already exists\n", conf.MemoryTable)
		}
		return nil
	}, &store)
}

type serveCommand struct {
	env *environment
}

// Execute runs until the MCP client disconnects or the process is signalled.
func (c *serveCommand) Execute([]string) error {
	conf, logger, err := c.env.setup()
	if err != nil {
		return err
	}

	app := bootstrapfx.NewApp(conf, logger, bootstrapfx.ServerModule)

	startCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return errors.Wrap(err, "failed to start MCP server")
	}

	signal := <-app.Wait()
	logger.Info("Shutting down", "signal", signal.Signal, "exit_code", signal.ExitCode)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		return errors.Wrap(err, "failed to stop MCP server")
	}
	if signal.ExitCode != 0 {
		return fmt.Errorf("MCP server exited with code %d", signal.ExitCode)
	}
	return nil
}
