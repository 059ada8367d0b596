package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/edgeagent/agent"
	"github.com/effective-security/xlog"
)

// REPL commands
const (
	cmdReset = "/reset"
	cmdExit  = "/exit"
	cmdQuit  = "/quit"
)

// ChatCmd starts the interactive chat
type ChatCmd struct {
	NoPreload bool `name:"no-preload" help:"Create the model on the first question"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	app, err := cli.newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !c.NoPreload {
		fmt.Fprintf(cli.Stderr(), "Loading model %s...\n", app.Config.Generator.Model)
		if err = app.Backend.Init(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.Stderr(), "Model loaded!")
	}

	fmt.Fprintf(cli.Stderr(), "%s. Type %s to clear the history, %s to quit.\n", app.describe(), cmdReset, cmdExit)
	return chatLoop(ctx, app.Agent, cli.Stdin(), cli.Stdout())
}

// AskCmd runs one turn of the agent
type AskCmd struct {
	Prompt []string `arg:"" help:"The question to ask"`
}

func (c *AskCmd) Run(cli *CLI) error {
	app, err := cli.newApp()
	if err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(c.Prompt, " "))
	if text == "" {
		return errors.New("prompt is required")
	}

	answer := app.Agent.Run(context.Background(), text)
	fmt.Fprintln(cli.Stdout(), answer)
	return nil
}

// chatLoop reads one user message per line until EOF, /exit or cancellation.
func chatLoop(ctx context.Context, ag *agent.Agent, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return errors.WithStack(scanner.Err())
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case cmdExit, cmdQuit:
			return nil
		case cmdReset:
			ag.Reset()
			fmt.Fprintln(out, "History cleared.")
			continue
		}

		res := ag.Execute(ctx, line)
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "turn_completed",
			"outcome", res.Outcome.String(),
			"iterations", res.Iterations,
		)
		fmt.Fprintf(out, "Agent: %s\n", res.Answer)
	}
}
