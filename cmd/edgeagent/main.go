package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/edgeagent", "cmd")

// CLI represents the main CLI structure
type CLI struct {
	ConfigFile    string `name:"config" short:"c" type:"path" help:"Config file, searched in the XDG config folders if not set"`
	LogLevel      string `name:"log-level" enum:"debug,info,warning,error" default:"error" help:"Log level"`
	Verbose       bool   `short:"v" help:"Print the agent events"`
	Trace         bool   `help:"Print the trace and the stats of each run"`
	Model         string `short:"m" help:"Model name, overrides the config"`
	MaxIterations int    `name:"max-iterations" help:"Maximum tool iterations per turn, overrides the config"`

	Chat   ChatCmd   `cmd:"" default:"1" help:"Start interactive chat (default)"`
	Ask    AskCmd    `cmd:"" help:"Ask a single question"`
	Tools  ToolsCmd  `cmd:"" help:"List available tools"`
	Config ConfigCmd `cmd:"" help:"Print the effective configuration"`

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("edgeagent"),
		kong.Description("Lightweight tool-using agent for small language models"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cli.setupLogger()

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) setupLogger() {
	xlog.SetFormatter(xlog.NewStringFormatter(c.Stderr()))

	level := xlog.ERROR
	switch c.LogLevel {
	case "debug":
		level = xlog.DEBUG
	case "info":
		level = xlog.INFO
	case "warning":
		level = xlog.WARNING
	}
	xlog.SetGlobalLogLevel(level)
}

// Stdin returns the input of the chat
func (c *CLI) Stdin() io.Reader {
	if c.stdin == nil {
		return os.Stdin
	}
	return c.stdin
}

// Stdout returns the writer for answers
func (c *CLI) Stdout() io.Writer {
	if c.stdout == nil {
		return os.Stdout
	}
	return c.stdout
}

// Stderr returns the writer for diagnostics
func (c *CLI) Stderr() io.Writer {
	if c.stderr == nil {
		return os.Stderr
	}
	return c.stderr
}
