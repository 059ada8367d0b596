package main

import (
	"fmt"

	"github.com/effective-security/edgeagent/pkg/llmutils"
)

// ToolsCmd prints the tools as they are described to the model
type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		fmt.Fprintln(cli.Stdout(), "No tools enabled")
		return nil
	}
	fmt.Fprint(cli.Stdout(), llmutils.EnsureEndsWithNewline(registry.Describe()))
	return nil
}

// ConfigCmd prints the effective configuration
type ConfigCmd struct{}

func (c *ConfigCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	s, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprint(cli.Stdout(), llmutils.EnsureEndsWithNewline(s))
	return nil
}
