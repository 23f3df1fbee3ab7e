package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			dir = filepath.Clean(dir)

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			body, err := yaml.Marshal(starterConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, body, 0o600); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized %s\n", cfgPath)
			return nil
		},
	}

	return cmd
}

func starterConfig() map[string]any {
	return map[string]any{
		"telegram": map[string]any{
			"bot_token":        "",
			"allowed_user_ids": []string{"123456789"},
			"poll_timeout":     "30s",
			"task_timeout":     "2m",
			"max_concurrency":  3,
		},
		"gigachat": map[string]any{
			"auth_key":        "",
			"scope":           "GIGACHAT_API_PERS",
			"model":           "GigaChat:latest",
			"temperature":     0.5,
			"request_timeout": "30s",
		},
		"history": map[string]any{
			"dir": "history",
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
	}
}
