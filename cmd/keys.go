package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/engine"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Check whether the configured API keys are accepted",
	Run: func(cmd *cobra.Command, args []string) {
		settings, store, logger := mustLoad()

		if !settings.HasAnyKey() {
			fmt.Println("No API keys configured.")
			fmt.Println("Set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY, or add them to the settings file.")
			os.Exit(1)
		}

		eng := engine.New(settings, store, nil, logger, engine.Options{})
		statuses := eng.CheckKeys(context.Background())
		for provider, status := range statuses {
			fmt.Printf("  %-8s %s\n", provider, status)
		}
	},
}
