package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/llm"
	"quill/paths"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models quill can talk to",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available models:")
		for _, info := range llm.Models() {
			fmt.Printf("  %-28s %-10s %s\n", info.ID, info.Type, info.Name)
		}

		local, err := paths.ListLocalModels()
		if err != nil {
			fmt.Printf("\nCould not inspect local GPT4All models: %v\n", err)
			return
		}
		if len(local) == 0 {
			return
		}
		fmt.Println("\nInstalled GPT4All model files:")
		for _, name := range local {
			fmt.Printf("  %s\n", name)
		}
	},
}
