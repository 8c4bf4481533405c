package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearHistory bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past exchanges",
	Run: func(cmd *cobra.Command, args []string) {
		settings, store, _ := mustLoad()

		if clearHistory {
			settings.PromptHistory = nil
			settings.ModalSettings.HistoryIndex = -1
			settings.WidgetSettings.HistoryIndex = -1
			settings.FABSettings.HistoryIndex = -1
			if err := store.Save(settings); err != nil {
				fmt.Printf("Error saving settings: %v\n", err)
				return
			}
			fmt.Println("History cleared.")
			return
		}

		if len(settings.PromptHistory) == 0 {
			fmt.Println("No history yet.")
			return
		}
		for i, item := range settings.PromptHistory {
			prompt := item.Prompt
			if len(prompt) > 60 {
				prompt = prompt[:60] + "..."
			}
			fmt.Printf("  %3d  %-10s %-20s %s\n", i, item.Kind, item.ModelName, prompt)
		}
	},
}

func init() {
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "Delete all stored history")
}
