package cmd

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"quill/config"
	"quill/llm"
)

var (
	assistantName         string
	assistantModel        string
	assistantInstructions string
)

var assistantsCmd = &cobra.Command{
	Use:   "assistants",
	Short: "List the OpenAI assistants on your account",
	Run: func(cmd *cobra.Command, args []string) {
		settings, store, _ := mustLoad()
		adapter := assistantsAdapter(settings)

		assistants, err := adapter.ListAssistants(context.Background())
		if err != nil {
			fmt.Printf("Error listing assistants: %v\n", err)
			os.Exit(1)
		}
		if len(assistants) == 0 {
			fmt.Println("No assistants found.")
			return
		}

		settings.Assistants = settings.Assistants[:0]
		for _, a := range assistants {
			name := ""
			if a.Name != nil {
				name = *a.Name
			}
			fmt.Printf("  %-32s %-16s %s\n", a.ID, a.Model, name)
			settings.Assistants = append(settings.Assistants, config.AssistantRecord{
				ID:    a.ID,
				Name:  name,
				Model: a.Model,
			})
		}
		if err := store.Save(settings); err != nil {
			fmt.Printf("Error saving settings: %v\n", err)
		}
	},
}

var assistantsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new assistant",
	Run: func(cmd *cobra.Command, args []string) {
		settings, _, _ := mustLoad()
		adapter := assistantsAdapter(settings)

		req := openai.AssistantRequest{
			Model: assistantModel,
			Name:  &assistantName,
		}
		if assistantInstructions != "" {
			req.Instructions = &assistantInstructions
		}
		created, err := adapter.CreateAssistant(context.Background(), req)
		if err != nil {
			fmt.Printf("Error creating assistant: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created assistant %s\n", created.ID)
	},
}

var assistantsDeleteCmd = &cobra.Command{
	Use:   "delete <assistant-id>",
	Short: "Delete an assistant",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings, _, _ := mustLoad()
		adapter := assistantsAdapter(settings)

		if err := adapter.DeleteAssistant(context.Background(), args[0]); err != nil {
			fmt.Printf("Error deleting assistant: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Deleted.")
	},
}

func assistantsAdapter(settings *config.Settings) *llm.AssistantsAdapter {
	key := settings.KeyFor(llm.TypeOpenAI)
	if key == "" {
		fmt.Println("No OpenAI API key configured.")
		os.Exit(1)
	}
	return llm.NewAssistantsAdapter(llm.AdapterConfig{
		APIKey:  key,
		Timeout: llm.DefaultTimeout,
	})
}

func init() {
	assistantsCreateCmd.Flags().StringVar(&assistantName, "name", "", "Assistant name")
	assistantsCreateCmd.Flags().StringVar(&assistantModel, "model", "gpt-4o", "Model the assistant runs on")
	assistantsCreateCmd.Flags().StringVar(&assistantInstructions, "instructions", "", "System instructions")
	_ = assistantsCreateCmd.MarkFlagRequired("name")

	assistantsCmd.AddCommand(assistantsCreateCmd)
	assistantsCmd.AddCommand(assistantsDeleteCmd)
}
