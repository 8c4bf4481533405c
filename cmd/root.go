package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/spf13/cobra"

	"quill/config"
	"quill/engine"
	"quill/llm"
	"quill/vault"
)

var (
	vaultDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill is a multi-provider AI chat for your notes",
	Long: `Quill is a terminal chat client that talks to OpenAI, Claude, Gemini
and locally running GPT4All models. It can inject context from a folder
of markdown notes into the conversation and keeps a history of every
exchange.`,
	Run: func(cmd *cobra.Command, args []string) {
		settings, store, logger := mustLoad()

		v, err := vault.NewDirVault(vaultDir)
		if err != nil {
			fmt.Printf("Error opening vault: %v\n", err)
			os.Exit(1)
		}

		preview := newConsolePreview(os.Stdout)
		notifier := engine.NewSingletonNotifier(func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})

		eng := engine.New(settings, store, v, logger, engine.Options{
			Preview:  preview,
			Notifier: notifier,
		})

		runChatLoop(eng, settings, store)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultDir, "vault", ".", "Folder of markdown notes used as chat context")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(assistantsCmd)
}

// mustLoad loads settings from the default location and builds the logger.
// Exits on unreadable settings since nothing works without them.
func mustLoad() (*config.Settings, config.Store, *slog.Logger) {
	path, err := config.DefaultSettingsPath()
	if err != nil {
		fmt.Printf("Error resolving settings path: %v\n", err)
		os.Exit(1)
	}
	store := config.NewFileStore(path)
	settings, err := store.Load()
	if err != nil {
		fmt.Printf("Error loading settings: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := clog.New(
		clog.WithWriter(os.Stderr),
		clog.WithLevel(level),
	)
	return settings, store, slog.New(handler)
}

func runChatLoop(eng *engine.Engine, settings *config.Settings, store config.Store) {
	view, err := settings.View(config.ViewModal)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Chatting with %s. /new starts over, /regen retries, /model switches, /quit exits.\n", view.ModelName)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return

		case line == "/new":
			if err := eng.NewConversation(config.ViewModal); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			fmt.Println("Started a new conversation.")

		case line == "/regen":
			_ = eng.Regenerate(context.Background(), config.ViewModal)

		case strings.HasPrefix(line, "/model "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/model "))
			info, ok := llm.Resolve(id)
			if !ok {
				fmt.Printf("Unknown model %q. Run 'quill models' to list them.\n", id)
				continue
			}
			view.ApplyModel(info)
			if err := store.Save(settings); err != nil {
				fmt.Printf("Error saving settings: %v\n", err)
			}
			fmt.Printf("Switched to %s.\n", info.Name)

		default:
			_ = eng.Generate(context.Background(), config.ViewModal, line)
		}
	}
}
