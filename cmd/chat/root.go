package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rickyrobinett/basic-chat/internal/client"
	"github.com/rickyrobinett/basic-chat/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal chat client for the basic-chat relay",
	Long: `chat is a terminal client for the basic-chat relay service. It keeps
your conversation locally and streams replies token by token.

Commands inside the chat:
  /system <text>   set the system-prompt override
  /system          show the current override
  /system clear    remove the override
  /clear           clear the conversation
  /quit            exit`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().String("relay-url", "http://localhost:8080", "Base URL of the relay service")
	rootCmd.Flags().Bool("verbose", false, "Mirror logs to stderr")
	rootCmd.Flags().String("config", "", "Path to a config file (default: config.yaml in the user config dir)")

	viper.BindPFlag("relay_url", rootCmd.Flags().Lookup("relay-url"))
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	viper.SetEnvPrefix("CHAT")
	viper.AutomaticEnv()
}

func runChat(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	dataDir, err := dataDirectory()
	if err != nil {
		return err
	}

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(dataDir)
		// A missing default config file is fine.
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config file: %w", err)
			}
		}
	}

	logger, err := setupLogger(dataDir, viper.GetBool("verbose"))
	if err != nil {
		return err
	}

	dbPath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	defer st.Close()

	renderer := client.NewRenderer(os.Stdout)
	session := client.NewSession(viper.GetString("relay_url"), st, nil, client.Hooks{
		History:   renderer.History,
		Delta:     renderer.Delta,
		StreamEnd: renderer.StreamEnd,
	}, logger)

	if err := session.Restore(); err != nil {
		return err
	}

	// Ctrl-C tears down an in-flight stream and exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	renderer.Hint("Type a message, or /quit to exit.")
	repl(ctx, session, renderer, logger)
	return nil
}

// repl runs the read loop. Exactly one submission is in flight at a time:
// the loop does not prompt again until Submit returns.
func repl(ctx context.Context, session *client.Session, renderer *client.Renderer, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Print(renderer.PromptLabel())
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/clear":
			if err := session.Clear(); err != nil {
				renderer.Error(err)
				continue
			}
			renderer.Hint("conversation cleared")
		case line == "/system":
			if prompt := session.State().SystemPrompt; prompt != "" {
				renderer.Hint("system prompt: " + prompt)
			} else {
				renderer.Hint("no system prompt set")
			}
		case line == "/system clear":
			if err := session.SetSystemPrompt(""); err != nil {
				renderer.Error(err)
				continue
			}
			renderer.Hint("system prompt cleared")
		case strings.HasPrefix(line, "/system "):
			if err := session.SetSystemPrompt(strings.TrimPrefix(line, "/system ")); err != nil {
				renderer.Error(err)
				continue
			}
			renderer.Hint("system prompt set")
		default:
			renderer.AssistantStart()
			if err := session.Submit(ctx, line); err != nil {
				renderer.StreamEnd()
				renderer.Error(err)
				logger.Info("submission failed", "error", err)
			}
		}
	}
}

// dataDirectory is where the client keeps its config, logs and database.
func dataDirectory() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "basic-chat"), nil
}
