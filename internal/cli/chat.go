package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/projectyui/yui/pkg/personality"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk with Yui in the terminal",
	Long: `Start an interactive conversation in the terminal.
Type /help inside the chat for the list of commands.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Printf("✨ %s is here. Type /help for commands, /quit to leave.\n\n", rt.orchestrator.Persona().Name)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(rt.cfg.DataDir, ".chat_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := rt.handleCommand(input); quit {
				fmt.Println("Goodbye!")
				return nil
			}
			continue
		}

		fmt.Printf("\n%s: ", rt.orchestrator.Persona().Name)
		_, err = rt.orchestrator.StreamMessage(context.Background(), input, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			fmt.Printf("\nError: %v\n\n", err)
			continue
		}
		fmt.Print("\n\n")
	}
}

// handleCommand runs one slash command and reports whether to quit.
func (r *runtime) handleCommand(input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`Commands:
  /switch <name>  switch personality (yui, friday, jarvis)
  /clear          clear conversation history and start a new session
  /stats          show your memory statistics
  /summary        show the current conversation summary
  /help           show this help
  /quit           leave the chat`)

	case "/switch":
		if len(fields) < 2 {
			fmt.Printf("Usage: /switch <name> (available: %s)\n", strings.Join(personality.Names(), ", "))
			return false
		}
		if err := r.orchestrator.SwitchPersonality(fields[1]); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("✨ Switched to %s\n", r.orchestrator.Persona().Name)

	case "/clear":
		r.orchestrator.ClearHistory()
		fmt.Println("🗑  Conversation history cleared")

	case "/stats":
		fmt.Println(r.formatStats())

	case "/summary":
		fmt.Println(r.orchestrator.Summary())

	default:
		fmt.Printf("Unknown command: %s (try /help)\n", fields[0])
	}

	return false
}
