package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the counselor a question about courses and programs",
	Long: `Answers a question grounded in the indexed course catalog. With no
arguments an interactive session starts; conversation context carries
between questions, so follow-ups like "what about its prerequisites?"
work.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	store, err := newStore(cfg, embedder)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}

	ctx := cmd.Context()
	if err := store.Reload(ctx); err != nil {
		return fmt.Errorf("loading index from %s: %w\nRun `csexpert index` first", cfg.IndexPath, err)
	}

	svc, err := newChatService(cfg, store)
	if err != nil {
		return err
	}

	var history []conversation.Turn
	answerOne := func(question string) error {
		resp, err := svc.Ask(ctx, chat.Request{Message: question, History: history})
		if err != nil {
			var synErr *chat.SynthesisError
			switch {
			case errors.Is(err, docstore.ErrStoreUnavailable):
				fmt.Println(chat.NotReadyAnswer())
				return nil
			case errors.As(err, &synErr):
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				fmt.Println(chat.FallbackAnswer())
				return nil
			default:
				return err
			}
		}

		fmt.Println(resp.Answer)
		if len(resp.Sources) > 0 && verbose {
			fmt.Println("\nSources:")
			for _, src := range resp.Sources {
				line := "  - " + src.CourseCode
				if src.CourseTitle != "" {
					line += ": " + src.CourseTitle
				}
				if src.SectionName != "" {
					line += " (" + src.SectionName + ")"
				}
				fmt.Println(line)
			}
		}

		history = append(history,
			conversation.Turn{Sender: conversation.SenderUser, Content: question},
			conversation.Turn{
				Sender:     conversation.SenderAssistant,
				Content:    resp.Answer,
				Sources:    resp.Sources,
				TopCourses: resp.TopCourses,
			},
		)
		return nil
	}

	if len(args) > 0 {
		return answerOne(strings.Join(args, " "))
	}

	fmt.Println("CSExpert interactive session. Type your question, or 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}
		if err := answerOne(question); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}
}
