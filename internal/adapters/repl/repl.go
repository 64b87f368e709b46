package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"digital-ondu/internal/adapters/cli"
	"digital-ondu/internal/app"
	"digital-ondu/internal/core"

	"github.com/google/uuid"
)

var errExit = errors.New("exit")

// Run starts the interactive terminal loop. Every one-shot CLI command is available
// with or without a leading slash; /sale opens the checkout wizard.
func Run(ctx context.Context, svc app.ApplicationService, actor core.Actor, storeID uuid.UUID, reader *bufio.Reader, w io.Writer) error {
	store, err := svc.GetStore(ctx, actor, storeID)
	if err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}

	fmt.Fprintln(w, "Digital Ondu POS")
	fmt.Fprintf(w, "Store: %s (%s)\n", store.Name, store.Currency)
	fmt.Fprintln(w, "Type /help for commands, /sale to ring up a sale, /exit to quit.")
	fmt.Fprintln(w, strings.Repeat("-", 70))

	dispatch := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		switch strings.ToLower(tokens[0]) {
		case "exit", "quit", "e", "q":
			return errExit
		case "sale", "checkout":
			handleSale(ctx, reader, w, svc, actor, storeID)
			return nil
		case "help", "h":
			if err := cli.Run(ctx, w, svc, actor, storeID, tokens); err != nil {
				return err
			}
			fmt.Fprintln(w, "  sale                          interactive checkout")
			fmt.Fprintln(w, "  exit                          leave the terminal")
			return nil
		}
		return cli.Run(ctx, w, svc, actor, storeID, tokens)
	}

	for {
		fmt.Fprint(w, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if err := dispatch(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(w, "Goodbye!")
					return nil
				}
				fmt.Fprintf(w, "Error: %v\n", err)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}
