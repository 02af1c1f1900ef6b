package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/portalchat/internal/channel/ws"
	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/roster"
)

type chatOptions struct {
	role      string
	id        int64
	with      int64
	relayURL  string
	rosterURL string
}

func newChatCmd(root *rootOptions) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open a terminal chat as a doctor or patient",
		Example: `  portalchat chat --role doctor --id 1 --with 3
  portalchat chat --role patient --id 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), root, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.role, "role", "", "local role (doctor or patient)")
	f.Int64Var(&opts.id, "id", 0, "local doctor or patient id")
	f.Int64Var(&opts.with, "with", 0, "counterpart to open on start")
	f.StringVar(&opts.relayURL, "relay-url", "", "relay WebSocket URL")
	f.StringVar(&opts.rosterURL, "roster-url", "", "roster API base URL")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func runChat(ctx context.Context, root *rootOptions, opts *chatOptions, in io.Reader, out io.Writer) error {
	role, err := chat.ParseRole(opts.role)
	if err != nil {
		return err
	}
	if opts.id <= 0 {
		return fmt.Errorf("--id must be positive")
	}

	cfg, logger, err := root.load()
	if err != nil {
		return err
	}
	if opts.relayURL != "" {
		cfg.RelayURL = opts.relayURL
	}
	if opts.rosterURL != "" {
		cfg.RosterURL = opts.rosterURL
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	channel := ws.New(cfg.RelayURL, cfg.SendBuffer, logger)
	defer channel.Close()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = channel.Connect(dialCtx)
	cancel()
	if err != nil {
		return err
	}

	rosterClient := roster.New(cfg.RosterURL, 5*time.Second)
	term := newTerminal(out)
	client := chat.NewClient(chat.NewSession(role, opts.id), channel, rosterClient, term, logger)

	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	s := &session{client: client, term: term, roster: rosterClient, role: role, self: opts.id}
	term.printf("connected to %s as %s #%d, /help for commands\n", cfg.RelayURL, role, opts.id)
	if opts.with > 0 {
		s.handleLine(ctx, fmt.Sprintf("/with %d", opts.with))
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if !s.handleLine(ctx, line) {
				return nil
			}
		}
	}
}
