package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"companion-bot/internal/core"
)

func newChatCmd() *cobra.Command {
	var callerID int64
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the companion from the terminal",
		Long: `Reads one message per line from stdin. Lines starting with "/" are commands,
e.g. "/homesignal Home Signal. Kai, activate". Everything else is free text.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			a, err := wireApp(cfg, "CLI", logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("caller") && cfg.AdminUserID != 0 {
				callerID = cfg.AdminUserID
			}
			err = runChat(cmd.Context(), a.core, callerID, cmd.InOrStdin(), cmd.OutOrStdout())
			if serr := a.core.SaveSnapshot(context.Background()); serr != nil && err == nil {
				err = serr
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&callerID, "caller", 1, "caller id to act as (defaults to ADMIN_USER_ID when set)")
	return cmd
}

type handler interface {
	Handle(ctx context.Context, req core.Request) string
}

func runChat(ctx context.Context, h handler, callerID int64, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintln(out, h.Handle(ctx, parseLine(callerID, line)))
	}
	return sc.Err()
}

// parseLine splits "/cmd args" the way Telegram does: the command ends at the
// first space and the arguments are the rest of the line, untouched.
func parseLine(callerID int64, line string) core.Request {
	req := core.Request{CallerID: callerID, Text: line}
	if strings.HasPrefix(line, "/") {
		cmd, args, _ := strings.Cut(line[1:], " ")
		req.Command = cmd
		req.Args = args
	}
	return req
}
