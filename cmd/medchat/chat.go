package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"medchat/internal/chat"
)

// chatter is the part of the manager the terminal loop drives.
type chatter interface {
	Open(id string) (*chat.Session, bool)
	Submit(ctx context.Context, id, text string) (chat.Turn, error)
	Clear(id string) error
}

// repl is a line-oriented chat loop on a terminal or pipe.
type repl struct {
	svc      chatter
	out      io.Writer
	render   func(string) string
	user     string
	doctor   string
	showHelp bool
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the doctor in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			mgr, err := newManager(cfg, log)
			if err != nil {
				return err
			}
			defer mgr.Close()
			if err := mgr.Start(cmd.Context()); err != nil {
				return err
			}
			tty := false
			if f, ok := cmd.OutOrStdout().(*os.File); ok {
				tty = term.IsTerminal(int(f.Fd()))
			}
			r := &repl{
				svc:      mgr,
				out:      cmd.OutOrStdout(),
				render:   newMarkdownRenderer(tty),
				user:     cfg.Chat.UserLabel,
				doctor:   cfg.Chat.AssistantLabel,
				showHelp: tty,
			}
			return r.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// newMarkdownRenderer returns a glamour renderer, falling back to the raw
// text when rendering fails.
func newMarkdownRenderer(tty bool) func(string) string {
	style, width := "notty", 0
	if tty {
		style, width = "dark", 100
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			width = w - 4
		}
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return func(s string) string { return s + "\n" }
	}
	return func(s string) string {
		out, err := tr.Render(s)
		if err != nil {
			return s + "\n"
		}
		return out
	}
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	sess, _ := r.svc.Open("")
	id := sess.ID
	if r.showHelp {
		fmt.Fprintln(r.out, "Type your question. /clear starts over, /quit exits.")
	}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprintf(r.out, "%s: ", r.user)
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if err := r.svc.Clear(id); err != nil {
				return err
			}
			fmt.Fprintln(r.out, "🧹 conversation cleared")
			continue
		}
		reply, err := r.svc.Submit(ctx, id, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(r.out, "%s:\n%s", r.doctor, r.render(reply.Content))
	}
}
