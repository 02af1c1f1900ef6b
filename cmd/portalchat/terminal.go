package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/vovakirdan/portalchat/internal/chat"
	"github.com/vovakirdan/portalchat/internal/proto"
)

const timeLayout = "15:04"

// terminal renders chat updates as plain lines.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

var _ chat.View = (*terminal)(nil)

func newTerminal(out io.Writer) *terminal {
	return &terminal{out: out}
}

func (t *terminal) Show(u chat.Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if u.NewThread {
		fmt.Fprintf(t.out, "-- conversation with %s (#%d) --\n", u.Name, u.Counterpart)
	}
	fmt.Fprintf(t.out, "%s\n", formatRecord(u.Name, u.Record))
}

func (t *terminal) Notify(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "! %v\n", err)
}

func (t *terminal) ClearInput() {}

func (t *terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func formatRecord(thread string, rec chat.DisplayRecord) string {
	ts := rec.Timestamp.Local().Format(timeLayout)
	if rec.Side == chat.SideSent {
		return fmt.Sprintf("[%s] %s  %s > %s", thread, ts, rec.Label, rec.Text)
	}
	return fmt.Sprintf("[%s] %s  %s: %s", thread, ts, rec.Label, rec.Text)
}

// counterpartLister is the part of the roster client used by /list.
type counterpartLister interface {
	Counterparts(ctx context.Context, role chat.Role, id int64) ([]proto.Participant, error)
}

// session drives a chat.Client from terminal input lines.
type session struct {
	client *chat.Client
	term   *terminal
	roster counterpartLister
	role   chat.Role
	self   int64
}

// handleLine executes one input line. It reports false when the user asked
// to quit.
func (s *session) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		// send failures reach the terminal through Notify
		err := s.client.Send(ctx, line)
		return !errors.Is(err, chat.ErrClientStopped)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return false
	case "/with":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			s.term.printf("usage: /with <%s id>\n", s.role.Other())
			return true
		}
		if err := s.client.Open(ctx, id); err == nil {
			s.term.printf("now chatting with %s #%d\n", s.role.Other(), id)
		}
	case "/list":
		s.list(ctx)
	case "/threads":
		s.threads(ctx)
	case "/help":
		s.help()
	default:
		s.term.printf("unknown command %s, try /help\n", cmd)
	}
	return true
}

func (s *session) list(ctx context.Context) {
	if s.roster == nil {
		s.term.printf("roster unavailable\n")
		return
	}
	people, err := s.roster.Counterparts(ctx, s.role, s.self)
	if err != nil {
		s.term.Notify(err)
		return
	}
	if len(people) == 0 {
		s.term.printf("no %ss assigned\n", s.role.Other())
		return
	}
	for _, p := range people {
		if p.Specialty != "" {
			s.term.printf("  #%d %s (%s)\n", p.ID, p.Name, p.Specialty)
			continue
		}
		s.term.printf("  #%d %s\n", p.ID, p.Name)
	}
}

func (s *session) threads(ctx context.Context) {
	threads, err := s.client.Threads(ctx)
	if err != nil {
		s.term.Notify(err)
		return
	}
	if len(threads) == 0 {
		s.term.printf("no conversations yet\n")
		return
	}
	for _, th := range threads {
		marker := "+"
		if th.Expanded {
			marker = "-"
		}
		s.term.printf("%s %s (#%d), %d messages\n", marker, th.Name, th.Counterpart, len(th.Records))
		if !th.Expanded {
			continue
		}
		for _, rec := range th.Records {
			s.term.printf("    %s\n", formatRecord(th.Name, rec))
		}
	}
}

func (s *session) help() {
	s.term.printf(`commands:
  /with <id>   chat with a %s
  /list        list your %ss
  /threads     show conversations
  /quit        leave
anything else is sent to the selected %s
`, s.role.Other(), s.role.Other(), s.role.Other())
}
