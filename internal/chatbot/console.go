package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleSession is a single-member dev binding: commands are read from
// an input stream as the configured operator and replies are printed to
// an output stream. It lets the chat front-end be exercised without a
// real platform connection.
type ConsoleSession struct {
	operator Member

	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSession(out io.Writer, operator Member) *ConsoleSession {
	return &ConsoleSession{operator: operator, out: out}
}

func (c *ConsoleSession) Reply(_ context.Context, _ string, text string) error {
	return c.write(text)
}

func (c *ConsoleSession) SendDirect(_ context.Context, userID, text string) error {
	return c.write(fmt.Sprintf("[DM to %s]\n%s", userID, text))
}

func (c *ConsoleSession) Members(_ context.Context) ([]Member, error) {
	return []Member{c.operator}, nil
}

func (c *ConsoleSession) write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, text)
	return err
}

// RunConsole feeds lines from in through the router as messages from the
// session's operator until in is exhausted or ctx is cancelled.
func RunConsole(ctx context.Context, r *Router, c *ConsoleSession, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		msg := Message{ChannelID: "console", Author: c.operator, Content: line}
		if err := r.Handle(ctx, c, msg); err != nil {
			return err
		}
	}
	return scanner.Err()
}
