package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/petasbytes/go-mincore/tools"
)

// sender is the part of session.Session the prompt loop needs.
type sender interface {
	Send(ctx context.Context, message, handle string, set *tools.Set, maxRounds int) (string, string, error)
}

type chat struct {
	session sender
	tools   *tools.Set
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	handle  string
	// onTurn is called with the new handle after each successful turn.
	onTurn func(handle string)
}

// loop reads one message per line until EOF or ctx is done. A failed turn is
// reported and the previous handle is kept so the next message can retry.
func (c *chat) loop(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		defer close(inputCh)
		for scanner.Scan() {
			select {
			case inputCh <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(c.out, "\n>>> You: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out, "\nExiting...")
			return nil
		case line, ok = <-inputCh:
			if !ok {
				fmt.Fprintln(c.out)
				return scanner.Err()
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		handle, text, err := c.session.Send(ctx, line, c.handle, c.tools, 0)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(c.out, "\nExiting...")
				return nil
			}
			fmt.Fprintf(c.errOut, "error: %v\n", err)
			continue
		}
		c.handle = handle
		if c.onTurn != nil {
			c.onTurn(handle)
		}
		fmt.Fprintf(c.out, "\n>>> Agent: %s\n", text)
	}
}
