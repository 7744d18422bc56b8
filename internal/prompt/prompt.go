package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// ErrInputClosed reports that the input stream ended before an answer arrived.
var ErrInputClosed = errors.New("prompt: input closed")

// Answer classifies a yes/no reply.
type Answer int

const (
	AnswerInvalid Answer = iota
	AnswerYes
	AnswerNo
)

// ParseAnswer folds raw and matches it against the accepted yes/no spellings.
func ParseAnswer(raw string) Answer {
	switch cases.Fold().String(strings.TrimSpace(raw)) {
	case "y", "yes":
		return AnswerYes
	case "n", "no":
		return AnswerNo
	default:
		return AnswerInvalid
	}
}

// Prompter is the console surface the pipeline depends on.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Confirm(ctx context.Context, question string, invalid func(answer string) string) (bool, error)
	Say(message string)
}

// Console prompts on out and reads answers line by line from in. A single
// reader goroutine feeds lines to Ask, so a canceled Ask leaves the next line
// for the following call.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer

	readOnce sync.Once
	lines    chan readResult
}

type readResult struct {
	line string
	err  error
}

var _ Prompter = (*Console)(nil)

// New returns a console over the given streams. A nil out discards prompts.
func New(in io.Reader, out io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{in: bufio.NewReader(in), out: out, lines: make(chan readResult)}
}

// readLoop delivers lines until the first read error, then closes lines.
func (c *Console) readLoop() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		c.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Ask writes question without a trailing newline and returns the trimmed reply.
// A final line without a newline is still returned; an empty stream yields
// ErrInputClosed. Cancelling ctx returns ctx.Err() without waiting for input.
func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, question)
	c.readOnce.Do(func() { go c.readLoop() })

	var res readResult
	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			fmt.Fprintln(c.out)
			return "", ErrInputClosed
		}
		res = r
	}
	if res.err != nil {
		if !errors.Is(res.err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", res.err)
		}
		if res.line == "" {
			fmt.Fprintln(c.out)
			return "", ErrInputClosed
		}
	}
	return strings.TrimSpace(res.line), nil
}

// Confirm asks question until the reply is a recognised yes or no. For any
// other reply the message returned by invalid is printed before asking again;
// a nil invalid prints nothing.
func (c *Console) Confirm(ctx context.Context, question string, invalid func(answer string) string) (bool, error) {
	for {
		raw, err := c.Ask(ctx, question)
		if err != nil {
			return false, err
		}
		switch ParseAnswer(raw) {
		case AnswerYes:
			return true, nil
		case AnswerNo:
			return false, nil
		}
		if invalid != nil {
			c.Say(invalid(raw))
		}
	}
}

// Say prints message on its own line.
func (c *Console) Say(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, message)
}
