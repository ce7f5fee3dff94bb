package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/dst"
	"github.com/wippyai/dst/buffer"
	"github.com/wippyai/dst/buffer/linear"
	"github.com/wippyai/dst/codec"
	"github.com/wippyai/dst/queue"
	"github.com/wippyai/dst/stack"
	"go.uber.org/zap"
)

// container is the string container under inspection.
type container interface {
	Push(v string) error
	Pop()
	Values() []string
	Spans() []dst.Span
	Len() int
	LenWords() int
	CapacityWords() int
	Close() error
}

type stackView struct {
	*stack.Stack[string, uint64]
}

func (s stackView) Push(v string) error { return s.Stack.Push(codec.Str(v)) }

func (s stackView) Values() []string {
	var out []string
	for v := range s.All() {
		out = append(out, strings.Clone(v))
	}
	return out
}

type queueView struct {
	*queue.Queue[string, uint64]
}

func (q queueView) Push(v string) error { return q.PushBack(codec.Str(v)) }

func (q queueView) Pop() { q.PopFront() }

func (q queueView) Values() []string {
	var out []string
	for v := range q.All() {
		out = append(out, strings.Clone(v))
	}
	return out
}

type options struct {
	kind   string
	buffer string
	words  int
	logger *zap.Logger
}

func newBuffer(ctx context.Context, kind string, words int) (dst.Buffer[uint64], error) {
	switch kind {
	case "array":
		return buffer.NewArray[uint64](words), nil
	case "vector":
		return buffer.NewVector[uint64](words), nil
	case "mapped":
		m, err := buffer.NewMapped[uint64](words)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "linear":
		b, err := linear.New[uint64](ctx, words)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown buffer %q", kind)
	}
}

func newContainer(ctx context.Context, o options) (container, error) {
	buf, err := newBuffer(ctx, o.buffer, o.words)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	l := o.logger
	if l == nil {
		l = zap.NewNop()
	}
	switch o.kind {
	case "stack":
		return stackView{stack.WithBuffer(codec.String(), buf, stack.WithLogger(l), stack.WithName(o.buffer))}, nil
	case "queue":
		return queueView{queue.WithBuffer(codec.String(), buf, queue.WithLogger(l), queue.WithName(o.buffer))}, nil
	}
	if c, ok := buf.(io.Closer); ok {
		_ = c.Close()
	}
	return nil, fmt.Errorf("unknown container %q", o.kind)
}

// render prints the occupancy line and one row per element.
func render(w io.Writer, c container) {
	fmt.Fprintf(w, "elements: %d  words: %d/%d\n", c.Len(), c.LenWords(), c.CapacityWords())
	values := c.Values()
	for i, sp := range c.Spans() {
		fmt.Fprintf(w, "  #%d %-6s offset=%-5d words=%-3d meta=%d size=%-4d %q\n",
			i, sp.Kind, sp.Offset, sp.Words, sp.Meta, sp.Size, values[i])
	}
}
