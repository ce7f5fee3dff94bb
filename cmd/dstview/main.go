package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	var (
		kind        = flag.String("kind", "stack", "Container kind (stack, queue)")
		bufKind     = flag.String("buffer", "array", "Buffer kind (array, vector, mapped, linear)")
		words       = flag.Int("words", 16, "Initial buffer size in 64-bit words")
		push        = flag.String("push", "", "Values to push (comma-separated)")
		pop         = flag.Int("pop", 0, "Number of elements to pop after pushing")
		verbose     = flag.Bool("v", false, "Log container events")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	opts := options{kind: *kind, buffer: *bufKind, words: *words}
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = l.Sync() }()
		opts.logger = l
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Usage: dstview -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var values []string
	if *push != "" {
		values = strings.Split(*push, ",")
	}
	if err := run(os.Stdout, opts, values, *pop); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run pushes values, pops n elements and prints the resulting layout. A
// refused push is reported and does not stop the run.
func run(w io.Writer, opts options, values []string, n int) error {
	c, err := newContainer(context.Background(), opts)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Fprintf(w, "%s over %s buffer\n", opts.kind, opts.buffer)
	for _, v := range values {
		if err := c.Push(v); err != nil {
			fmt.Fprintf(w, "push %q: %v\n", v, err)
		}
	}
	for range n {
		c.Pop()
	}
	render(w, c)
	return nil
}
