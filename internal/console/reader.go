package console

import (
	"bufio"
	"context"
	"io"
	"strings"

	"nostrdm/internal/util/queue"
)

const maxLineSize = 1 << 20

// ReadLines streams lines from r until EOF or ctx is done, then closes the
// returned channel. Reading never blocks on the consumer: lines queue up in
// order until they are taken.
func ReadLines(ctx context.Context, r io.Reader) <-chan string {
	q := queue.New[string](0)
	go func() {
		defer q.Close()
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			q.Push(strings.TrimRight(sc.Text(), "\r"))
		}
	}()

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			line, ok := q.Pop(ctx.Done())
			if !ok {
				return
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
