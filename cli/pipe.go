package cli

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/bablon/Chaconne/stream"
	"golang.org/x/sync/errgroup"
)

// openPipe interprets a command's trailing "| ..." clause, grounded on the
// tail of cmd_execute in original_source/cli-tree.c that special-cases
// "include <regex>" against a plain shell pipe. It returns a writer that a
// handler should write its output into, and a closer that must run once
// the handler has finished writing, to flush/wait the pipe to completion.
func openPipe(dst io.Writer, spec string) (io.Writer, func() error, error) {
	fields := strings.Fields(spec)
	if len(fields) >= 1 && fields[0] == "include" {
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("include: missing pattern")
		}
		pattern := strings.TrimSpace(strings.TrimPrefix(spec, "include"))
		f := newFilterPipe(dst, pattern)
		return f, f.Close, nil
	}

	return newShellPipe(dst, spec)
}

// filterPipe buffers everything written to it and, on Close, runs it
// through stream.FlushFiltered against pattern. It is a thin adapter so
// that Tree.Execute can treat the regex-filter pipe and the shell pipe
// uniformly as io.Writer+closer pairs.
type filterPipe struct {
	dst     io.Writer
	pattern string
	buf     []byte
}

func newFilterPipe(dst io.Writer, pattern string) *filterPipe {
	return &filterPipe{dst: dst, pattern: pattern}
}

func (f *filterPipe) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// flush drains the buffered output through the regex filter, matching
// stream_flush_regexp's line-oriented semantics.
func (f *filterPipe) flush() error {
	s := stream.New()
	s.Write(f.buf)
	return s.FlushFiltered(f.dst, f.pattern)
}

// openPipe's caller invokes the returned closer, not flush directly, so
// that filterPipe and the shell pipe share one Close-shaped contract.
func (f *filterPipe) Close() error { return f.flush() }

// newShellPipe spawns spec as a shell command, wiring the handler's output
// into the command's stdin and the command's stdout/stderr to dst. The
// handler writes straight into the stdin pipe while os/exec copies the
// command's stdout/stderr into dst on its own goroutine; the returned
// closer closes stdin (through an errgroup) and then waits for the command
// to exit.
func newShellPipe(dst io.Writer, spec string) (io.Writer, func() error, error) {
	cmd := exec.CommandContext(context.Background(), "/bin/sh", "-c", spec)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stdout = dst
	cmd.Stderr = dst

	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}

	return stdin, func() error {
		var g errgroup.Group
		g.Go(stdin.Close)
		if err := g.Wait(); err != nil {
			return err
		}
		return cmd.Wait()
	}, nil
}
