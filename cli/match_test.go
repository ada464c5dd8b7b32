package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T, cmds []Command) *Tree {
	t.Helper()
	tree, errs := NewTree(nil, cmds)
	require.Empty(t, errs)
	return tree
}

func TestExecutePositionalVariable(t *testing.T) {
	var captured string
	tree := newTestTree(t, []Command{
		{Syntax: "echo TEXT", Desc: "echo\nthe text", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			captured = frame.Argv[0]
			return nil
		}},
	})

	var out bytes.Buffer
	err := tree.Execute(&ExecContext{Out: &out}, "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", captured)
}

func TestExecuteKeywordBlock(t *testing.T) {
	var captured string
	tree := newTestTree(t, []Command{
		{Syntax: "ping HOST {count COUNT}", Desc: "ping\nhost\nsend count probes\nhow many", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			captured = frame.Keywords["count"]
			return nil
		}},
	})

	var out bytes.Buffer
	err := tree.Execute(&ExecContext{Out: &out}, "ping example.com count 5")
	require.NoError(t, err)
	assert.Equal(t, "5", captured)
}

func TestExecuteBareKeywordRecordsPresentSentinel(t *testing.T) {
	var captured map[string]string
	tree := newTestTree(t, []Command{
		{Syntax: "show stats {verbose|terse}", Desc: "show\nstats\nverbose output\nterse output", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			captured = frame.Keywords
			return nil
		}},
	})

	var out bytes.Buffer
	err := tree.Execute(&ExecContext{Out: &out}, "show stats verbose")
	require.NoError(t, err)
	assert.Equal(t, "1", captured["verbose"])
}

func TestExecuteVararg(t *testing.T) {
	var argv, vararg []string
	tree := newTestTree(t, []Command{
		{Syntax: "run .ARGS", Desc: "run\nargv", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			argv = frame.Argv
			vararg = frame.Vararg
			return nil
		}},
	})

	var out bytes.Buffer
	err := tree.Execute(&ExecContext{Out: &out}, "run echo one two")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "one", "two"}, argv, "vararg words must also land in Argv per spec.md §8 law #4")
	assert.Equal(t, []string{"echo", "one", "two"}, vararg)
}

func TestExecuteNoMatch(t *testing.T) {
	tree := newTestTree(t, nil)
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, "bogus command")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, "%% Unknown command - bogus command.", err.Error())
}

func TestExecuteIncomplete(t *testing.T) {
	tree := newTestTree(t, []Command{
		{Syntax: "show version", Desc: "show\nversion", Handler: noopHandler},
	})
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, "show")
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, "%% Command incomplete.", err.Error())
}

func TestExecuteNothingToDo(t *testing.T) {
	tree := newTestTree(t, nil)
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, "   ")
	assert.ErrorIs(t, err, ErrNothingToDo)
}

func TestExecutePipeOnlyLineIsInvalidCommand(t *testing.T) {
	tree := newTestTree(t, nil)
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, "| include foo")
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, "%% Invalid command - | include foo.", err.Error())
}

func TestExecuteExceedsArgcMax(t *testing.T) {
	tree := newTestTree(t, nil)
	words := make([]string, MaxArgc+1)
	for i := range words {
		words[i] = "x"
	}
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, strings.Join(words, " "))
	assert.ErrorIs(t, err, ErrExceedArgcMax)
}

func TestExecuteHandlerExitCodeSurfacesAsWarning(t *testing.T) {
	tree := newTestTree(t, []Command{
		{Syntax: "fail", Desc: "always fails", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			return ExitCode(3)
		}},
	})
	err := tree.Execute(&ExecContext{Out: &bytes.Buffer{}}, "fail")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWarning)
	assert.Contains(t, err.Error(), "3")
}

func TestExecutePipeIncludeFiltersOutput(t *testing.T) {
	tree := newTestTree(t, []Command{
		{Syntax: "dump", Desc: "dump\nlines", Handler: func(ctx *ExecContext, frame *MatchFrame) error {
			ctx.Out.Write([]byte("apple\r\nbanana\r\ncherry\r\n"))
			return nil
		}},
	})

	var out bytes.Buffer
	err := tree.Execute(&ExecContext{Out: &out}, "dump | include an")
	require.NoError(t, err)
	assert.Equal(t, "banana\r\n", out.String())
}
