package term

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bablon/Chaconne/cli"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	tree, errs := cli.NewTree(nil, []cli.Command{
		{Syntax: "echo TEXT", Desc: "echo\nprint text", Handler: func(ctx *cli.ExecContext, frame *cli.MatchFrame) error {
			ctx.Out.Write([]byte(frame.Argv[0]))
			return nil
		}},
	})
	require.Empty(t, errs)
	return NewSession(nil, tree, "Test")
}

func drain(t *testing.T, s *Session) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := s.FlushTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestFeedTypesAndExecutesLine(t *testing.T) {
	s := newTestSession(t)
	drain(t, s) // discard initial prompt

	for _, c := range []byte("echo hi") {
		s.Feed(c)
	}
	drain(t, s)

	done := s.Feed(keyEnter)
	assert.True(t, done)

	out := drain(t, s)
	assert.Contains(t, out, "hi")
}

func TestFeedBackspaceDeletesPriorChar(t *testing.T) {
	s := newTestSession(t)
	drain(t, s)

	for _, c := range []byte("abx") {
		s.Feed(c)
	}
	s.Feed(keyDeleteBack)
	assert.Equal(t, "ab", string(s.buf))
}

func TestFeedCtrlWKillsWordForward(t *testing.T) {
	// Documented quirk (spec.md §9 Open Question 1): Ctrl-W is bound to
	// forward-kill-word, not backward-kill-word.
	s := newTestSession(t)
	drain(t, s)

	for _, c := range []byte("one two") {
		s.Feed(c)
	}
	s.cp = 0
	s.Feed(keyKillWordBack)
	assert.Equal(t, " two", string(s.buf))
}

func TestFeedHistoryRecall(t *testing.T) {
	s := newTestSession(t)
	drain(t, s)

	for _, c := range []byte("echo first") {
		s.Feed(c)
	}
	s.Feed(keyEnter)
	drain(t, s)

	s.Feed(keyHistoryPrev)
	assert.Equal(t, "echo first", string(s.buf))
}

func TestFeedEOFOnEmptyLineRequestsQuit(t *testing.T) {
	s := newTestSession(t)
	drain(t, s)

	s.Feed(keyEOF)
	assert.True(t, s.Done())
}

func TestFeedTabCompletesPartialWord(t *testing.T) {
	// A single candidate is a FULL_MATCH (spec.md §4.E): the session
	// appends a trailing space so the next word can be typed immediately.
	s := newTestSession(t)
	drain(t, s)

	for _, c := range []byte("ech") {
		s.Feed(c)
	}
	s.Feed(keyTab)
	drain(t, s)
	assert.Equal(t, "echo ", string(s.buf))
}

func TestFeedTabTwiceIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	drain(t, s)

	for _, c := range []byte("ech") {
		s.Feed(c)
	}
	s.Feed(keyTab)
	drain(t, s)
	s.Feed(keyTab)
	drain(t, s)
	assert.Equal(t, "echo ", string(s.buf))
}

func TestNegotiateWritesTelnetSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Negotiate(&buf))
	assert.Equal(t, []byte{iac, will, optEcho, iac, will, optSGA, iac, dont, optLinemode}, buf.Bytes())
}
