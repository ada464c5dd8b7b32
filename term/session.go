// Package term implements the host-driven interactive line editor: an
// emacs-style byte-at-a-time input state machine wired to a compiled
// command tree, grounded on the NORMAL/PRE_ESCAPE/ESCAPE state machine of
// term_read in original_source/cli-term.c, realized in the struct shape
// and echo-helper idiom of kylelemons-goat/term/term.go and term_line.go.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/bablon/Chaconne/cli"
	"github.com/bablon/Chaconne/history"
	"github.com/bablon/Chaconne/stream"
	"go.uber.org/zap"
)

// DefaultSessionName is the prompt's leading word when a caller doesn't
// supply one.
const DefaultSessionName = "Chaconne"

// maxLine bounds one input line's length, matching TERM_MAXLINE.
const maxLine = 8192

// inputState is the byte-reader state, ported from term_read's
// NORMAL/ESCAPE cases (the original's third PRE_ESCAPE state exists to
// distinguish a bare ESC keypress from the start of a CSI sequence on a
// slow link; Session instead buffers the whole escape sequence in escBuf
// and resolves it once two bytes have arrived, so there is no separate
// intermediate state to model).
type inputState int

const (
	stateNormal inputState = iota
	stateEscape
)

// Session is one interactive line-editing session driven entirely by its
// host feeding it bytes -- unlike the teacher's TTY, which owns a
// goroutine reading from an io.Reader, Session makes no assumption about
// who owns the read loop (spec.md §5: the host may be a raw terminal, a
// telnet socket, or a test harness). The host calls Feed once per input
// byte and FlushTo whenever it wants to drain pending output.
type Session struct {
	Name string

	tree *cli.Tree
	log  *zap.Logger

	out  *stream.Stream
	hist history.Ring

	buf   []byte
	cp    int
	width int

	state  inputState
	escBuf []byte

	quit bool
}

// NewSession builds a Session bound to tree. If name is "", it defaults to
// DefaultSessionName.
func NewSession(log *zap.Logger, tree *cli.Tree, name string) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if name == "" {
		name = DefaultSessionName
	}
	s := &Session{
		Name:  name,
		tree:  tree,
		log:   log,
		out:   stream.New(),
		width: screenWidth,
	}
	s.writePrompt()
	return s
}

// Tree satisfies cli.SessionState.
func (s *Session) Tree() *cli.Tree { return s.tree }

// HistoryLines satisfies cli.SessionState, backing `show history`.
func (s *Session) HistoryLines() []string { return s.hist.Lines() }

// RequestQuit satisfies cli.SessionState, backing `quit`/`exit`.
func (s *Session) RequestQuit() { s.quit = true }

// Done reports whether the session has run a quit/exit command and the
// host should stop feeding it further bytes.
func (s *Session) Done() bool { return s.quit }

// SetWidth records the terminal's column count, used to lay out
// tab-completion listings. A host that can't determine width (e.g. a
// plain pipe) may leave it unset; writeColumns falls back to 80.
func (s *Session) SetWidth(cols int) { s.width = cols }

func (s *Session) writePrompt() {
	fmt.Fprintf(s.out, "\r\n%s > %s", s.Name, string(s.buf))
}

// redrawLine clears the current input line and redraws the prompt plus
// buffer, positioning the cursor at cp -- the byte-for-byte equivalent of
// term_line's full-line repaint used after history recall, completion,
// and Ctrl-L.
func (s *Session) redrawLine() {
	fmt.Fprintf(s.out, "\r%s > %s\x1b[K", s.Name, string(s.buf))
	if back := len(s.buf) - s.cp; back > 0 {
		fmt.Fprintf(s.out, "\x1b[%dD", back)
	}
}

// Feed advances the editor state machine by one input byte, grounded on
// term_read. It returns true if the byte completed a line (Enter was
// pressed), in which case the completed line has already been dispatched
// to the command tree and its output queued for FlushTo.
func (s *Session) Feed(c byte) bool {
	if s.state == stateEscape {
		return s.feedEscape(c)
	}
	return s.feedNormal(c)
}

func (s *Session) feedNormal(c byte) bool {
	switch c {
	case keyEnter, keyEnterLF:
		return s.commitLine()
	case keyEscape:
		s.state = stateEscape
		s.escBuf = s.escBuf[:0]
		return false
	case keyInterrupt:
		s.buf = s.buf[:0]
		s.cp = 0
		s.out.WriteString("^C")
		s.writePrompt()
		return false
	case keyEOF:
		if len(s.buf) == 0 {
			s.quit = true
			return false
		}
		s.deleteForward()
	case keyMoveLeft:
		if s.cp > 0 {
			s.cp--
			s.out.WriteString("\x1b[1D")
		}
	case keyMoveRight:
		if s.cp < len(s.buf) {
			s.cp++
			s.out.WriteString("\x1b[1C")
		}
	case keyMoveHome:
		s.cp = 0
		s.redrawLine()
	case keyMoveEnd:
		s.cp = len(s.buf)
		s.redrawLine()
	case keyDeleteBack:
		s.deleteBackward()
	case keyKillLine:
		s.buf = s.buf[:s.cp]
		s.redrawLine()
	case keyKillWordBack:
		// The original's Ctrl-W is wired to the forward-kill-word handler,
		// not backward-kill-word -- kept as observed (spec.md §9 Open
		// Question 1), not "fixed".
		s.killWordForward()
	case keyHistoryPrev:
		if line, ok := s.hist.Previous(); ok {
			s.setLine(line)
		}
	case keyHistoryNext:
		if line, ok := s.hist.Next(); ok {
			s.setLine(line)
		}
	case keyRedraw:
		s.redrawLine()
	case keyHelp:
		s.describe()
	case keyTab:
		s.complete()
	default:
		s.selfInsert(c)
	}
	return false
}

func (s *Session) feedEscape(c byte) bool {
	s.escBuf = append(s.escBuf, c)
	if len(s.escBuf) < 2 {
		return false
	}

	if s.escBuf[0] == '[' {
		switch s.escBuf[1] {
		case 'C':
			s.feedNormal(keyMoveRight)
		case 'D':
			s.feedNormal(keyMoveLeft)
		case 'A':
			s.feedNormal(keyHistoryPrev)
		case 'B':
			s.feedNormal(keyHistoryNext)
		}
	}
	s.state = stateNormal
	return false
}

func (s *Session) selfInsert(c byte) {
	if len(s.buf) >= maxLine {
		return
	}
	s.buf = append(s.buf, 0)
	copy(s.buf[s.cp+1:], s.buf[s.cp:])
	s.buf[s.cp] = c
	s.cp++
	s.out.WriteByte(c)
	if s.cp != len(s.buf) {
		s.redrawLine()
	}
}

func (s *Session) deleteBackward() {
	if s.cp == 0 {
		return
	}
	s.buf = append(s.buf[:s.cp-1], s.buf[s.cp:]...)
	s.cp--
	s.redrawLine()
}

func (s *Session) deleteForward() {
	if s.cp >= len(s.buf) {
		return
	}
	s.buf = append(s.buf[:s.cp], s.buf[s.cp+1:]...)
	s.redrawLine()
}

// killWordForward deletes from the cursor through the end of the current
// or next word, the action cli-term.c's Ctrl-W binding actually performs.
func (s *Session) killWordForward() {
	i := s.cp
	for i < len(s.buf) && s.buf[i] == ' ' {
		i++
	}
	for i < len(s.buf) && s.buf[i] != ' ' {
		i++
	}
	s.buf = append(s.buf[:s.cp], s.buf[i:]...)
	s.redrawLine()
}

func (s *Session) setLine(line string) {
	s.buf = []byte(line)
	s.cp = len(s.buf)
	s.redrawLine()
}

func (s *Session) complete() {
	line := string(s.buf[:s.cp])
	result, matches, prefix := s.tree.Complete(line)
	switch result {
	case cli.CompleteFullMatch:
		s.insertCompletion(prefix)
		s.selfInsert(' ')
	case cli.CompleteMatch:
		s.insertCompletion(prefix)
	case cli.CompleteListMatch:
		s.out.WriteString("\r\n")
		writeColumns(s.out, matches, s.width)
		s.writePrompt()
	default:
		s.out.WriteByte('\a')
	}
}

// insertCompletion types in only the part of word not already present in
// the current in-progress fragment at the cursor, so completing "conf" to
// "configure" appends "igure" rather than duplicating the typed prefix.
func (s *Session) insertCompletion(word string) {
	start := s.cp
	for start > 0 && s.buf[start-1] != ' ' {
		start--
	}
	fragment := string(s.buf[start:s.cp])
	suffix := strings.TrimPrefix(word, fragment)
	for i := 0; i < len(suffix); i++ {
		s.selfInsert(suffix[i])
	}
}

func (s *Session) describe() {
	_, keys, descs, cr := s.tree.Describe(string(s.buf[:s.cp]))
	s.out.WriteString("\r\n")
	for i, key := range keys {
		fmt.Fprintf(s.out, "  %-16s %s\r\n", key, descs[i])
	}
	if cr {
		fmt.Fprintf(s.out, "  %-16s %s\r\n", "<cr>", "")
	}
	s.writePrompt()
}

func (s *Session) commitLine() bool {
	line := string(s.buf)
	s.out.WriteString("\r\n")

	s.hist.Add(line)
	s.buf = s.buf[:0]
	s.cp = 0

	if line != "" {
		ctx := &cli.ExecContext{Out: s.out, State: s}
		if err := s.tree.Execute(ctx, line); err != nil {
			fmt.Fprintf(s.out, "%s\r\n", err)
		}
	}

	if !s.quit {
		s.writePrompt()
	}
	return true
}

// FlushTo drains every byte of output queued since the last FlushTo call
// into w.
func (s *Session) FlushTo(w io.Writer) (int, error) {
	return s.out.FlushTo(w)
}

// Telnet IAC negotiation bytes, sent once at session start by a host
// serving Chaconne over a raw TCP/telnet listener (spec.md §6). Kept as
// package-level constants rather than parsed options since Chaconne
// negotiates a fixed, non-configurable posture: it always wants to own
// echo and suppress go-ahead.
const (
	iac  = 255
	will = 251
	dont = 254

	optEcho     = 1
	optSGA      = 3
	optLinemode = 34
)

// Negotiate writes the telnet IAC WILL-ECHO, WILL-SGA, DONT-LINEMODE
// sequence to w, asking a telnet client to hand character-at-a-time input
// to the server instead of line-buffering it locally.
func Negotiate(w io.Writer) error {
	seq := []byte{
		iac, will, optEcho,
		iac, will, optSGA,
		iac, dont, optLinemode,
	}
	_, err := w.Write(seq)
	return err
}
