package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Result mirrors the return-code taxonomy of cmd_search/cmd_execute in
// original_source/cli-tree.c. A Result is always reported to the caller of
// Tree.Execute wrapped in one of the Err* sentinels below, so callers can
// use errors.Is while still being able to recover the raw code via
// errors.As(&cli.Error{}).
type Result int

const (
	Success Result = iota
	Warning
	NoMatch
	Ambiguous
	Incomplete
	ExceedArgcMax
	NothingToDo
	CompleteFullMatch
	CompleteMatch
	CompleteListMatch
	SuccessDaemon
	System
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case NoMatch:
		return "no match"
	case Ambiguous:
		return "ambiguous"
	case Incomplete:
		return "incomplete"
	case ExceedArgcMax:
		return "argument count exceeded"
	case NothingToDo:
		return "nothing to do"
	case CompleteFullMatch:
		return "complete (full match)"
	case CompleteMatch:
		return "complete (partial match)"
	case CompleteListMatch:
		return "complete (list)"
	case SuccessDaemon:
		return "success (daemon)"
	case System:
		return "system error"
	default:
		return "unknown"
	}
}

// Error wraps a Result so that Tree.Execute's failures can be tested with
// errors.Is against the Err* sentinels while still letting a caller recover
// the exact code and message via errors.As.
type Error struct {
	Code    Result
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

func newError(code Result, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is comparisons against Tree.Execute's return value.
var (
	ErrNoMatch       = &Error{Code: NoMatch}
	ErrAmbiguous     = &Error{Code: Ambiguous}
	ErrIncomplete    = &Error{Code: Incomplete}
	ErrExceedArgcMax = &Error{Code: ExceedArgcMax}
	ErrNothingToDo   = &Error{Code: NothingToDo}
	ErrSystem        = &Error{Code: System}
	ErrWarning       = &Error{Code: Warning}
)

// MatchFrame carries one matched invocation's captured words through to the
// handler: positional arguments in order (spec.md §3's argv, capped at
// MaxArgc), plus any keyword-block captures keyed by the keyword's literal.
// A trailing VARARG's words are appended to Argv like any other positional
// argument (cmd_search appends them into the same argv, per spec.md §8
// testable law #4); Vararg duplicates just that tail as a convenience for
// handlers -- like cmdSystem and OptionSpec's ",vararg" tag -- that want the
// remaining words as their own slice without having to know its offset
// into Argv.
type MatchFrame struct {
	Argv     []string
	Keywords map[string]string
	Vararg   []string
}

// ExecContext is the per-call environment handed to a HandlerFunc: where to
// write output, and the caller-supplied opaque state (a session, a device
// handle, anything the embedding application needs).
type ExecContext struct {
	Out   io.Writer
	State interface{}
}

// candidate is one node reached while walking the tree for a given input
// word, paired with the match class it earned.
type candidate struct {
	n     *node
	class matchClass
	tok   Token
}

// bestCandidate implements find_best_node's precedence rule: exact beats
// vararg beats extend beats no-match; among equal classes the
// first-inserted (i.e. first-registered, since registration is sorted)
// child wins, so ties never produce Ambiguous: that Result is defined but
// never returned.
func bestCandidate(cands []candidate) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range cands {
		if c.class == noMatch {
			continue
		}
		if !found || c.class > best.class {
			best = c
			found = true
		}
	}
	return best, found
}

func (t *Tree) candidatesFor(n *node, word string) []candidate {
	out := make([]candidate, 0, len(n.children))
	for _, id := range n.children {
		child := t.nodes[id]
		for _, tok := range child.tokens {
			class := tok.matchWord(word)
			if class != noMatch {
				out = append(out, candidate{n: child, class: class, tok: tok})
			}
		}
	}
	return out
}

// consumeKeywordBlock matches zero or more "<keyword> <arg>..." groups from
// words starting at j against host's keywordChildren, in any order,
// recording each keyword's captured argument chain (space-joined) into
// frame.Keywords. It stops as soon as the next word isn't a known keyword
// literal, leaving the remaining words for the caller's own loop -- the
// command's handler stays bound to host itself (registration always
// resets the parser's cursor back to the node preceding '{' once '}'
// closes), so this never changes which node owns the eventual handler.
func (t *Tree) consumeKeywordBlock(host *node, words []string, j int, frame *MatchFrame) int {
	for j < len(words) {
		var kwNode *node
		var key string
		for _, id := range host.keywordChildren {
			kn := t.nodes[id]
			for _, tok := range kn.tokens {
				if tok.Kind == LiteralToken && tok.Key == words[j] {
					kwNode, key = kn, tok.Key
				}
			}
			if kwNode != nil {
				break
			}
		}
		if kwNode == nil {
			break
		}
		j++

		var values []string
		walk := kwNode
		for j < len(words) && len(walk.children) > 0 {
			cands := t.candidatesFor(walk, words[j])
			best, ok := bestCandidate(cands)
			if !ok {
				break
			}
			values = append(values, words[j])
			walk = best.n
			j++
		}
		if len(values) == 0 {
			// A bare keyword with no trailing argument chain is recorded
			// with the present-sentinel "1", matching cmdopt_parse's
			// keyword-presence flag semantics (spec.md §3/§4.C.4).
			frame.Keywords[key] = "1"
		} else {
			frame.Keywords[key] = strings.Join(values, " ")
		}
	}
	return j
}

// Format strings for the exact "%% ..." messages of spec.md §4.C's error
// table, ported from cmd_execute's switch over its result code
// (_examples/original_source/cli-tree.c:1018-1048). Each "%%%%" formats
// to the literal "%%" prefix.
const (
	msgInvalidCommand     = "%%%% Invalid command - %s."
	msgUnknownCommand     = "%%%% Unknown command - %s."
	msgCommandIncomplete  = "%%%% Command incomplete."
	msgCommandReturnError = "%%%% Command return error %d."
)

// tokenize splits line into words, honoring the pipe-suffix split ("|
// include <regex>" or "| <shell command>") so that the matcher never sees
// the pipe portion as part of the command's own grammar. hasPipe reports
// whether line contained a '|' at all, distinguishing an empty line (no
// output, matches cmd_execute's wordc==0 success-with-nothing-to-do) from
// a line that is only a pipe suffix such as "| foo" (cmd_execute's i==0
// case, reported as an invalid command).
func tokenize(line string) (words []string, pipe string, hasPipe bool) {
	if idx := strings.Index(line, "|"); idx >= 0 {
		return strings.Fields(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	return strings.Fields(line), "", false
}

// Execute parses line against the tree, captures its argument frame, and
// invokes the matched node's handler, redirecting its output through any
// pipe suffix. It mirrors cmd_execute's fall-through error-message table
// (each failure mode has one fixed "%% ..." message in the original).
func (t *Tree) Execute(ctx *ExecContext, line string) error {
	words, pipeSpec, hasPipe := tokenize(line)
	if len(words) == 0 {
		if hasPipe {
			return newError(NoMatch, msgInvalidCommand, line)
		}
		return ErrNothingToDo
	}
	if len(words) > MaxArgc {
		return newError(ExceedArgcMax, "%% Too many arguments.")
	}

	frame := &MatchFrame{Keywords: map[string]string{}}
	cur := t.root()

	for i := 0; i < len(words); i++ {
		w := words[i]
		cands := t.candidatesFor(cur, w)
		best, ok := bestCandidate(cands)
		if !ok {
			return newError(NoMatch, msgUnknownCommand, line)
		}

		switch best.tok.Kind {
		case VarargToken:
			frame.Argv = append(frame.Argv, words[i:]...)
			frame.Vararg = append(frame.Vararg, words[i:]...)
			cur = best.n
			i = len(words)
		case VariableToken:
			frame.Argv = append(frame.Argv, w)
			cur = best.n
		case OptionToken:
			frame.Argv = append(frame.Argv, w)
			cur = best.n
		default:
			cur = best.n
		}

		if len(cur.keywordChildren) > 0 && i+1 < len(words) {
			i = t.consumeKeywordBlock(cur, words, i+1, frame) - 1
		}
	}

	if cur.handler == nil {
		return newError(Incomplete, msgCommandIncomplete)
	}

	var out io.Writer = ctx.Out
	var pipeCloser func() error
	if pipeSpec != "" {
		w, closer, err := openPipe(ctx.Out, pipeSpec)
		if err != nil {
			return newError(System, "%% %s", err)
		}
		out = w
		pipeCloser = closer
	}

	subCtx := &ExecContext{Out: out, State: ctx.State}
	err := cur.handler(subCtx, frame)
	if pipeCloser != nil {
		if cerr := pipeCloser(); cerr != nil && err == nil {
			err = cerr
		}
	}

	if err == nil {
		return nil
	}

	var code ExitCode
	if errors.As(err, &code) {
		return newError(Warning, msgCommandReturnError, int(code))
	}
	return newError(Warning, msgCommandReturnError, 1)
}
