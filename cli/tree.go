package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Size-budget constants carried over from the original implementation
// (spec.md §9).
const (
	// MaxArgc bounds the number of positional arguments a single match
	// frame can hold.
	MaxArgc = 64
)

// HandlerFunc is invoked when a line matches a registered command. It
// writes its output into ctx.Out and returns nil on success.
type HandlerFunc func(ctx *ExecContext, frame *MatchFrame) error

// ExitCode is a typed error a handler can return to report a specific
// non-zero status, surfaced to the user as "%% Command return error <N>.".
// A handler that returns a plain error is treated as ExitCode(1).
type ExitCode int

func (e ExitCode) Error() string {
	return fmt.Sprintf("command exited with code %d", int(e))
}

// Command is one entry in the registration surface: a syntax string, its
// paired help text, and a handler. A handler that wants reflective
// argument binding constructs its own *OptionSpec via NewOptionSpec and
// calls Bind on the MatchFrame it's given -- OptionSpec is a binding
// helper a handler opts into, not something Tree tracks per node.
type Command struct {
	Syntax  string
	Desc    string
	Handler HandlerFunc
}

// node is one position in the compiled grammar tree. Children are
// referenced by index into the owning Tree's node arena rather than by
// pointer, so that "parent" is a lookup instead of a raw back-pointer
// (spec.md §9's arena-allocator redesign note).
type node struct {
	id       int
	parentID int // -1 for the root

	tokens []Token

	children        []int
	keywordChildren []int

	handler HandlerFunc
}

// Tree is the compiled, shared-prefix command tree. Once NewTree returns, a
// Tree is immutable and safe for concurrent read-only use by any number of
// sessions (spec.md §5).
type Tree struct {
	nodes []*node // nodes[0] is the root
	log   *zap.Logger

	registered []Command // in registration (sorted) order, for `list`
}

func (t *Tree) root() *node { return t.nodes[0] }

func (t *Tree) newNode(parentID int, tokens []Token) *node {
	n := &node{id: len(t.nodes), parentID: parentID, tokens: tokens}
	t.nodes = append(t.nodes, n)
	return n
}

func (t *Tree) parentOf(n *node) *node {
	if n.parentID < 0 {
		return nil
	}
	return t.nodes[n.parentID]
}

// NewTree compiles cmds (plus the always-present built-ins) into a Tree.
// Commands are registered in sorted order by syntax string for
// deterministic layout, matching cmd_tree_build's qsort. A malformed
// syntax string produces an entry in the returned error slice without
// preventing the other commands from registering, matching the original's
// per-element register-and-continue loop.
func NewTree(log *zap.Logger, cmds []Command) (*Tree, []error) {
	if log == nil {
		log = zap.NewNop()
	}

	all := append(append([]Command(nil), builtinCommands()...), cmds...)
	sort.Slice(all, func(i, j int) bool { return all[i].Syntax < all[j].Syntax })

	t := &Tree{log: log}
	t.newNode(-1, nil) // root

	var errs []error
	for _, c := range all {
		if err := t.register(c); err != nil {
			log.Warn("failed to register command", zap.String("syntax", c.Syntax), zap.Error(err))
			errs = append(errs, fmt.Errorf("register %q: %w", c.Syntax, err))
			continue
		}
		t.registered = append(t.registered, c)
	}

	return t, errs
}

// parserState tracks the grammar compiler's cursor through one command's
// syntax and help strings, ported from struct parser_state in
// original_source/cli-tree.c.
type parserState struct {
	words   []string
	descs   []string
	pos     int
	descIdx int

	inGroup   bool
	inKeyword bool
	// keywordPendingKey is true right after '{' or '|' inside a keyword
	// block: the next word read is the keyword literal itself (a new
	// keywordChildren entry of saveParent), and words after it are that
	// keyword's own ordinary argument chain (added as normal children),
	// not further keyword alternatives.
	keywordPendingKey bool

	groupTokens []Token

	parent     *node
	saveParent *node
}

func (t *Tree) register(cmd Command) error {
	words := strings.Fields(strings.NewReplacer("(", " ( ", ")", " ) ", "{", " { ", "}", " } ", "|", " | ").Replace(cmd.Syntax))
	descs := splitDesc(cmd.Desc)

	st := &parserState{words: words, descs: descs, parent: t.root()}

	for st.pos < len(st.words) {
		w := st.words[st.pos]
		var err error
		switch w {
		case "{":
			err = st.beginKeyword()
		case "}":
			err = st.endKeyword()
		case "(":
			err = st.beginGroup()
		case ")":
			err = t.endGroup(st)
		case "|":
			err = t.handlePipe(st)
		default:
			err = t.readWord(st, w)
		}
		if err != nil {
			return err
		}
		st.pos++
	}

	if st.inGroup || st.inKeyword {
		return fmt.Errorf("unterminated group or keyword block")
	}

	st.parent.handler = cmd.Handler
	if len(st.parent.tokens) == 1 && st.parent.tokens[0].Kind == VarargToken {
		if parent := t.parentOf(st.parent); parent != nil {
			parent.handler = cmd.Handler
		}
	}

	return nil
}

func splitDesc(desc string) []string {
	var out []string
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (st *parserState) nextDesc() string {
	if st.descIdx >= len(st.descs) {
		return ""
	}
	d := st.descs[st.descIdx]
	st.descIdx++
	return d
}

func (st *parserState) beginGroup() error {
	if st.inKeyword {
		return fmt.Errorf("'(' is invalid inside a keyword block")
	}
	if st.inGroup {
		return fmt.Errorf("nested groups are not supported")
	}
	st.inGroup = true
	st.groupTokens = nil
	return nil
}

func (t *Tree) endGroup(st *parserState) error {
	if !st.inGroup {
		return fmt.Errorf("')' without matching '('")
	}
	if len(st.groupTokens) == 0 {
		return fmt.Errorf("empty alternation group")
	}
	st.inGroup = false

	n := t.findMultiTokenNode(st.parent, st.groupTokens)
	if n == nil {
		n = t.newNode(st.parent.id, st.groupTokens)
		st.parent.children = append(st.parent.children, n.id)
	}
	st.parent = n
	st.groupTokens = nil
	return nil
}

func (st *parserState) beginKeyword() error {
	if st.inKeyword {
		return fmt.Errorf("nested keyword blocks are not supported")
	}
	if st.inGroup {
		return fmt.Errorf("'{' is invalid inside a group")
	}
	st.inKeyword = true
	st.keywordPendingKey = true
	st.saveParent = st.parent
	return nil
}

func (st *parserState) endKeyword() error {
	if st.inGroup {
		return fmt.Errorf("'}' is invalid inside a group")
	}
	if !st.inKeyword {
		return fmt.Errorf("'}' without matching '{'")
	}
	st.inKeyword = false
	st.keywordPendingKey = false
	st.parent = st.saveParent
	return nil
}

func (t *Tree) handlePipe(st *parserState) error {
	if st.inGroup {
		return nil
	}
	if st.inKeyword {
		st.parent = st.saveParent
		st.keywordPendingKey = true
		return nil
	}
	return fmt.Errorf("'|' outside a group or keyword block")
}

func (t *Tree) readWord(st *parserState, word string) error {
	tok := Token{Key: word, Desc: st.nextDesc(), Kind: classify(word)}

	if st.inGroup {
		st.groupTokens = append(st.groupTokens, tok)
		return nil
	}

	if st.inKeyword && st.keywordPendingKey {
		n := t.findSingleTokenNode(st.parent, tok.Key, true)
		if n == nil {
			n = t.newNode(st.parent.id, []Token{tok})
			st.parent.keywordChildren = append(st.parent.keywordChildren, n.id)
		}
		st.parent = n
		st.keywordPendingKey = false
		return nil
	}

	n := t.findSingleTokenNode(st.parent, tok.Key, false)
	if n == nil {
		n = t.newNode(st.parent.id, []Token{tok})
		st.parent.children = append(st.parent.children, n.id)
	}
	st.parent = n
	return nil
}

func (t *Tree) findSingleTokenNode(parent *node, key string, keyword bool) *node {
	ids := parent.children
	if keyword {
		ids = parent.keywordChildren
	}
	for _, id := range ids {
		n := t.nodes[id]
		for _, tok := range n.tokens {
			if tok.Key == key {
				return n
			}
		}
	}
	return nil
}

func (t *Tree) findMultiTokenNode(parent *node, tokens []Token) *node {
	want := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		want[tok.Key] = true
	}

	for _, id := range parent.children {
		n := t.nodes[id]
		if len(n.tokens) == 1 {
			continue
		}
		if len(n.tokens) != len(want) {
			continue
		}
		matched := true
		for _, tok := range n.tokens {
			if !want[tok.Key] {
				matched = false
				break
			}
		}
		if matched {
			return n
		}
	}
	return nil
}

// List writes every registered command's syntax string, sorted, to w --
// the `list` built-in, grounded on cmd_list_elems.
func (t *Tree) List(w io.Writer) {
	for _, c := range t.registered {
		fmt.Fprintf(w, "  %s\r\n", c.Syntax)
	}
}

// dump writes an indented ASCII rendering of the subtree rooted at n to w,
// the `show cmdtree` built-in, ported from _cmd_tree_dump.
func (t *Tree) dump(w io.Writer, n *node, depth int) {
	for _, tok := range n.tokens {
		indent := strings.Repeat("  ", depth)
		mark := " "
		if n.handler != nil {
			mark = "*"
		}
		fmt.Fprintf(w, "%s%s%s (%s)\r\n", indent, mark, tok.Key, tok.Kind)
	}
	for _, id := range n.children {
		t.dump(w, t.nodes[id], depth+1)
	}
	for _, id := range n.keywordChildren {
		t.dump(w, t.nodes[id], depth+1)
	}
}
