package cli

import (
	"fmt"
	"os/exec"
	"strings"
)

// SessionState is implemented by whatever a host installs in
// ExecContext.State so that the built-in commands (list, quit/exit, show
// history, show cmdtree) can reach back into the owning session;
// term.Session satisfies it. Kept as a narrow interface here, rather than
// an import of package term, to avoid a cli<->term import cycle
// (term.Session itself embeds a *Tree).
type SessionState interface {
	Tree() *Tree
	HistoryLines() []string
	RequestQuit()
}

// builtinCommands returns the always-registered command set, ported from
// the COMMON_COMMAND block and cmd_list_elems/_cmd_tree_dump in
// original_source/cli-tree.c.
func builtinCommands() []Command {
	return []Command{
		{
			Syntax:  "list",
			Desc:    "List every registered command.",
			Handler: cmdList,
		},
		{
			Syntax:  "quit",
			Desc:    "End the session.",
			Handler: cmdQuit,
		},
		{
			Syntax:  "exit",
			Desc:    "End the session.",
			Handler: cmdQuit,
		},
		{
			Syntax:  "show history",
			Desc:    "Show the session's command history.",
			Handler: cmdShowHistory,
		},
		{
			Syntax:  "show cmdtree",
			Desc:    "Dump the compiled command tree.",
			Handler: cmdShowTree,
		},
		{
			Syntax:  "system .ARGS",
			Desc:    "Run a shell command and print its output.",
			Handler: cmdSystem,
		},
	}
}

func cmdList(ctx *ExecContext, frame *MatchFrame) error {
	sess, ok := ctx.State.(SessionState)
	if !ok {
		return fmt.Errorf("list: no tree bound to this session")
	}
	sess.Tree().List(ctx.Out)
	return nil
}

func cmdQuit(ctx *ExecContext, frame *MatchFrame) error {
	if sess, ok := ctx.State.(SessionState); ok {
		sess.RequestQuit()
	}
	return nil
}

func cmdShowHistory(ctx *ExecContext, frame *MatchFrame) error {
	sess, ok := ctx.State.(SessionState)
	if !ok {
		return fmt.Errorf("show history: no history bound to this session")
	}
	for i, line := range sess.HistoryLines() {
		fmt.Fprintf(ctx.Out, "  %3d  %s\r\n", i+1, line)
	}
	return nil
}

func cmdShowTree(ctx *ExecContext, frame *MatchFrame) error {
	sess, ok := ctx.State.(SessionState)
	if !ok {
		return fmt.Errorf("show cmdtree: no tree bound to this session")
	}
	tree := sess.Tree()
	tree.dump(ctx.Out, tree.root(), 0)
	return nil
}

func cmdSystem(ctx *ExecContext, frame *MatchFrame) error {
	if len(frame.Vararg) == 0 {
		return fmt.Errorf("system: missing command")
	}
	out, err := exec.Command("/bin/sh", "-c", strings.Join(frame.Vararg, " ")).CombinedOutput()
	ctx.Out.Write(out)
	if err != nil {
		return ExitCode(1)
	}
	return nil
}
