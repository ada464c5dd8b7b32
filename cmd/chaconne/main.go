// Command chaconne is a small demo host embedding the interpreter: it puts
// the controlling terminal into raw mode, registers a couple of example
// commands alongside the library's built-ins, and feeds stdin byte by byte
// into a term.Session until a quit/exit command or EOF, grounded on
// kylelemons-goat/goat.go for the raw-mode-then-defer-reset shape and
// original_source/main.c for the signal-driven raw-mode re-entry.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/bablon/Chaconne/cli"
	"github.com/bablon/Chaconne/term"
	"github.com/bablon/Chaconne/termios"
)

type options struct {
	Name    string `short:"n" long:"name" description:"session prompt name" default:"Chaconne"`
	Verbose bool   `short:"v" long:"verbose" description:"enable debug logging"`
}

type echoArgs struct {
	Text string `chaconne:"pos=0"`
}

func cmdEcho(ctx *cli.ExecContext, frame *cli.MatchFrame) error {
	spec := cli.NewOptionSpec(&echoArgs{})
	bound, err := spec.Bind(frame)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s\r\n", bound.(*echoArgs).Text)
	return nil
}

type pingArgs struct {
	Host  string `chaconne:"pos=0"`
	Count string `chaconne:"key=count"`
}

func cmdPing(ctx *cli.ExecContext, frame *cli.MatchFrame) error {
	spec := cli.NewOptionSpec(&pingArgs{})
	bound, err := spec.Bind(frame)
	if err != nil {
		return err
	}
	a := bound.(*pingArgs)
	count := a.Count
	if count == "" {
		count = "1"
	}
	fmt.Fprintf(ctx.Out, "PING %s: count=%s\r\n", a.Host, count)
	return nil
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	logCfg := zap.NewProductionConfig()
	if opts.Verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	log, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer log.Sync()

	tree, errs := cli.NewTree(log, []cli.Command{
		{
			Syntax:  "echo TEXT",
			Desc:    "echo\nthe word to print",
			Handler: cmdEcho,
		},
		{
			Syntax:  "ping HOST {count COUNT}",
			Desc:    "send a number of probes to a host\naddress to probe\nnumber of probes to send\nhow many probes to send",
			Handler: cmdPing,
		},
	})
	for _, e := range errs {
		log.Warn("command registration error", zap.Error(e))
	}

	tio, err := termios.NewTermSettings(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal("termios init failed", zap.Error(err))
	}
	if err := tio.Raw(); err != nil {
		log.Fatal("entering raw mode failed", zap.Error(err))
	}
	defer tio.Reset()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGCONT, syscall.SIGTSTP)
	go func() {
		for range sigc {
			tio.Raw()
		}
	}()

	sess := term.NewSession(log, tree, opts.Name)
	if w, h, err := tio.GetSize(); err == nil {
		sess.SetWidth(w)
		log.Debug("terminal size", zap.Int("cols", w), zap.Int("rows", h))
	}

	sess.FlushTo(os.Stdout)

	buf := make([]byte, 1)
	for !sess.Done() {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			break
		}
		if n == 0 {
			continue
		}
		sess.Feed(buf[0])
		sess.FlushTo(os.Stdout)
	}
}
