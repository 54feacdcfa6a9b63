package cli

import (
	"bufio"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

// MainLoop runs interactive prompt on terminal, otherwise executes stdin line by line.
// onSignal is called once on first termination signal, before exit.
func MainLoop(tag string, exec func(line string), complete func(d prompt.Document) []prompt.Suggest, onSignal func()) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		<-signalCh
		if onSignal != nil {
			onSignal()
		}
		os.Exit(1)
	}()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		prompt.New(exec, complete,
			prompt.OptionTitle(tag),
			prompt.OptionPrefix(tag+"> "),
		).Run()
		return
	}
	if err := ExecLines(os.Stdin, exec); err != nil {
		log.Fatal(err)
	}
}

// ExecLines feeds trimmed non-empty, non-comment lines to exec.
func ExecLines(r io.Reader, exec func(line string)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exec(line)
	}
	return scanner.Err()
}
