package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

type command struct {
	name  string
	usage string
	// auth commands need a session.
	auth bool
	run  func(ctx context.Context, args []string) error
}

// execIface is the command surface the REPL needs. The real App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	commands() []command
}

// runREPL reads a line from scanner, parses the first token as the command
// and dispatches it with the remaining tokens. The loop exits on EOF or
// when the user types "exit" or "quit".
//
// Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	byName := map[string]command{}
	for _, c := range a.commands() {
		byName[c.name] = c
	}

	for {
		fmt.Fprintf(w, "cashbook %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			fmt.Fprintln(w, "Available commands:", strings.Join(available(a), ", "))
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		}

		c, ok := byName[name]
		if !ok {
			fmt.Fprintln(w, "Unknown command:", name)
			continue
		}
		switch logged := a.isLoggedIn(); {
		case c.auth && !logged:
			fmt.Fprintln(w, "Please log in first")
			continue
		case !c.auth && logged:
			fmt.Fprintln(w, "Already logged in")
			continue
		}
		if err := c.run(ctx, args); err != nil {
			if errors.Is(err, errUsage) && c.usage != "" {
				fmt.Fprintln(w, "Usage:", c.usage)
				continue
			}
			fmt.Fprintln(w, "Error:", err)
		}
	}
}

func available(a execIface) []string {
	logged := a.isLoggedIn()
	var names []string
	for _, c := range a.commands() {
		if c.auth == logged {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return append(names, "help", "exit")
}
