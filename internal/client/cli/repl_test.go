package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	args     [][]string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) record(name string) func(context.Context, []string) error {
	return func(_ context.Context, args []string) error {
		f.calls = append(f.calls, name)
		f.args = append(f.args, args)
		return nil
	}
}

func (f *fakeExec) commands() []command {
	return []command{
		{name: "login", run: func(ctx context.Context, args []string) error {
			f.loggedIn = true
			return f.record("login")(ctx, args)
		}},
		{name: "accounts", auth: true, run: f.record("accounts")},
		{name: "switch", usage: "switch <id>", auth: true, run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return f.record("switch")(ctx, args)
		}},
		{name: "accept", auth: true, run: func(context.Context, []string) error {
			return errors.New("invitation already handled")
		}},
		{name: "logout", auth: true, run: func(ctx context.Context, args []string) error {
			f.loggedIn = false
			return f.record("logout")(ctx, args)
		}},
	}
}

func run(t *testing.T, exec *fakeExec, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sc := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "(s)" }, sc, &out)
	return out.String()
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	exec := &fakeExec{}
	out := run(t, exec,
		"help",
		"accounts",
		"login",
		"login",
		"help",
		"",
		"accounts",
		"switch 7",
		"switch",
		"accept i1",
		"foobar",
		"logout",
		"exit",
		"accounts",
	)

	assert.Equal(t, []string{"login", "accounts", "switch", "logout"}, exec.calls)
	assert.Equal(t, []string{"7"}, exec.args[2])
	assert.Contains(t, out, "Available commands: login, help, exit")
	assert.Contains(t, out, "Available commands: accept, accounts, logout, switch, help, exit")
	assert.Contains(t, out, "Please log in first")
	assert.Contains(t, out, "Already logged in")
	assert.Contains(t, out, "Usage: switch <id>")
	assert.Contains(t, out, "Error: invitation already handled")
	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "cashbook (s)> ")
	assert.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestRunREPL_QuitAndEOF(t *testing.T) {
	exec := &fakeExec{loggedIn: true}
	out := run(t, exec, "quit", "accounts")
	assert.Empty(t, exec.calls)
	assert.Contains(t, out, "Bye!")

	exec = &fakeExec{loggedIn: true}
	run(t, exec, "accounts")
	assert.Equal(t, []string{"accounts"}, exec.calls)
}
