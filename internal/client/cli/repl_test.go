package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
	panic string
}

func (f *fakeExec) record(name string, args []string) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.record("login", nil)
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Signup(ctx context.Context) error        { f.record("signup", nil); return nil }
func (f *fakeExec) ResetPassword(ctx context.Context) error { f.record("reset-password", nil); return nil }
func (f *fakeExec) Logout(ctx context.Context) error {
	f.record("logout", nil)
	f.loggedIn = false
	return nil
}
func (f *fakeExec) WhoAmI(ctx context.Context) error   { f.record("whoami", nil); return nil }
func (f *fakeExec) Projects(ctx context.Context) error { f.record("projects", nil); return nil }
func (f *fakeExec) CreateProject(ctx context.Context, args []string) error {
	f.record("create", args)
	return nil
}
func (f *fakeExec) RenameProject(ctx context.Context, args []string) error {
	f.record("rename", args)
	return nil
}
func (f *fakeExec) DeleteProject(ctx context.Context, args []string) error {
	f.record("delete", args)
	return nil
}
func (f *fakeExec) ArchiveProject(ctx context.Context, args []string) error {
	f.record("archive", args)
	return nil
}
func (f *fakeExec) SelectProject(ctx context.Context, args []string) error {
	f.record("select", args)
	return nil
}
func (f *fakeExec) Send(ctx context.Context, args []string) error {
	f.record("send", args)
	if f.panic != "" {
		panic(f.panic)
	}
	return nil
}
func (f *fakeExec) Messages(ctx context.Context) error { f.record("messages", nil); return nil }
func (f *fakeExec) History(ctx context.Context) error  { f.record("history", nil); return nil }
func (f *fakeExec) Search(ctx context.Context, args []string) error {
	f.record("search", args)
	return nil
}
func (f *fakeExec) Export(ctx context.Context) error  { f.record("export", nil); return nil }
func (f *fakeExec) Import(ctx context.Context) error  { f.record("import", nil); return nil }
func (f *fakeExec) NewChat(ctx context.Context) error { f.record("newchat", nil); return nil }
func (f *fakeExec) Prefs(ctx context.Context, args []string) error {
	f.record("prefs", args)
	return nil
}
func (f *fakeExec) TwoFA(ctx context.Context, args []string) error {
	f.record("2fa", args)
	return nil
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"create My Project!",
		"send hello there",
		"m",
		"search hello",
		"2fa status",
		"logout",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "create", "send", "messages", "search", "2fa", "logout"}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
}

func TestRunREPL_ArgsArePassedThrough(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("create Side Quests\nselect side-quests\nquit\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 2 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	if got := strings.Join(exec.args[0], " "); got != "Side Quests" {
		t.Fatalf("create args: %q", got)
	}
	if got := strings.Join(exec.args[1], " "); got != "side-quests" {
		t.Fatalf("select args: %q", got)
	}
}

func TestRunREPL_PanicInHandlerKeepsLoopAlive(t *testing.T) {
	lines := silencePrintln(t)

	input := strings.NewReader("send boom\nwhoami\nexit\n")
	exec := &fakeExec{loggedIn: true, panic: "boom"}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if got := exec.calls; len(got) != 2 || got[0] != "send" || got[1] != "whoami" {
		t.Fatalf("loop did not survive the panic: %v", got)
	}

	found := false
	for _, l := range *lines {
		if strings.Contains(l, "send failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("panic diagnostic not printed: %v", *lines)
	}
}
