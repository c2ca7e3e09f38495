package internal_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/zephyrtronium/urbi"
	"github.com/zephyrtronium/urbi/testutils"
)

// TestConnectionOutput tests the lines a connection writes for programs.
func TestConnectionOutput(t *testing.T) {
	cases := map[string]struct {
		src   string
		lines []string
		fail  bool
	}{
		"value":  {src: `{kind: call, target: 1, name: "+", args: [1]}`, lines: []string{"2"}},
		"string": {src: `"hi"`, lines: []string{`"hi"`}},
		"list":   {src: `{kind: list, elems: [1, "a"]}`, lines: []string{`[1, "a"]`}},
		"void":   {src: `{kind: void}`},
		"echo":   {src: `{kind: call, name: echo, args: ["hi"]}`, lines: []string{"*** hi"}},
		"echoNumber": {
			src:   `{kind: call, name: echo, args: [1.5]}`,
			lines: []string{"*** 1.5"},
		},
		"print": {src: `{kind: call, name: print, args: ["a"]}`, lines: []string{`"a"`, `"a"`}},
		"throw": {src: `{kind: throw, value: 42}`, lines: []string{"!!! 42"}, fail: true},
		"class": {
			src:   `{kind: call, name: nope}`,
			lines: []string{"!!! LookupFailure: lookup failed: nope"},
			fail:  true,
		},
		"detachedFailure": {
			src:   `{kind: nary, stmts: [{kind: call, name: detach, args: [{kind: throw, value: 1}]}, {kind: call, name: yield}, 2]}`,
			lines: []string{"!!! 1", "2"},
		},
		"collectedFailure": {
			src:   `{kind: nary, stmts: [{expr: {kind: throw, value: 1}, flavor: ","}]}`,
			lines: []string{"!!! 1"},
			fail:  true,
		},
		"caught": {
			src:   `{kind: try, body: {kind: throw, value: 1}, handlers: [{body: 2}]}`,
			lines: []string{"2"},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			vm := testutils.NewVM(urbi.DefaultConfig())
			var out testutils.Output
			conn := vm.NewConnection(&out)
			err := conn.Exec(testutils.Decode(t, c.src, name))
			if (err != nil) != c.fail {
				t.Errorf("wrong error: %v", err)
			}
			lines := out.Lines()
			if len(lines) != len(c.lines) {
				t.Fatalf("wrong output: want %q, have %q", c.lines, lines)
			}
			for i := range lines {
				if lines[i] != c.lines[i] {
					t.Errorf("wrong line %d: want %q, have %q", i, c.lines[i], lines[i])
				}
			}
		})
	}
}

// TestConnectionTrace tests that uncaught exceptions report their call
// stacks.
func TestConnectionTrace(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	var out testutils.Output
	conn := vm.NewConnection(&out)
	src := `{kind: nary, stmts: [
		{kind: declare, ref: {name: f, index: 0}, value: {kind: function, name: f, body: {kind: throw, value: 1}}},
		{kind: invoke, callee: {kind: local, ref: {name: f, index: 0}}, line: 7}]}`
	err := conn.Exec(testutils.Decode(t, src, "prog.yaml"))
	var e *urbi.Exception
	if !errors.As(err, &e) {
		t.Fatalf("wrong error: %v", err)
	}
	if e.Class != urbi.LanguageException {
		t.Errorf("wrong class: %v", e.Class)
	}
	lines := out.Lines()
	if len(lines) != 2 {
		t.Fatalf("wrong output: %q", lines)
	}
	if lines[0] != "!!! 1" {
		t.Errorf("wrong message line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "!!!    called from: f (") || !strings.Contains(lines[1], "prog.yaml") {
		t.Errorf("wrong trace line: %q", lines[1])
	}
	if !strings.Contains(out.String(), ":error] !!! 1") {
		t.Errorf("error lines not on the error channel: %q", out.String())
	}
}

// TestConnectionTimestamps tests output timestamps.
func TestConnectionTimestamps(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		vm := testutils.NewVM(urbi.DefaultConfig())
		var out testutils.Output
		conn := vm.NewConnection(&out)
		if err := conn.Exec(testutils.Decode(t, `2`, "ts")); err != nil {
			t.Fatal(err)
		}
		if ok, _ := regexp.MatchString(`^\[\d{8}\] 2\n$`, out.String()); !ok {
			t.Errorf("wrong output: %q", out.String())
		}
	})
	t.Run("format", func(t *testing.T) {
		cfg := urbi.DefaultConfig()
		cfg.TimestampFormat = "%Y"
		vm := testutils.NewVM(cfg)
		var out testutils.Output
		conn := vm.NewConnection(&out)
		before := time.Now().Year()
		if err := conn.Exec(testutils.Decode(t, `2`, "ts")); err != nil {
			t.Fatal(err)
		}
		after := time.Now().Year()
		s := out.String()
		if !strings.HasPrefix(s, "["+time.Date(before, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")+"] ") &&
			!strings.HasPrefix(s, "["+time.Date(after, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")+"] ") {
			t.Errorf("wrong output: %q", s)
		}
	})
}

// TestConnectionLobby tests that each connection has its own lobby.
func TestConnectionLobby(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	var out1, out2 testutils.Output
	c1, c2 := vm.NewConnection(&out1), vm.NewConnection(&out2)
	if c1.Lobby == c2.Lobby || !c1.Lobby.IsA(vm.Lobby) {
		t.Fatal("connection lobbies are not distinct clones of Lobby")
	}
	r, err := c1.ExecContext(context.Background(), testutils.Decode(t, `{kind: this}`, "this"))
	if err != nil || r != c1.Lobby {
		t.Errorf("program target is not the connection's lobby: %v", err)
	}
	r, err = c1.ExecContext(context.Background(), testutils.Decode(t, `{kind: call, name: lobby}`, "lobby"))
	if err != nil || r != c1.Lobby {
		t.Errorf("lobby slot is not the connection's lobby: %v", err)
	}
	if err := c1.Exec(testutils.Decode(t, `{kind: slotdeclare, name: z, value: 1}`, "decl")); err != nil {
		t.Fatal(err)
	}
	if err := c1.Exec(testutils.Decode(t, `{kind: call, name: z}`, "read1")); err != nil {
		t.Errorf("slot not visible on its own connection: %v", err)
	}
	err = c2.Exec(testutils.Decode(t, `{kind: call, name: z}`, "read2"))
	if !errors.Is(err, urbi.LookupFailure) {
		t.Errorf("slot visible on another connection: %v", err)
	}
}

// TestConnectionContext tests that ExecContext gives up when its context
// ends.
func TestConnectionContext(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	conn := vm.NewConnection(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := conn.ExecContext(ctx, testutils.Decode(t, `{kind: loop, body: {kind: call, name: yield}}`, "loop"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("wrong error: %v", err)
	}
}

// TestConnectionEcho tests writing messages from Go.
func TestConnectionEcho(t *testing.T) {
	vm := testutils.NewVM(urbi.DefaultConfig())
	var out testutils.Output
	conn := vm.NewConnection(&out)
	conn.Echo("ready")
	if l := out.Lines(); len(l) != 1 || l[0] != "*** ready" {
		t.Errorf("wrong output: %q", l)
	}
}
