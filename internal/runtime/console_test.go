package runtime

import (
	"bytes"
	"strings"
	"testing"
)

func newTestConsole() (*Console, *bytes.Buffer, *bytes.Buffer, *Clock) {
	var out, errOut bytes.Buffer
	clock := NewClock()
	return NewConsole(&out, &errOut, clock), &out, &errOut, clock
}

func TestFormatSpecifiers(t *testing.T) {
	tests := []struct {
		name string
		args []interface{}
		want string
	}{
		{"string and numbers", []interface{}{"Name: %s, Age: %d, Score: %f", "Alice", float64(30), 95.5}, "Name: Alice, Age: 30, Score: 95.5"},
		{"percent escape", []interface{}{"100%% sure"}, "100% sure"},
		{"missing argument stays literal", []interface{}{"a=%d b=%d", float64(1)}, "a=1 b=%d"},
		{"extra arguments space-joined", []interface{}{"x=%d", float64(1), "extra", float64(2)}, "x=1 extra 2"},
		{"integer specifier truncates", []interface{}{"%i", 3.9}, "3"},
		{"no specifiers joins with spaces", []interface{}{"a", float64(1), true}, "a 1 true"},
		{"object inspect", []interface{}{"%o", NewArray(float64(1), "two")}, "[ 1, 'two' ]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatConsoleArgs(tt.args); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogRoutesToStdoutAndErrorToStderr(t *testing.T) {
	c, out, errOut, _ := newTestConsole()
	c.Log("hello")
	c.Error("bad")
	c.Warn("careful")
	if out.String() != "hello\n" {
		t.Errorf("stdout: %q", out.String())
	}
	if errOut.String() != "bad\ncareful\n" {
		t.Errorf("stderr: %q", errOut.String())
	}
}

func TestCountMaintainsPerLabelCounters(t *testing.T) {
	c, out, _, _ := newTestConsole()
	c.Count("a")
	c.Count("a")
	c.Count("b")
	c.Count("a")
	want := "a: 1\na: 2\nb: 1\na: 3\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestTimeUsesVirtualClock(t *testing.T) {
	c, out, _, clock := newTestConsole()
	c.Time("job")
	clock.NowMs += 125
	c.TimeEnd("job")
	if out.String() != "job: 125ms\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestTracePrintsPrefix(t *testing.T) {
	c, _, errOut, _ := newTestConsole()
	c.Trace("here")
	if errOut.String() != "Trace: here\n" {
		t.Errorf("got %q", errOut.String())
	}
}

func TestGroupIndentsOutput(t *testing.T) {
	c, out, _, _ := newTestConsole()
	c.Log("top")
	c.Group("section")
	c.Log("inner")
	c.GroupEnd()
	c.Log("after")
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if lines[2] != "  inner" || lines[3] != "after" {
		t.Errorf("got %q", lines)
	}
}
