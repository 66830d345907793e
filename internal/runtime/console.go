package runtime

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Console backs the global `console` object (spec §6). log/info/debug
// write to Out, warn/error to Err; time/timeEnd/timeLog read the virtual
// clock, never the wall clock, so compiled-program output is
// deterministic.
type Console struct {
	Out   io.Writer
	Err   io.Writer
	Clock *Clock

	counts     map[string]float64
	timerStart map[string]float64
	groupDepth int
}

// NewConsole creates a console writing to out/err against clock.
func NewConsole(out, err io.Writer, clock *Clock) *Console {
	return &Console{Out: out, Err: err, Clock: clock, counts: map[string]float64{}, timerStart: map[string]float64{}}
}

func (c *Console) writeLine(w io.Writer, s string) {
	indent := strings.Repeat("  ", c.groupDepth)
	fmt.Fprint(w, indent+s+"\n")
}

// Log writes to stdout, applying format specifiers when the first
// argument is a string containing them.
func (c *Console) Log(args ...interface{})   { c.writeLine(c.Out, FormatConsoleArgs(args)) }
func (c *Console) Info(args ...interface{})  { c.writeLine(c.Out, FormatConsoleArgs(args)) }
func (c *Console) Debug(args ...interface{}) { c.writeLine(c.Out, FormatConsoleArgs(args)) }
func (c *Console) Warn(args ...interface{})  { c.writeLine(c.Err, FormatConsoleArgs(args)) }
func (c *Console) Error(args ...interface{}) { c.writeLine(c.Err, FormatConsoleArgs(args)) }

// Trace prints `Trace:` plus the message to stderr (spec §6; call-stack
// capture is not part of this subset's surface).
func (c *Console) Trace(args ...interface{}) {
	msg := FormatConsoleArgs(args)
	if msg == "" {
		c.writeLine(c.Err, "Trace:")
		return
	}
	c.writeLine(c.Err, "Trace: "+msg)
}

// Count prints `label: n` with a per-label counter.
func (c *Console) Count(label string) {
	if label == "" {
		label = "default"
	}
	c.counts[label]++
	c.writeLine(c.Out, label+": "+FormatNumber(c.counts[label]))
}

// CountReset zeroes a label's counter.
func (c *Console) CountReset(label string) {
	if label == "" {
		label = "default"
	}
	delete(c.counts, label)
}

// Time starts a named virtual-clock timer.
func (c *Console) Time(label string) {
	if label == "" {
		label = "default"
	}
	c.timerStart[label] = c.Clock.NowMs
}

// TimeLog prints the elapsed virtual milliseconds without stopping.
func (c *Console) TimeLog(label string, extra ...interface{}) {
	c.printElapsed(label, extra)
}

// TimeEnd prints the elapsed virtual milliseconds and clears the timer.
func (c *Console) TimeEnd(label string) {
	if label == "" {
		label = "default"
	}
	c.printElapsed(label, nil)
	delete(c.timerStart, label)
}

func (c *Console) printElapsed(label string, extra []interface{}) {
	if label == "" {
		label = "default"
	}
	start, ok := c.timerStart[label]
	if !ok {
		c.writeLine(c.Err, "Timer '"+label+"' does not exist")
		return
	}
	line := label + ": " + FormatNumber(c.Clock.NowMs-start) + "ms"
	if len(extra) > 0 {
		line += " " + FormatConsoleArgs(extra)
	}
	c.writeLine(c.Out, line)
}

// Group increases the indentation applied to subsequent lines.
func (c *Console) Group(args ...interface{}) {
	if len(args) > 0 {
		c.writeLine(c.Out, FormatConsoleArgs(args))
	}
	c.groupDepth++
}

// GroupEnd decreases the group indentation.
func (c *Console) GroupEnd() {
	if c.groupDepth > 0 {
		c.groupDepth--
	}
}

// FormatConsoleArgs renders a console argument list: when the first
// argument is a string containing format specifiers, `%s`/`%d`/`%i`/
// `%f`/`%o` consume the following arguments in order (`%%` is a literal
// percent); leftover arguments are space-joined at the end, and missing
// arguments leave their specifier literal in the output (spec §6).
func FormatConsoleArgs(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	format, ok := args[0].(string)
	if !ok || !containsSpecifier(format) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Inspect(a, true)
		}
		return strings.Join(parts, " ")
	}
	rest := args[1:]
	var out strings.Builder
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' || i+1 >= len(format) {
			out.WriteByte(ch)
			continue
		}
		spec := format[i+1]
		if spec == '%' {
			out.WriteByte('%')
			i++
			continue
		}
		if !isSpecifierByte(spec) {
			out.WriteByte(ch)
			continue
		}
		if len(rest) == 0 {
			// Missing argument: the specifier stays literal.
			out.WriteByte('%')
			out.WriteByte(spec)
			i++
			continue
		}
		arg := rest[0]
		rest = rest[1:]
		out.WriteString(formatSpecifier(spec, arg))
		i++
	}
	for _, extra := range rest {
		out.WriteByte(' ')
		out.WriteString(Inspect(extra, true))
	}
	return out.String()
}

func containsSpecifier(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '%' && (isSpecifierByte(s[i+1]) || s[i+1] == '%') {
			return true
		}
	}
	return false
}

func isSpecifierByte(b byte) bool {
	switch b {
	case 's', 'd', 'i', 'f', 'o':
		return true
	}
	return false
}

func formatSpecifier(spec byte, arg interface{}) string {
	switch spec {
	case 's':
		return Stringify(arg)
	case 'd', 'i':
		n := toNumberOrZero(arg)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return FormatNumber(n)
		}
		return FormatNumber(math.Trunc(n))
	case 'f':
		return FormatNumber(toNumberOrZero(arg))
	case 'o':
		return Inspect(arg, false)
	}
	return string(spec)
}

// Inspect renders a value the way console output shows it: strings are
// raw at the top level but quoted when nested inside arrays/objects.
func Inspect(v interface{}, topLevel bool) string {
	switch val := v.(type) {
	case string:
		if topLevel {
			return val
		}
		return "'" + val + "'"
	case *Array:
		if len(val.Elements) == 0 {
			return "[]"
		}
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			parts[i] = Inspect(e, false)
		}
		return "[ " + strings.Join(parts, ", ") + " ]"
	case *Object:
		keys := val.Keys()
		if len(keys) == 0 {
			return "{}"
		}
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Inspect(val.Get(k), false)
		}
		body := "{ " + strings.Join(parts, ", ") + " }"
		if val.Class != nil && val.Class.Name != "" {
			return val.Class.Name + " " + body
		}
		return body
	case *Map:
		entries := val.Entries()
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = Inspect(e[0], false) + " => " + Inspect(e[1], false)
		}
		return "Map(" + FormatNumber(float64(len(entries))) + ") { " + strings.Join(parts, ", ") + " }"
	case *Set:
		values := val.Values()
		parts := make([]string, len(values))
		for i, e := range values {
			parts[i] = Inspect(e, false)
		}
		return "Set(" + FormatNumber(float64(len(values))) + ") { " + strings.Join(parts, ", ") + " }"
	case *Function:
		if val.Name == "" {
			return "[Function (anonymous)]"
		}
		return "[Function: " + val.Name + "]"
	default:
		return Stringify(v)
	}
}
