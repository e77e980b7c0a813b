package script

import (
	"strconv"
	"strings"
)

// call is a tokenized name(args) line. Each args entry keeps whether the
// literal parsed cleanly so per-command defaults stay explicit.
type call struct {
	name string
	args []argument
}

type argument struct {
	value float64
	ok    bool
}

// tokenize splits a normalized line into a call shape. A line without a
// parenthesized argument list is not a call and yields ok=false.
func tokenize(line string) (call, bool) {
	open := strings.IndexByte(line, '(')
	end := strings.LastIndexByte(line, ')')
	if open < 1 || end < open {
		return call{}, false
	}
	c := call{name: strings.TrimSpace(line[:open])}
	inner := strings.TrimSpace(line[open+1 : end])
	if inner == "" {
		return c, true
	}
	for _, raw := range strings.Split(inner, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		c.args = append(c.args, argument{value: v, ok: err == nil})
	}
	return c, true
}

// arg returns argument i, or def when it is absent or malformed.
func (c call) arg(i int, def float64) float64 {
	if i >= len(c.args) || !c.args[i].ok {
		return def
	}
	return c.args[i].value
}

// ParseLine maps one raw script line to a command. It assumes the line is
// non-empty and not a comment; normalization (trim, lowercase) happens here
// so manual callers get the same treatment as Parse.
func ParseLine(raw string, lineNo int) Command {
	norm := strings.ToLower(strings.TrimSpace(raw))
	cmd := Command{Kind: KindUnknown, Raw: norm, Line: lineNo}

	c, ok := tokenize(norm)
	if !ok {
		return cmd
	}
	switch c.name {
	case "takeoff":
		cmd.Kind = KindTakeoff
	case "land":
		cmd.Kind = KindLand
	case "forward", "backward", "left", "right":
		cmd.Kind = Kind(c.name)
		cmd.Value = c.arg(0, 1)
	case "yaw":
		cmd.Kind = KindYaw
		cmd.Value = c.arg(0, 0)
	case "hover":
		cmd.Kind = KindHover
		cmd.Value = c.arg(0, 1)
	case "waypoint":
		// Both coordinates must parse; a half-specified waypoint is not
		// a defined motion, so it degrades to Unknown.
		if len(c.args) < 2 || !c.args[0].ok || !c.args[1].ok {
			return cmd
		}
		cmd.Kind = KindWaypoint
		cmd.X = c.args[0].value
		cmd.Z = c.args[1].value
	case "print_telemetry":
		cmd.Kind = KindTelemetry
	}
	return cmd
}

// Parse splits a script into commands, dropping blank and comment lines.
func Parse(text string) []Command {
	var cmds []Command
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}
		cmds = append(cmds, ParseLine(line, i+1))
	}
	return cmds
}
