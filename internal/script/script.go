// Package script parses the simulator's line-oriented pseudo-script into
// motion commands. The grammar is one command per line, case-insensitive,
// of the form name(arg, ...). Lines starting with the comment marker are
// skipped; lines matching no known command shape become Unknown commands,
// which the interpreter logs and tolerates.
package script

// Kind tags a parsed command.
type Kind string

const (
	KindTakeoff   Kind = "takeoff"
	KindLand      Kind = "land"
	KindForward   Kind = "forward"
	KindBackward  Kind = "backward"
	KindLeft      Kind = "left"
	KindRight     Kind = "right"
	KindYaw       Kind = "yaw"
	KindHover     Kind = "hover"
	KindWaypoint  Kind = "waypoint"
	KindTelemetry Kind = "print_telemetry"
	KindUnknown   Kind = "unknown"
)

// Command is one parsed script line. Value carries the single numeric
// argument (meters for moves, degrees for yaw, seconds for hover); X/Z are
// only set for waypoint commands. Raw is the normalized source line.
type Command struct {
	Kind  Kind
	Value float64
	X, Z  float64
	Raw   string
	Line  int
}

// CommentMarker prefixes lines the parser ignores.
const CommentMarker = "#"
