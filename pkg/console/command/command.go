// Package command parses operator command lines and routes them either to
// the console itself or to the server.
package command

import "strings"

// Command is a parsed operator line. The set of implementations is closed.
type Command interface {
	isCommand()
}

// Empty is a blank line. It does nothing.
type Empty struct{}

// Help lists the available commands.
type Help struct{}

// Quit shuts the console down.
type Quit struct{}

// ClearLog empties the log view.
type ClearLog struct{}

// Forward is any other line, passed to the server unchanged apart from
// surrounding whitespace.
type Forward struct {
	Raw string
}

func (Empty) isCommand()    {}
func (Help) isCommand()     {}
func (Quit) isCommand()     {}
func (ClearLog) isCommand() {}
func (Forward) isCommand()  {}

// Parse maps every line to exactly one Command.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	if line == "" {
		return Empty{}
	}
	switch strings.ToLower(line) {
	case "help":
		return Help{}
	case "quit", "exit":
		return Quit{}
	case "clear":
		return ClearLog{}
	}
	return Forward{Raw: line}
}
