package world

import (
	"fmt"
	"slices"
	"strings"

	"github.com/modoterra/worldconsole/pkg/core"
)

type command struct {
	usage string
	run   func(s *Server, args []string) core.CommandResult
}

// commandTable is filled in init since usage reads it.
var commandTable map[string]command

var commandOrder = []string{"spawn", "kill", "entities", "players", "kick", "say", "time", "save", "seed"}

func init() {
	commandTable = map[string]command{
		"spawn":    {"spawn <kind> [name]", (*Server).cmdSpawn},
		"kill":     {"kill <id|name>", (*Server).cmdKill},
		"entities": {"entities", (*Server).cmdEntities},
		"players":  {"players", (*Server).cmdPlayers},
		"kick":     {"kick <name>", (*Server).cmdKick},
		"say":      {"say <text>", (*Server).cmdSay},
		"time":     {"time [set day|night|HH:MM]", (*Server).cmdTime},
		"save":     {"save", (*Server).cmdSave},
		"seed":     {"seed", (*Server).cmdSeed},
	}
}

// Commands lists usage lines for help.
func (s *Server) Commands() []string {
	out := make([]string, 0, len(commandOrder))
	for _, name := range commandOrder {
		out = append(out, commandTable[name].usage)
	}
	return out
}

// HandleCommand runs one operator command line.
func (s *Server) HandleCommand(raw string) core.CommandResult {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return fail("empty command")
	}
	cmd, found := commandTable[strings.ToLower(fields[0])]
	if !found {
		return fail("unknown command: " + fields[0])
	}
	return cmd.run(s, fields[1:])
}

func ok(format string, args ...any) core.CommandResult {
	return core.CommandResult{OK: true, Message: fmt.Sprintf(format, args...)}
}

func fail(msg string) core.CommandResult {
	return core.CommandResult{OK: false, Message: msg}
}

func usage(name string) core.CommandResult {
	return fail("usage: " + commandTable[name].usage)
}

func (s *Server) cmdSpawn(args []string) core.CommandResult {
	if len(args) < 1 || len(args) > 2 {
		return usage("spawn")
	}
	name := ""
	if len(args) == 2 {
		name = args[1]
		if !validName(name) {
			return fail(errInvalidName.Error())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := newEntity(args[0], name, s.rng)
	for err == nil && s.hasEntityLocked(e.ID) {
		e, err = newEntity(args[0], name, s.rng)
	}
	if err != nil {
		return fail(err.Error())
	}
	s.entities = append(s.entities, e)
	return ok("spawned %s", e)
}

func (s *Server) hasEntityLocked(id string) bool {
	for _, e := range s.entities {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) cmdKill(args []string) core.CommandResult {
	if len(args) != 1 {
		return usage("kill")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entities {
		if e.ID == args[0] || strings.EqualFold(e.Name, args[0]) {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return ok("killed %s", e)
		}
	}
	return fail("no such entity: " + args[0])
}

const listLimit = 10

func (s *Server) cmdEntities([]string) core.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entities) == 0 {
		return ok("no entities")
	}
	names := make([]string, 0, listLimit)
	for i, e := range s.entities {
		if i == listLimit {
			names = append(names, fmt.Sprintf("and %d more", len(s.entities)-listLimit))
			break
		}
		names = append(names, e.String())
	}
	return ok("%d entities: %s", len(s.entities), strings.Join(names, ", "))
}

func (s *Server) cmdPlayers([]string) core.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return ok("no players online")
	}
	names := make([]string, 0, len(s.players))
	for _, p := range s.players {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	return ok("%d online: %s", len(names), strings.Join(names, ", "))
}

func (s *Server) cmdKick(args []string) core.CommandResult {
	if len(args) != 1 {
		return usage("kick")
	}
	s.mu.Lock()
	p := s.playerByNameLocked(args[0])
	s.mu.Unlock()
	if p == nil || s.net == nil {
		return fail("no such player: " + args[0])
	}
	if err := s.net.Disconnect(p.ConnID); err != nil {
		return fail("kick " + p.Name + ": " + err.Error())
	}
	return ok("kicked %s", p.Name)
}

func (s *Server) cmdSay(args []string) core.CommandResult {
	if len(args) == 0 {
		return usage("say")
	}
	text := strings.Join(args, " ")
	s.chat("server", text)
	return ok("[server] %s", text)
}

func (s *Server) cmdTime(args []string) core.CommandResult {
	switch {
	case len(args) == 0:
		s.mu.Lock()
		defer s.mu.Unlock()
		return ok("%s", s.clock)
	case len(args) == 2 && strings.EqualFold(args[0], "set"):
		m, err := ParseTimeOfDay(args[1])
		if err != nil {
			return fail(err.Error())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.clock.SetTimeOfDay(m)
		return ok("time set to %s", s.clock)
	default:
		return usage("time")
	}
}

func (s *Server) cmdSave([]string) core.CommandResult {
	if err := s.Save(); err != nil {
		return fail(err.Error())
	}
	s.mu.Lock()
	n := len(s.entities)
	s.mu.Unlock()
	return ok("saved %d entities to %s", n, s.cfg.SaveFile)
}

func (s *Server) cmdSeed([]string) core.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok("seed %d", s.seed)
}
