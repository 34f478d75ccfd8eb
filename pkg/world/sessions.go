package world

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/modoterra/worldconsole/internal/buildinfo"
	"github.com/modoterra/worldconsole/pkg/core"
	"github.com/modoterra/worldconsole/pkg/transport/ndjson"
)

const maxNameLen = 16

var (
	errNotJoined   = errors.New("join first")
	errNameTaken   = errors.New("name taken")
	errInvalidName = errors.New("names are 1-16 letters, digits, - or _")
)

func (s *Server) registerHandlers(srv *ndjson.Server) {
	srv.Handle(ndjson.MethodPing, func(context.Context, ndjson.Message) (any, error) {
		return ndjson.PingResponse{Pong: true, Version: buildinfo.Version}, nil
	})
	srv.Handle(ndjson.MethodStatus, func(context.Context, ndjson.Message) (any, error) {
		return s.Status(), nil
	})
	srv.Handle(ndjson.MethodJoin, s.handleJoin)
	srv.Handle(ndjson.MethodChat, s.handleChat)
	srv.OnDisconnect(s.handleDisconnect)
}

func validName(name string) bool {
	if name == "" || len(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

func (s *Server) handleJoin(ctx context.Context, req ndjson.Message) (any, error) {
	var jr ndjson.JoinRequest
	if err := req.UnmarshalData(&jr); err != nil {
		return nil, err
	}
	if !validName(jr.Name) {
		return nil, errInvalidName
	}
	id := ndjson.ConnID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[id]; ok {
		return nil, fmt.Errorf("already joined")
	}
	if s.playerByNameLocked(jr.Name) != nil {
		return nil, errNameTaken
	}
	s.players[id] = &Player{Name: jr.Name, ConnID: id, Joined: s.now()}
	s.queueLocked(core.SeverityInfo, jr.Name+" joined")
	return ndjson.JoinResponse{PlayerID: id, Seed: s.seed, WorldTime: s.clock.String()}, nil
}

func (s *Server) handleChat(ctx context.Context, req ndjson.Message) (any, error) {
	var cr ndjson.ChatRequest
	if err := req.UnmarshalData(&cr); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(cr.Text)
	if text == "" {
		return nil, fmt.Errorf("empty message")
	}

	s.mu.Lock()
	p, ok := s.players[ndjson.ConnID(ctx)]
	if ok {
		s.queueLocked(core.SeverityInfo, fmt.Sprintf("<%s> %s", p.Name, text))
	}
	s.mu.Unlock()
	if !ok {
		return nil, errNotJoined
	}

	s.chat(p.Name, text)
	return struct{}{}, nil
}

func (s *Server) chat(from, text string) {
	evt, err := ndjson.NewEvent(ndjson.EventChat, ndjson.ChatEvent{From: from, Text: text})
	if err != nil {
		s.logger.Error("encode chat", "err", err)
		return
	}
	s.broadcast(evt)
}

func (s *Server) handleDisconnect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return
	}
	delete(s.players, id)
	s.queueLocked(core.SeverityInfo, p.Name+" left")
}

func (s *Server) playerByNameLocked(name string) *Player {
	for _, p := range s.players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}
