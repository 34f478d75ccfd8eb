// Package world is a small self-contained game server that the console
// drives: a seeded world of wandering entities, a day/night clock, and a
// game listener players join over NDJSON.
package world

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/modoterra/worldconsole/pkg/core"
	"github.com/modoterra/worldconsole/pkg/transport/ndjson"
)

// Server implements core.Server, core.StatusReporter and core.CommandLister.
type Server struct {
	cfg    core.ServerConfig
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	seed      int64
	rng       *rand.Rand
	clock     Clock
	entities  []Entity
	players   map[string]*Player // by connection id
	pending   []core.Event
	ticks     uint64
	tps       float64
	started   time.Time
	sinceSave time.Duration
	fault     error

	net      *ndjson.Server
	serveErr chan error
	stopOnce sync.Once
}

// Player is a connected, joined client.
type Player struct {
	Name   string
	ConnID string
	Joined time.Time
}

// New builds a world from cfg, restoring cfg.SaveFile when it exists.
func New(cfg core.ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		seed:     cfg.Seed,
		players:  make(map[string]*Player),
		serveErr: make(chan error, 1),
	}

	var snap *Snapshot
	if cfg.SaveFile != "" {
		var err error
		if snap, err = LoadSnapshot(cfg.SaveFile); err != nil {
			return nil, err
		}
	}
	if snap != nil {
		if snap.Seed != cfg.Seed {
			logger.Warn("save seed differs from configured seed, keeping save", "save", snap.Seed, "config", cfg.Seed)
		}
		s.seed = snap.Seed
		s.rng = newRNG(snap.Seed, snap.Ticks)
		s.clock = snap.Clock
		s.entities = snap.Entities
		s.ticks = snap.Ticks
		logger.Info("world loaded", "file", cfg.SaveFile, "entities", len(s.entities), "time", s.clock.String())
	} else {
		s.rng = newRNG(cfg.Seed, 0)
		s.clock.SetTimeOfDay(dawnMinute)
		s.entities = populate(s.rng)
		logger.Info("world generated", "seed", cfg.Seed, "entities", len(s.entities))
	}
	s.started = s.now()
	return s, nil
}

func newRNG(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// Start opens the game listener and serves it in the background. An empty
// listen address runs the world without one.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.ListenAddr == "" {
		return nil
	}
	network, address, err := core.ParseListenAddr(s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	srv := ndjson.NewServer(network, address, s.logger)
	s.registerHandlers(srv)
	if err := srv.Listen(); err != nil {
		return err
	}
	s.net = srv
	go func() {
		if err := srv.Serve(ctx); err != nil {
			s.serveErr <- err
		}
	}()
	return nil
}

// Addr is the game listener's address, or "" when not listening.
func (s *Server) Addr() string {
	if s.net == nil || s.net.Addr() == nil {
		return ""
	}
	return s.net.Addr().String()
}

// Tick advances the world by dt.
func (s *Server) Tick(dt time.Duration) ([]core.Event, error) {
	select {
	case err := <-s.serveErr:
		s.mu.Lock()
		s.fault = fmt.Errorf("%w: game listener: %v", core.ErrFatal, err)
		s.mu.Unlock()
	default:
	}

	var broadcasts []ndjson.Message
	s.mu.Lock()
	if s.fault != nil {
		err := s.fault
		s.mu.Unlock()
		return nil, err
	}

	s.ticks++
	if dt > 0 {
		inst := 1 / dt.Seconds()
		if s.tps == 0 {
			s.tps = inst
		} else {
			s.tps = s.tps*0.9 + inst*0.1
		}
	}

	wasDay := s.clock.IsDay()
	s.clock.Advance(dt)
	if isDay := s.clock.IsDay(); isDay != wasDay {
		msg := "dusk falls over the world"
		if isDay {
			msg = fmt.Sprintf("dawn breaks on day %d", s.clock.Day())
		}
		s.queueLocked(core.SeverityInfo, msg)
		if evt, err := ndjson.NewEvent(ndjson.EventWorld, ndjson.WorldEvent{Message: msg}); err == nil {
			broadcasts = append(broadcasts, evt)
		}
	}

	for i := range s.entities {
		s.entities[i].wander(s.rng, dt.Seconds())
	}

	if s.cfg.Autosave > 0 && s.cfg.SaveFile != "" {
		s.sinceSave += dt
		if s.sinceSave >= s.cfg.Autosave {
			s.sinceSave = 0
			if err := WriteSnapshot(s.cfg.SaveFile, s.snapshotLocked()); err != nil {
				s.queueLocked(core.SeverityWarn, "autosave failed: "+err.Error())
			} else {
				s.queueLocked(core.SeverityDebug, fmt.Sprintf("autosaved %d entities", len(s.entities)))
			}
		}
	}

	events := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.broadcast(broadcasts...)
	return events, nil
}

func (s *Server) queueLocked(sev core.Severity, msg string) {
	s.pending = append(s.pending, core.Event{
		Time:     s.now(),
		Severity: sev,
		Source:   core.SourceWorld,
		Message:  msg,
	})
}

func (s *Server) broadcast(msgs ...ndjson.Message) {
	if s.net == nil {
		return
	}
	for _, m := range msgs {
		s.net.Broadcast(m)
	}
}

// Status reports the world's health for the status line.
func (s *Server) Status() core.ServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ServerStatus{
		Ticks:     s.ticks,
		TPS:       s.tps,
		Uptime:    s.now().Sub(s.started),
		Players:   len(s.players),
		Entities:  len(s.entities),
		WorldTime: s.clock.String(),
	}
}

func (s *Server) snapshotLocked() *Snapshot {
	return &Snapshot{
		Seed:     s.seed,
		Ticks:    s.ticks,
		Clock:    s.clock,
		Entities: append([]Entity(nil), s.entities...),
		SavedAt:  s.now().UTC(),
	}
}

// Save writes the world to the configured save file.
func (s *Server) Save() error {
	if s.cfg.SaveFile == "" {
		return fmt.Errorf("saving disabled: no save file configured")
	}
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return WriteSnapshot(s.cfg.SaveFile, snap)
}

// SaveAndShutdown stops the listener, drops every player and saves.
func (s *Server) SaveAndShutdown() error {
	var err error
	s.stopOnce.Do(func() {
		if s.net != nil {
			s.net.Shutdown()
		}
		s.mu.Lock()
		clear(s.players)
		s.mu.Unlock()
		if s.cfg.SaveFile == "" {
			return
		}
		if err = s.Save(); err != nil {
			err = fmt.Errorf("save world: %w", err)
		}
	})
	return err
}
