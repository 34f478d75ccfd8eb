package world

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modoterra/worldconsole/pkg/core"
	"github.com/modoterra/worldconsole/pkg/transport/ndjson"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorld(t *testing.T, cfg core.ServerConfig) *Server {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	s, err := New(cfg, discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.SaveAndShutdown() })
	return s
}

func messages(evs []core.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Message
	}
	return out
}

func TestSpawnUnknownEntity(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	res := s.HandleCommand("spawn foo")
	assert.Equal(t, core.CommandResult{OK: false, Message: "unknown entity"}, res)

	for _, k := range Kinds() {
		assert.True(t, s.HandleCommand("spawn "+k).OK, k)
	}
}

func TestSpawnListKill(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	before := s.Status().Entities

	res := s.HandleCommand("spawn Wolf fang")
	require.True(t, res.OK, res.Message)
	assert.Contains(t, res.Message, "spawned fang")
	assert.Equal(t, before+1, s.Status().Entities)

	res = s.HandleCommand("entities")
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "entities:")

	res = s.HandleCommand("kill FANG")
	require.True(t, res.OK, res.Message)
	assert.Equal(t, before, s.Status().Entities)

	res = s.HandleCommand("kill fang")
	assert.False(t, res.OK)
}

func TestCommandErrors(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	cases := map[string]string{
		"dance":             "unknown command: dance",
		"spawn":             "usage: spawn <kind> [name]",
		"spawn wolf bad!id": errInvalidName.Error(),
		"kick nobody":       "no such player: nobody",
		"time set 25:00":    `invalid hour in "25:00"`,
		"save":              "saving disabled: no save file configured",
	}
	for line, want := range cases {
		t.Run(line, func(t *testing.T) {
			res := s.HandleCommand(line)
			assert.False(t, res.OK)
			assert.Equal(t, want, res.Message)
		})
	}
}

func TestSameSeedSameWorld(t *testing.T) {
	a := newWorld(t, core.ServerConfig{Seed: 42})
	b := newWorld(t, core.ServerConfig{Seed: 42})
	for range 10 {
		_, err := a.Tick(100 * time.Millisecond)
		require.NoError(t, err)
		_, err = b.Tick(100 * time.Millisecond)
		require.NoError(t, err)
	}
	require.True(t, a.HandleCommand("spawn wolf").OK)
	require.True(t, b.HandleCommand("spawn wolf").OK)
	require.Len(t, b.entities, len(a.entities))
	for i := range a.entities {
		assert.Equal(t, a.entities[i].ID, b.entities[i].ID)
		assert.Equal(t, a.entities[i].Kind, b.entities[i].Kind)
		assert.InDelta(t, a.entities[i].X, b.entities[i].X, 1e-9)
		assert.InDelta(t, a.entities[i].Y, b.entities[i].Y, 1e-9)
	}
}

func TestDuskAndDawnEvents(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	require.True(t, s.HandleCommand("time set 17:59").OK)

	evs, err := s.Tick(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, messages(evs), "dusk falls over the world")
	for _, e := range evs {
		assert.Equal(t, core.SourceWorld, e.Source)
	}

	require.True(t, s.HandleCommand("time set 05:59").OK)
	evs, err = s.Tick(2 * time.Second)
	require.NoError(t, err)
	assert.Contains(t, messages(evs), "dawn breaks on day 1")
}

func TestTimeCommand(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	res := s.HandleCommand("time set night")
	require.True(t, res.OK)
	assert.Equal(t, "time set to day 1 19:00", res.Message)
	assert.Equal(t, "day 1 19:00", s.HandleCommand("time").Message)
}

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"day", 420, true},
		{"NIGHT", 1140, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"6:30", 390, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12:5", 0, false},
		{"noon", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestClockAdvance(t *testing.T) {
	var c Clock
	c.Advance(DayLength)
	assert.Equal(t, 2, c.Day())
	assert.Equal(t, 0, c.MinuteOfDay())
	c.Advance(DayLength / 4)
	assert.Equal(t, "day 2 06:00", c.String())
	assert.True(t, c.IsDay())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "world.yaml")
	s, err := New(core.ServerConfig{Seed: 3, SaveFile: path}, discard())
	require.NoError(t, err)
	require.True(t, s.HandleCommand("spawn deer bambi").OK)
	require.True(t, s.HandleCommand("time set 12:30").OK)
	require.NoError(t, s.SaveAndShutdown())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files left behind")

	r, err := New(core.ServerConfig{Seed: 99, SaveFile: path}, discard())
	require.NoError(t, err)
	assert.Equal(t, "seed 3", r.HandleCommand("seed").Message)
	assert.Equal(t, "day 1 12:30", r.Status().WorldTime)
	assert.True(t, r.HandleCommand("kill bambi").OK)
}

func TestSaveCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	s := newWorld(t, core.ServerConfig{SaveFile: path})
	res := s.HandleCommand("save")
	require.True(t, res.OK, res.Message)
	assert.True(t, strings.HasSuffix(res.Message, path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCorruptSaveFailsStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [nope"), 0o644))
	_, err := New(core.ServerConfig{SaveFile: path}, discard())
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version: 9\n"), 0o644))
	_, err = New(core.ServerConfig{SaveFile: path}, discard())
	assert.ErrorContains(t, err, "unsupported version 9")
}

func TestSaveFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s, err := New(core.ServerConfig{}, discard())
	require.NoError(t, err)
	s.cfg.SaveFile = filepath.Join(blocker, "world.yaml")
	assert.ErrorContains(t, s.SaveAndShutdown(), "save world")
}

func TestAutosave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	s := newWorld(t, core.ServerConfig{SaveFile: path, Autosave: time.Second})

	_, err := s.Tick(600 * time.Millisecond)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	evs, err := s.Tick(600 * time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, messages(evs), "autosaved 8 entities")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestListenerFailureIsFatal(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	s.serveErr <- errors.New("accept: use of closed network connection")

	_, err := s.Tick(time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrFatal)

	_, err = s.Tick(time.Millisecond)
	assert.ErrorIs(t, err, core.ErrFatal, "fault persists")
}

func TestStatusAndCommands(t *testing.T) {
	s := newWorld(t, core.ServerConfig{})
	_, err := s.Tick(50 * time.Millisecond)
	require.NoError(t, err)
	st := s.Status()
	assert.Equal(t, uint64(1), st.Ticks)
	assert.InDelta(t, 20.0, st.TPS, 0.001)
	assert.Equal(t, 8, st.Entities)
	assert.Equal(t, "day 1 06:00", st.WorldTime)
	assert.Contains(t, s.Commands(), "spawn <kind> [name]")
	assert.Len(t, s.Commands(), len(commandOrder))
}

func TestPlayersOverNetwork(t *testing.T) {
	s := newWorld(t, core.ServerConfig{ListenAddr: "tcp:127.0.0.1:0"})
	require.NoError(t, s.Start(context.Background()))
	require.NotEmpty(t, s.Addr())

	c, err := ndjson.Dial("tcp:" + s.Addr())
	require.NoError(t, err)
	defer c.Close()
	chats := make(chan ndjson.ChatEvent, 4)
	c.OnEvent(func(m ndjson.Message) {
		var ce ndjson.ChatEvent
		if m.Method == ndjson.EventChat && m.UnmarshalData(&ce) == nil {
			chats <- ce
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Request(ctx, ndjson.MethodChat, ndjson.ChatRequest{Text: "early"})
	require.Error(t, err, "chat before join")

	resp, err = c.Request(ctx, ndjson.MethodJoin, ndjson.JoinRequest{Name: "alice"})
	require.NoError(t, err)
	var jr ndjson.JoinResponse
	require.NoError(t, resp.UnmarshalData(&jr))
	assert.Equal(t, int64(7), jr.Seed)

	_, err = c.Request(ctx, ndjson.MethodChat, ndjson.ChatRequest{Text: "hi all"})
	require.NoError(t, err)
	select {
	case ce := <-chats:
		assert.Equal(t, ndjson.ChatEvent{From: "alice", Text: "hi all"}, ce)
	case <-ctx.Done():
		t.Fatal("no chat event")
	}

	evs, err := s.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice joined", "<alice> hi all"}, messages(evs))
	assert.Equal(t, "1 online: alice", s.HandleCommand("players").Message)

	require.True(t, s.HandleCommand("say welcome").OK)
	select {
	case ce := <-chats:
		assert.Equal(t, "server", ce.From)
	case <-ctx.Done():
		t.Fatal("no server chat")
	}

	require.True(t, s.HandleCommand("kick alice").OK)
	select {
	case <-c.Done():
	case <-ctx.Done():
		t.Fatal("kicked client still connected")
	}
	require.Eventually(t, func() bool { return s.Status().Players == 0 }, 2*time.Second, 10*time.Millisecond)
	evs, err = s.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice left"}, messages(evs))
}

func TestDuplicateNameRejected(t *testing.T) {
	s := newWorld(t, core.ServerConfig{ListenAddr: "tcp:127.0.0.1:0"})
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a, err := ndjson.Dial("tcp:" + s.Addr())
	require.NoError(t, err)
	defer a.Close()
	b, err := ndjson.Dial("tcp:" + s.Addr())
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Request(ctx, ndjson.MethodJoin, ndjson.JoinRequest{Name: "bob"})
	require.NoError(t, err)
	_, err = b.Request(ctx, ndjson.MethodJoin, ndjson.JoinRequest{Name: "BOB"})
	assert.ErrorContains(t, err, errNameTaken.Error())
}
