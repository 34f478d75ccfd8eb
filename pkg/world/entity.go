package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ErrUnknownEntity is returned when spawning a kind the world has no
// template for.
var ErrUnknownEntity = errors.New("unknown entity")

// Bound is the half-width of the square world, in blocks.
const Bound = 256.0

type kindInfo struct {
	speed float64 // blocks per second
}

var kinds = map[string]kindInfo{
	"wolf":     {speed: 4},
	"deer":     {speed: 3},
	"boar":     {speed: 2},
	"bird":     {speed: 6},
	"villager": {speed: 1},
}

// Kinds lists the spawnable entity kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Entity is a creature living in the world.
type Entity struct {
	ID   string  `yaml:"id"`
	Kind string  `yaml:"kind"`
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%s %s (%.0f, %.0f)", e.Name, e.ID, e.X, e.Y)
}

func newEntity(kind, name string, rng *rand.Rand) (Entity, error) {
	kind = strings.ToLower(kind)
	if _, ok := kinds[kind]; !ok {
		return Entity{}, ErrUnknownEntity
	}
	if name == "" {
		name = kind
	}
	id, err := uuid.NewRandomFromReader(rngReader{rng})
	if err != nil {
		return Entity{}, err
	}
	return Entity{
		ID:   id.String()[:8],
		Kind: kind,
		Name: name,
		X:    (rng.Float64()*2 - 1) * 32,
		Y:    (rng.Float64()*2 - 1) * 32,
	}, nil
}

// rngReader draws uuid bytes from the world's seeded generator, so a seed
// reproduces entity ids as well as positions.
type rngReader struct{ rng *rand.Rand }

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}

// wander moves e a random step for dt seconds, staying inside Bound.
func (e *Entity) wander(rng *rand.Rand, seconds float64) {
	speed := kinds[e.Kind].speed
	angle := rng.Float64() * 2 * math.Pi
	e.X = clamp(e.X+math.Cos(angle)*speed*seconds, -Bound, Bound)
	e.Y = clamp(e.Y+math.Sin(angle)*speed*seconds, -Bound, Bound)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// populate seeds a fresh world with its starting animals.
func populate(rng *rand.Rand) []Entity {
	start := []string{"villager", "villager", "deer", "deer", "deer", "boar", "wolf", "bird"}
	out := make([]Entity, 0, len(start))
	for _, k := range start {
		e, _ := newEntity(k, "", rng)
		out = append(out, e)
	}
	return out
}
