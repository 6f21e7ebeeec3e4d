package tracking

import (
	"math"
	"sort"
	"time"

	"parking-gate-service/internal/vision"
)

type Config struct {
	// MaxDist is the matching radius in pixels between a detection center
	// and an existing track center.
	MaxDist float64
	// BufferSize bounds the per-track reading FIFO.
	BufferSize int
	// MinVotes is how many identical readings confirm a plate.
	MinVotes int
	// EvictAfter removes a track not seen for this long.
	EvictAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxDist:    80,
		BufferSize: 20,
		MinVotes:   15,
		EvictAfter: time.Second,
	}
}

// Track is one spatial detection cluster followed across frames.
type Track struct {
	ID        int
	CenterX   int
	CenterY   int
	Box       vision.Box
	Buffer    []string
	Confirmed string
	LastSeen  time.Time
}

// Confirmation is an emitted consensus vote with its ballot breakdown.
type Confirmation struct {
	Plate string
	Votes map[string]int
}

// Manager owns the track arena for a single camera feed. It is driven by
// one frame loop and is not safe for concurrent use.
type Manager struct {
	cfg    Config
	tracks map[int]*Track
	nextID int
}

func NewManager(cfg Config) *Manager {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 20
	}
	return &Manager{
		cfg:    cfg,
		tracks: make(map[int]*Track),
		nextID: 1,
	}
}

// Assign returns the id of an existing track whose center lies within
// MaxDist of (cx, cy), or allocates a new one. Candidates are checked in
// ascending id order so matching is deterministic.
func (m *Manager) Assign(cx, cy int) int {
	ids := make([]int, 0, len(m.tracks))
	for id := range m.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		t := m.tracks[id]
		if dist(cx, cy, t.CenterX, t.CenterY) < m.cfg.MaxDist {
			return id
		}
	}

	id := m.nextID
	m.nextID++
	m.tracks[id] = &Track{ID: id}
	return id
}

// Update refreshes a track with this frame's detection. The decoded text
// joins the vote buffer only when its cleaned length looks like a real
// plate (6 to 9 symbols).
func (m *Manager) Update(id int, box vision.Box, text string, now time.Time) {
	t, ok := m.tracks[id]
	if !ok {
		return
	}

	t.CenterX, t.CenterY = box.Center()
	t.Box = box
	t.LastSeen = now

	if text == "" {
		return
	}
	if n := len([]rune(vision.CleanPlate(text))); n < 6 || n > 9 {
		return
	}
	t.Buffer = append(t.Buffer, text)
	if len(t.Buffer) > m.cfg.BufferSize {
		t.Buffer = t.Buffer[len(t.Buffer)-m.cfg.BufferSize:]
	}
}

// Sweep drops every track not seen within EvictAfter. Eviction is silent;
// a vanished vehicle is not a failure.
func (m *Manager) Sweep(now time.Time) {
	for id, t := range m.tracks {
		if now.Sub(t.LastSeen) > m.cfg.EvictAfter {
			delete(m.tracks, id)
		}
	}
}

// Vote computes the majority reading of a track's buffer. A confirmation
// is emitted only when the winner holds at least MinVotes ballots and
// differs from the track's previous confirmation; emission clears the
// buffer, so the same track can later confirm a different plate if the
// vehicle at that position changes.
func (m *Manager) Vote(id int) (Confirmation, bool) {
	t, ok := m.tracks[id]
	if !ok || len(t.Buffer) < m.cfg.MinVotes {
		return Confirmation{}, false
	}

	votes := make(map[string]int, len(t.Buffer))
	for _, s := range t.Buffer {
		votes[s]++
	}

	best, count := "", 0
	for s, c := range votes {
		if c > count || (c == count && s < best) {
			best, count = s, c
		}
	}

	if count < m.cfg.MinVotes || best == t.Confirmed {
		return Confirmation{}, false
	}

	t.Confirmed = best
	t.Buffer = t.Buffer[:0]
	return Confirmation{Plate: best, Votes: votes}, true
}

// IDs returns the live track ids in ascending order.
func (m *Manager) IDs() []int {
	ids := make([]int, 0, len(m.tracks))
	for id := range m.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len reports how many tracks are currently live.
func (m *Manager) Len() int {
	return len(m.tracks)
}

func dist(x1, y1, x2, y2 int) float64 {
	dx := float64(x1 - x2)
	dy := float64(y1 - y2)
	return math.Hypot(dx, dy)
}
