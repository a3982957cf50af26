package backtest

import (
	"sync"
	"time"
)

// ReplayState is the serialisable view of a replay session.
type ReplayState struct {
	Index   int     `json:"index"`
	Total   int     `json:"total"`
	Playing bool    `json:"playing"`
	Speed   float64 `json:"speed"`
	AtEnd   bool    `json:"at_end"`
}

// Replay steps through recorded backtest snapshots at a controllable
// speed. The chart server drives it over HTTP.
type Replay struct {
	mu        sync.Mutex
	snapshots []Snapshot
	index     int
	playing   bool
	speed     float64
	lastTick  time.Time
}

func NewReplay(snapshots []Snapshot) *Replay {
	return &Replay{snapshots: snapshots, speed: 1}
}

func (r *Replay) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index < len(r.snapshots) {
		r.playing = true
		r.lastTick = time.Time{}
	}
}

func (r *Replay) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

// SetSpeed clamps the playback multiplier to [0.25, 32].
func (r *Replay) SetSpeed(speed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if speed < 0.25 {
		speed = 0.25
	}
	if speed > 32 {
		speed = 32
	}
	r.speed = speed
}

// ToEnd jumps straight to the final snapshot and stops playback.
func (r *Replay) ToEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = len(r.snapshots)
	r.playing = false
}

func (r *Replay) State() ReplayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReplayState{
		Index:   r.index,
		Total:   len(r.snapshots),
		Playing: r.playing,
		Speed:   r.speed,
		AtEnd:   r.index >= len(r.snapshots),
	}
}

// Visible returns the snapshots revealed so far, advancing the cursor
// first when playing. Advancement is wall-clock driven so repeated
// polls at any rate produce a steady playback.
func (r *Replay) Visible(now time.Time, barInterval time.Duration) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.playing {
		if r.lastTick.IsZero() {
			r.lastTick = now
			r.advanceLocked(1)
		} else {
			elapsed := now.Sub(r.lastTick)
			step := time.Duration(float64(barInterval) / r.speed)
			if step <= 0 {
				step = time.Millisecond
			}
			n := int(elapsed / step)
			if n > 0 {
				r.advanceLocked(n)
				r.lastTick = r.lastTick.Add(time.Duration(n) * step)
			}
		}
	}

	out := make([]Snapshot, r.index)
	copy(out, r.snapshots[:r.index])
	return out
}

func (r *Replay) advanceLocked(n int) {
	r.index += n
	if r.index >= len(r.snapshots) {
		r.index = len(r.snapshots)
		r.playing = false
	}
}
