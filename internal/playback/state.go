// Package playback содержит контроллер воспроизведения офлайн-библиотеки
package playback

import "github.com/hazadus/tunelocal/internal/data"

// State - состояние контроллера
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive возвращает true, если трек загружен (играет или на паузе)
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// Snapshot - копия состояния воспроизведения для отрисовки
type Snapshot struct {
	State        State
	Playlist     []data.Track
	CurrentIndex int // -1, если ничего не загружено
	Shuffle      bool
	Repeat       bool
	NowPlaying   *data.Track
}

// CurrentID возвращает ID активного трека или 0
func (s Snapshot) CurrentID() int {
	if s.NowPlaying == nil {
		return 0
	}
	return s.NowPlaying.ID
}
