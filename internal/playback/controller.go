package playback

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/hazadus/tunelocal/internal/data"
)

// Source - хранилище, из которого контроллер берет треки
type Source interface {
	List(ctx context.Context) ([]data.Track, error)
	Get(ctx context.Context, id int) (*data.Track, error)
}

// Engine - аудио движок, который воспроизводит загруженный трек
type Engine interface {
	Play(track *data.Track) error
	SetPaused(paused bool)
	// Restart запускает текущий трек с нулевой позиции
	Restart() error
	Stop()
}

// Intner выбирает случайный индекс в [0, n)
type Intner interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Option настраивает контроллер
type Option func(*Controller)

// WithRand задает источник случайных чисел для перемешивания
func WithRand(r Intner) Option {
	return func(c *Controller) {
		c.rng = r
	}
}

// WithLogger задает логгер контроллера
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller владеет состоянием воспроизведения: плейлистом, текущим индексом
// и флагами перемешивания и повтора. Безопасен для конкурентного использования.
type Controller struct {
	mu     sync.Mutex
	source Source
	engine Engine
	rng    Intner
	logger *zap.Logger

	state    State
	playlist []data.Track
	index    int
	shuffle  bool
	repeat   bool
	current  *data.Track
}

// New создает контроллер в состоянии Idle
func New(source Source, engine Engine, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		engine: engine,
		rng:    globalRand{},
		logger: zap.NewNop(),
		state:  StateIdle,
		index:  -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh перечитывает плейлист из хранилища.
// Индекс следует за активным треком; если трек исчез, контроллер переходит в Idle.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *Controller) refreshLocked(ctx context.Context) error {
	tracks, err := c.source.List(ctx)
	if err != nil {
		return fmt.Errorf("ошибка обновления плейлиста: %w", err)
	}
	c.playlist = tracks

	if c.current == nil {
		c.index = -1
		return nil
	}
	idx := indexOf(tracks, c.current.ID)
	if idx < 0 {
		c.stopLocked()
		return nil
	}
	c.index = idx
	return nil
}

// Play загружает трек из хранилища и начинает воспроизведение
func (c *Controller) Play(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playLocked(ctx, id)
}

func (c *Controller) playLocked(ctx context.Context, id int) error {
	track, err := c.source.Get(ctx, id)
	if err != nil {
		return err
	}

	idx := indexOf(c.playlist, id)
	if idx < 0 {
		if err := c.refreshLocked(ctx); err != nil {
			return err
		}
		idx = indexOf(c.playlist, id)
		if idx < 0 {
			return &data.NotFoundError{ID: id}
		}
	}

	if err := c.engine.Play(track); err != nil {
		c.stopLocked()
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	c.current = track
	c.index = idx
	c.state = StatePlaying

	c.logger.Info("воспроизведение",
		zap.Int("id", track.ID),
		zap.Int("index", idx),
		zap.String("name", track.Name))
	return nil
}

// Pause ставит воспроизведение на паузу
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Controller) pauseLocked() {
	if c.state != StatePlaying {
		return
	}
	c.engine.SetPaused(true)
	c.state = StatePaused
}

// Resume продолжает воспроизведение после паузы
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked()
}

func (c *Controller) resumeLocked() {
	if c.state != StatePaused {
		return
	}
	c.engine.SetPaused(false)
	c.state = StatePlaying
}

// TogglePause переключает паузу и возвращает новое состояние
func (c *Controller) TogglePause() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		c.pauseLocked()
	case StatePaused:
		c.resumeLocked()
	}
	return c.state
}

// TrackEnded обрабатывает окончание трека: повтор или переход к следующему
func (c *Controller) TrackEnded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Запоздавший сигнал после остановки
	if c.state != StatePlaying {
		return nil
	}

	if c.repeat {
		if err := c.engine.Restart(); err != nil {
			c.stopLocked()
			return fmt.Errorf("ошибка повтора трека: %w", err)
		}
		return nil
	}
	return c.advanceLocked(ctx)
}

// Advance переходит к следующему треку: случайному при перемешивании, иначе по кругу
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advanceLocked(ctx)
}

func (c *Controller) advanceLocked(ctx context.Context) error {
	n := len(c.playlist)
	if n == 0 {
		c.stopLocked()
		return nil
	}

	var next int
	switch {
	case c.shuffle:
		// Выбор с возвращением: тот же трек может выпасть снова
		next = c.rng.IntN(n)
	case c.index < 0:
		next = 0
	default:
		next = (c.index + 1) % n
	}
	return c.playLocked(ctx, c.playlist[next].ID)
}

// Previous переходит к предыдущему треку независимо от перемешивания
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.playlist)
	if n == 0 {
		return nil
	}

	prev := n - 1
	if c.index >= 0 {
		prev = (c.index - 1 + n) % n
	}
	return c.playLocked(ctx, c.playlist[prev].ID)
}

// ToggleShuffle переключает перемешивание и возвращает новое значение
func (c *Controller) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = !c.shuffle
	return c.shuffle
}

// ToggleRepeat переключает повтор и возвращает новое значение
func (c *Controller) ToggleRepeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = !c.repeat
	return c.repeat
}

// SetShuffle включает или выключает перемешивание
func (c *Controller) SetShuffle(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuffle = enabled
}

// SetRepeat включает или выключает повтор
func (c *Controller) SetRepeat(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repeat = enabled
}

// HandleRemoved вызывается после удаления трека из хранилища.
// Если удален активный трек, воспроизведение останавливается.
func (c *Controller) HandleRemoved(ctx context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.ID == id {
		c.logger.Info("удален активный трек, воспроизведение остановлено", zap.Int("id", id))
		c.stopLocked()
	}
	return c.refreshLocked(ctx)
}

// HandleCleared вызывается после очистки хранилища
func (c *Controller) HandleCleared() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.playlist = nil
}

// Stop останавливает воспроизведение и переводит контроллер в Idle
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.state.IsActive() {
		c.engine.Stop()
	}
	c.state = StateIdle
	c.current = nil
	c.index = -1
}

// Snapshot возвращает копию состояния. Содержимое треков общее и не изменяется.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	playlist := make([]data.Track, len(c.playlist))
	copy(playlist, c.playlist)

	return Snapshot{
		State:        c.state,
		Playlist:     playlist,
		CurrentIndex: c.index,
		Shuffle:      c.shuffle,
		Repeat:       c.repeat,
		NowPlaying:   c.current,
	}
}

func indexOf(tracks []data.Track, id int) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}
