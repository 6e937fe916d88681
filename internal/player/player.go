// Package player содержит компоненты для управления воспроизведением аудио
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"

	"github.com/hazadus/tunelocal/internal/data"
)

// ErrNoTrack возвращается, когда нечего перезапускать
var ErrNoTrack = errors.New("нет загруженного трека")

// Status представляет текущий статус плеера
type Status struct {
	Current   time.Duration // Текущая позиция
	Total     time.Duration // Общая продолжительность
	IsPlaying bool          // Воспроизводится ли трек
}

// payloadReader отдает содержимое трека декодерам, сохраняя возможность перемотки
type payloadReader struct {
	*bytes.Reader
}

func (payloadReader) Close() error { return nil }

// Decode декодирует содержимое трека по его типу
func Decode(track *data.Track) (beep.StreamSeekCloser, beep.Format, error) {
	src := payloadReader{bytes.NewReader(track.Payload)}

	switch track.MimeType {
	case "audio/mpeg", "audio/mp3":
		return mp3.Decode(src)
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return wav.Decode(src)
	case "audio/flac", "audio/x-flac":
		return flac.Decode(src)
	case "audio/ogg", "audio/vorbis":
		return vorbis.Decode(src)
	default:
		return nil, beep.Format{}, fmt.Errorf("формат %s не поддерживается плеером", track.MimeType)
	}
}

// Duration возвращает длительность трека
func Duration(track *data.Track) (time.Duration, error) {
	streamer, format, err := Decode(track)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}

// Player управляет воспроизведением треков
type Player struct {
	// Каналы для обратной связи
	progressChan chan Status
	doneChan     chan bool

	// Внутреннее состояние
	ctx          context.Context
	cancel       context.CancelFunc
	mutex        sync.RWMutex
	sampleRate   beep.SampleRate // Частота, с которой инициализирован speaker
	isPaused     bool
	closed       bool
	currentTrack *data.Track
	generation   int // Номер запуска, чтобы старые обратные вызовы не сообщали о завершении

	// Компоненты для воспроизведения
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// NewPlayer создает новый экземпляр плеера
func NewPlayer() *Player {
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		progressChan: make(chan Status, 1),
		doneChan:     make(chan bool, 1),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Progress возвращает канал для получения обновлений прогресса
func (p *Player) Progress() <-chan Status {
	return p.progressChan
}

// Done возвращает канал, в который приходит сигнал о завершении трека
func (p *Player) Done() <-chan bool {
	return p.doneChan
}

// Play начинает воспроизведение трека с начала
func (p *Player) Play(track *data.Track) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return errors.New("плеер закрыт")
	}

	// Останавливаем текущее воспроизведение, если есть
	p.stopInternal()

	streamer, format, err := Decode(track)
	if err != nil {
		return fmt.Errorf("ошибка декодирования %s: %w", track.FileName, err)
	}

	// Инициализируем speaker (только один раз)
	if p.sampleRate == 0 {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5))
		if err != nil {
			streamer.Close()
			return fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		p.sampleRate = format.SampleRate
	}

	var source beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		source = beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
	}

	p.currentTrack = track
	p.streamer = streamer
	p.format = format
	p.ctrl = &beep.Ctrl{Streamer: source, Paused: false}
	p.isPaused = false
	p.generation++
	generation := p.generation

	// Запускаем воспроизведение. Обратный вызов выполняется под блокировкой speaker,
	// поэтому мьютекс плеера берется уже в отдельной горутине.
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		go p.finished(generation)
	})))

	// Запускаем мониторинг прогресса в отдельной горутине
	go p.monitorProgress(generation)

	return nil
}

// finished уведомляет о завершении трека, если он все еще актуален
func (p *Player) finished(generation int) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.closed || generation != p.generation {
		return
	}
	select {
	case p.doneChan <- true:
	default:
	}
}

// Restart запускает текущий трек заново с нулевой позиции
func (p *Player) Restart() error {
	p.mutex.RLock()
	track := p.currentTrack
	p.mutex.RUnlock()

	if track == nil {
		return ErrNoTrack
	}
	return p.Play(track)
}

// Pause приостанавливает или возобновляет воспроизведение
func (p *Player) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.setPausedInternal(!p.isPaused)
}

// SetPaused явно ставит на паузу или снимает с нее
func (p *Player) SetPaused(paused bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.setPausedInternal(paused)
}

func (p *Player) setPausedInternal(paused bool) {
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.isPaused = paused
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Stop останавливает воспроизведение
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopInternal()
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом)
func (p *Player) stopInternal() {
	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
	}

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}

	p.currentTrack = nil
	p.isPaused = false
	p.generation++
}

// Close закрывает плеер и освобождает ресурсы
func (p *Player) Close() error {
	p.cancel()

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil
	}
	p.stopInternal()
	p.closed = true
	close(p.progressChan)
	close(p.doneChan)
	return nil
}

// IsPlaying возвращает true, если трек воспроизводится
func (p *Player) IsPlaying() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.ctrl != nil && !p.isPaused
}

// CurrentTrack возвращает информацию о текущем треке
func (p *Player) CurrentTrack() *data.Track {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.currentTrack
}

// monitorProgress отправляет обновления прогресса раз в секунду
func (p *Player) monitorProgress(generation int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.mutex.RLock()

			if p.closed || p.generation != generation || p.streamer == nil {
				p.mutex.RUnlock()
				return
			}

			speaker.Lock()
			status := Status{
				Current:   p.format.SampleRate.D(p.streamer.Position()),
				Total:     p.format.SampleRate.D(p.streamer.Len()),
				IsPlaying: !p.isPaused,
			}
			speaker.Unlock()

			select {
			case p.progressChan <- status:
			default:
				// Если канал заблокирован, пропускаем обновление
			}
			p.mutex.RUnlock()
		}
	}
}
