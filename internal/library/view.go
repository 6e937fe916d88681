// Package library строит модель отображения библиотеки треков.
// Пакет не зависит от терминала: TUI и CLI только выводят готовые строки.
package library

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hazadus/tunelocal/internal/data"
)

const (
	EmptyTitle = "Библиотека пуста"
	EmptyHint  = "Добавьте аудиофайлы, чтобы слушать их офлайн"

	IdleTitle = "Ничего не играет"
	IdleHint  = "Выберите трек в библиотеке"

	dateLayout = "2006-01-02"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// Entry - одна строка библиотеки
type Entry struct {
	Number   int // Порядковый номер, начиная с 1
	ID       int
	Name     string
	FileName string
	Size     string
	Added    string
	AddedAgo string
	Playing  bool
}

// View - готовое к отрисовке состояние библиотеки
type View struct {
	Count      int
	Empty      bool
	EmptyTitle string
	EmptyHint  string
	Entries    []Entry
}

// Build строит представление списка треков.
// activeIndex - индекс играющего трека или -1.
func Build(tracks []data.Track, activeIndex int) View {
	return build(tracks, activeIndex, time.Now())
}

func build(tracks []data.Track, activeIndex int, now time.Time) View {
	if len(tracks) == 0 {
		return View{
			Empty:      true,
			EmptyTitle: EmptyTitle,
			EmptyHint:  EmptyHint,
		}
	}

	entries := make([]Entry, len(tracks))
	for i, t := range tracks {
		entries[i] = Entry{
			Number:   i + 1,
			ID:       t.ID,
			Name:     t.Name,
			FileName: t.FileName,
			Size:     FormatSize(t.Size),
			Added:    FormatDate(t.DateAdded),
			AddedAgo: humanize.RelTime(t.DateAdded, now, "ago", "from now"),
			Playing:  i == activeIndex,
		}
	}

	return View{
		Count:   len(tracks),
		Entries: entries,
	}
}

// FormatSize форматирует размер в байтах: "0 Bytes", "1 KB", "1.5 KB", "1.91 MB".
// Значение округляется до двух знаков, лишние нули отбрасываются.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 " + sizeUnits[0]
	}

	unit := 0
	value := float64(bytes)
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}

	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[unit]
}

// FormatDate форматирует дату добавления в локальном времени
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// NowPlayingInfo - блок "сейчас играет"
type NowPlayingInfo struct {
	Active   bool
	Title    string
	Subtitle string
}

// NowPlaying строит блок "сейчас играет" для активного трека или заглушку
func NowPlaying(track *data.Track) NowPlayingInfo {
	if track == nil {
		return NowPlayingInfo{Title: IdleTitle, Subtitle: IdleHint}
	}
	return NowPlayingInfo{
		Active:   true,
		Title:    track.Name,
		Subtitle: track.FileName + " • " + FormatSize(track.Size),
	}
}
