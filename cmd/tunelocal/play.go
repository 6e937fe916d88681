package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/playback"
	"github.com/hazadus/tunelocal/internal/player"
	tuiPlayer "github.com/hazadus/tunelocal/internal/tui/player"
	"github.com/hazadus/tunelocal/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var shuffle, repeat bool

	cmd := &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play a track by its ID",
		Long: `Play a track from the library by its ID. When the track ends, playback continues
with the next track of the library (or a random one with --shuffle).`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			trackID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.playByID(ctx, trackID, shuffle, repeat)
		},
	}
	cmd.Flags().BoolVarP(&shuffle, "shuffle", "s", false, "pick the next track at random")
	cmd.Flags().BoolVarP(&repeat, "repeat", "r", false, "repeat the current track")

	return cmd
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Без raw режима клавиши просто требуют Enter
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys читает одиночные символы из stdin
func readKeys(keys chan<- string) {
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			close(keys)
			return
		}
		keys <- string(buffer[0])
	}
}

func (app *Application) playByID(ctx context.Context, trackID int, shuffle, repeat bool) error {
	// Создаем плеер
	p := player.NewPlayer()
	defer p.Close()

	controller := playback.New(app.Store, p, playback.WithLogger(app.Logger))
	controller.SetShuffle(shuffle)
	controller.SetRepeat(repeat)

	if err := controller.Refresh(ctx); err != nil {
		return err
	}
	if err := controller.Play(ctx, trackID); err != nil {
		return err
	}
	defer controller.Stop()

	printNowPlaying(controller.Snapshot())
	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   %s\n", tuiPlayer.ControlHelp)
	fmt.Printf("   [q] - остановить и выйти\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	keys := make(chan string)
	go readKeys(keys)

	// Главный цикл обработки событий
	for {
		select {
		case status, ok := <-p.Progress():
			if ok {
				displayProgress(status)
			}

		case <-p.Done():
			before := controller.Snapshot().CurrentID()
			if err := controller.TrackEnded(ctx); err != nil {
				return err
			}
			if snap := controller.Snapshot(); snap.CurrentID() != before {
				fmt.Println()
				printNowPlaying(snap)
			}

		case key, ok := <-keys:
			if !ok {
				// stdin закрыт: управление с клавиатуры недоступно
				keys = nil
				continue
			}
			if key == "q" {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}
			if err := app.handlePlayKey(ctx, controller, key); err != nil {
				return err
			}
			if controller.Snapshot().State == playback.StateIdle {
				fmt.Println("\n⏹️  Воспроизведение остановлено")
				return nil
			}

		case <-ctx.Done():
			fmt.Println("\n🚫 Воспроизведение прервано")
			return nil
		}
	}
}

// handlePlayKey выполняет команду управления по нажатой клавише
func (app *Application) handlePlayKey(ctx context.Context, c *playback.Controller, key string) error {
	control, ok := tuiPlayer.KeyControl(key)
	if !ok {
		return nil
	}

	before := c.Snapshot().CurrentID()
	fmt.Printf("\r\033[K") // Очищаем текущую строку

	switch control {
	case tuiPlayer.ControlTogglePause:
		if c.TogglePause() == playback.StatePaused {
			fmt.Printf("⏸️  Пауза\n")
		} else {
			fmt.Printf("▶️  Воспроизведение\n")
		}
	case tuiPlayer.ControlNext:
		if err := c.Advance(ctx); err != nil {
			return err
		}
	case tuiPlayer.ControlPrevious:
		if err := c.Previous(ctx); err != nil {
			return err
		}
	case tuiPlayer.ControlShuffle:
		fmt.Printf("🔀 Перемешивание: %s\n", onOff(c.ToggleShuffle()))
	case tuiPlayer.ControlRepeat:
		fmt.Printf("🔁 Повтор: %s\n", onOff(c.ToggleRepeat()))
	case tuiPlayer.ControlStop:
		c.Stop()
	}

	if snap := c.Snapshot(); snap.NowPlaying != nil && snap.CurrentID() != before {
		printNowPlaying(snap)
	}
	return nil
}

func printNowPlaying(snap playback.Snapshot) {
	info := library.NowPlaying(snap.NowPlaying)
	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   ID: %d\n", snap.CurrentID())
	fmt.Printf("   Название: %s\n", info.Title)
	fmt.Printf("   Файл: %s\n", info.Subtitle)
	fmt.Printf("   Позиция: %d из %d\n", snap.CurrentIndex+1, len(snap.Playlist))
	fmt.Println()
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(status player.Status) {
	statusIcon := "⏱️"
	if !status.IsPlaying {
		statusIcon = "⏸️"
	}

	if status.Total > 0 {
		percent := float64(status.Current) / float64(status.Total) * 100
		fmt.Printf("\r%s  %.1f%% | %s / %s",
			statusIcon,
			percent,
			utils.FormatDuration(status.Current),
			utils.FormatDuration(status.Total))
		return
	}
	fmt.Printf("\r%s  %s", statusIcon, utils.FormatDuration(status.Current))
}

func onOff(on bool) string {
	if on {
		return "вкл"
	}
	return "выкл"
}
