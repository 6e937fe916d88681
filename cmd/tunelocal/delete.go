package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/data"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a track by ID",
		Long:  `Delete a track from the local library by its ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.deleteTrack(ctx, id)
		},
	}
}

func (app *Application) deleteTrack(ctx context.Context, id int) error {
	// Находим трек по ID
	track, err := app.Manager.GetTrack(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("🗑️  Удаляем трек: %s\n", track.Name)

	if err := app.Manager.RemoveTrack(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	fmt.Println("✅ Трек успешно удален из библиотеки")
	return nil
}

// createClearCommand создает команду clear с привязкой к экземпляру приложения
func (app *Application) createClearCommand(ctx context.Context) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tracks from the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.clearLibrary(ctx, cmd.InOrStdin(), yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func (app *Application) clearLibrary(ctx context.Context, in io.Reader, yes bool) error {
	tracks, err := app.Manager.ListTracks(ctx, data.SortByID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		fmt.Println("📚 Библиотека уже пуста")
		return nil
	}

	if !yes && !confirm(in, fmt.Sprintf("Удалить все треки (%d)?", len(tracks))) {
		fmt.Println("🚫 Очистка отменена")
		return nil
	}

	if err := app.Manager.Clear(ctx); err != nil {
		return fmt.Errorf("ошибка очистки библиотеки: %w", err)
	}

	fmt.Printf("✅ Удалено треков: %d\n", len(tracks))
	return nil
}

// confirm задает вопрос и ждет ответа y/yes
func confirm(in io.Reader, question string) bool {
	fmt.Printf("❓ %s [y/N]: ", question)

	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}
