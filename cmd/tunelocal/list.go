package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/data"
	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display a list of all tracks stored in the local library.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			order, err := parseSort(sortBy)
			if err != nil {
				return err
			}
			return app.listTracks(ctx, order)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "id", "sort order: id, name or date")

	return cmd
}

func parseSort(value string) (data.SortBy, error) {
	switch value {
	case "", "id":
		return data.SortByID, nil
	case "name":
		return data.SortByName, nil
	case "date":
		return data.SortByDateAdded, nil
	default:
		return 0, fmt.Errorf("неизвестный порядок сортировки: %s", value)
	}
}

func (app *Application) listTracks(ctx context.Context, order data.SortBy) error {
	tracks, err := app.Manager.ListTracks(ctx, order)
	if err != nil {
		return err
	}

	view := library.Build(tracks, -1)
	if view.Empty {
		fmt.Printf("📚 %s. %s\n", view.EmptyTitle, view.EmptyHint)
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", view.Count)

	// Выводим заголовок таблицы
	fmt.Printf("%-5s %s %s %-12s %s\n",
		"ID",
		utils.PadRight("Название", 40),
		utils.PadRight("Тип", 12),
		"Размер",
		"Добавлен")
	fmt.Println(strings.Repeat("-", 90))

	// Выводим каждый трек
	for _, e := range view.Entries {
		fmt.Printf("%-5d %s %s %-12s %s\n",
			e.ID,
			utils.PadRight(utils.TruncateString(e.Name, 38), 40),
			utils.PadRight(tracks[e.Number-1].MimeType, 12),
			e.Size,
			e.Added)
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'tunelocal play [ID]' для воспроизведения трека")
	return nil
}
