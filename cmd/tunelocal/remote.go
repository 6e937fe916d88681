package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/remote"
	"github.com/hazadus/tunelocal/internal/utils"
)

// createRemoteCommand создает группу команд для работы с удаленным каталогом
func (app *Application) createRemoteCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with the remote track catalog",
		Long:  `Push local tracks to the remote catalog, pull them back and manage the catalog.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tracks of the remote catalog",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.remoteList(ctx)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "push [id]",
		Short: "Upload a local track to the remote catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.remotePush(ctx, id)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pull [remote id]",
		Short: "Add a track from the remote catalog to the local library",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.remotePull(ctx, id)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [remote id]",
		Short: "Delete a track from the remote catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.remoteDelete(ctx, id)
		},
	})

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tracks from the remote catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd.InOrStdin(), "Удалить все треки удаленного каталога?") {
				fmt.Println("🚫 Очистка отменена")
				return nil
			}
			return app.remoteClear(ctx)
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(clearCmd)

	return cmd
}

// remoteClient создает клиент удаленного каталога из конфигурации
func (app *Application) remoteClient() (*remote.Client, error) {
	if !app.Config.HasRemote() {
		return nil, errors.New("адрес удаленного каталога не задан (remote_url или TUNELOCAL_REMOTE_URL)")
	}
	return remote.New(app.Config.RemoteURL, remote.WithLogger(app.Logger))
}

func (app *Application) remoteList(ctx context.Context) error {
	client, err := app.remoteClient()
	if err != nil {
		return err
	}

	tracks, err := client.List(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения каталога: %w", err)
	}
	if len(tracks) == 0 {
		fmt.Println("🌐 Удаленный каталог пуст")
		return nil
	}

	fmt.Printf("🌐 Треков в каталоге: %d\n\n", len(tracks))
	fmt.Printf("%-5s %s %-12s %-20s %s\n",
		"ID", utils.PadRight("Название", 40), "Размер", "Добавлен", "Прослушиваний")
	fmt.Println(strings.Repeat("-", 95))

	for _, t := range tracks {
		fmt.Printf("%-5d %s %-12s %-20s %d\n",
			t.ID,
			utils.PadRight(utils.TruncateString(t.Name, 38), 40),
			library.FormatSize(int64(t.FileSize)),
			t.DateAdded,
			t.PlayCount)
	}
	return nil
}

func (app *Application) remotePush(ctx context.Context, id int) error {
	client, err := app.remoteClient()
	if err != nil {
		return err
	}

	track, err := app.Manager.GetTrack(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("📤 Отправляем трек: %s (%s)\n", track.Name, library.FormatSize(track.Size))

	remoteID, err := client.Upload(ctx, remote.NewUpload(track))
	if err != nil {
		return fmt.Errorf("ошибка отправки трека: %w", err)
	}

	fmt.Printf("✅ Трек отправлен, ID в каталоге: %d\n", remoteID)
	return nil
}

func (app *Application) remotePull(ctx context.Context, id int) error {
	client, err := app.remoteClient()
	if err != nil {
		return err
	}

	t, err := client.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("ошибка получения трека: %w", err)
	}

	payload, err := t.Payload()
	if err != nil {
		return err
	}

	fmt.Printf("📥 Получен трек: %s (%s)\n", t.Name, library.FormatSize(int64(len(payload))))

	result := app.Manager.ImportPayload(ctx, t.FileName, payload)
	if result.Err != nil {
		return fmt.Errorf("ошибка добавления трека: %w", result.Err)
	}

	fmt.Printf("✅ Трек добавлен в библиотеку, ID: %d\n", result.ID)
	return nil
}

func (app *Application) remoteDelete(ctx context.Context, id int) error {
	client, err := app.remoteClient()
	if err != nil {
		return err
	}

	if err := client.Delete(ctx, id); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	fmt.Println("✅ Трек удален из удаленного каталога")
	return nil
}

func (app *Application) remoteClear(ctx context.Context) error {
	client, err := app.remoteClient()
	if err != nil {
		return err
	}

	if err := client.Clear(ctx); err != nil {
		return fmt.Errorf("ошибка очистки каталога: %w", err)
	}

	fmt.Println("✅ Удаленный каталог очищен")
	return nil
}
