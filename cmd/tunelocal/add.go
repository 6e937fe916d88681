package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/track"
)

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add [file path...]",
		Short: "Add audio files to the library",
		Long:  `Read audio files and store their contents in the local library. Non-audio files are rejected.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.addTracks(ctx, args)
		},
	}
}

func (app *Application) addTracks(ctx context.Context, paths []string) error {
	fmt.Printf("📥 Добавляем файлов: %d\n\n", len(paths))

	results := app.Manager.Import(ctx, paths...)
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("❌ %s: %v\n", filepath.Base(r.Path), r.Err)
			continue
		}

		t, err := app.Manager.GetTrack(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Printf("✅ [%d] %s (%s, %s)\n", t.ID, t.Name, t.MimeType, library.FormatSize(t.Size))
		if r.Tags.Artist != "" {
			fmt.Printf("   Исполнитель: %s\n", r.Tags.Artist)
		}
		if r.Tags.Title != "" && r.Tags.Title != t.Name {
			fmt.Printf("   Название: %s\n", r.Tags.Title)
		}
	}

	added := track.Succeeded(results)
	fmt.Printf("\n📦 Добавлено треков: %d из %d\n", added, len(results))

	if added < len(results) {
		return fmt.Errorf("не добавлено файлов: %d", len(results)-added)
	}
	return nil
}
