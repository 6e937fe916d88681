package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hazadus/tunelocal/internal/backup"
	"github.com/hazadus/tunelocal/internal/library"
	"github.com/hazadus/tunelocal/internal/s3"
	"github.com/hazadus/tunelocal/internal/utils"
)

// Таймаут операций с S3
const backupTimeout = 10 * time.Minute

// createBackupCommand создает команду backup с привязкой к экземпляру приложения
func (app *Application) createBackupCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [id]",
		Short: "Back up a track to S3 storage",
		Long:  `Upload a track from the library to S3 storage with progress tracking.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			// Создаем контекст с таймаутом для загрузки
			backupCtx, cancel := context.WithTimeout(ctx, backupTimeout)
			defer cancel()
			return app.backupTrack(backupCtx, id)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups stored in S3",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listBackups(ctx)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a backup from S3",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.deleteBackup(ctx, args[0])
		},
	})

	return cmd
}

// createRestoreCommand создает команду restore с привязкой к экземпляру приложения
func (app *Application) createRestoreCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "restore [key]",
		Short: "Restore a track from S3 backup",
		Long:  `Download a backup from S3 storage and add it to the library as a new track.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			restoreCtx, cancel := context.WithTimeout(ctx, backupTimeout)
			defer cancel()
			return app.restoreTrack(restoreCtx, args[0])
		},
	}
}

// backupService создает сервис резервного копирования из конфигурации
func (app *Application) backupService() (*backup.Service, error) {
	if !app.Config.HasS3() {
		return nil, errors.New("S3 не настроено (aws_bucket_name, aws_access_key, aws_secret_key)")
	}

	uploader, err := s3.NewUploader(&s3.Config{
		Region:     app.Config.AwsRegion,
		AccessKey:  app.Config.AwsAccessKey,
		SecretKey:  app.Config.AwsSecretKey,
		Endpoint:   app.Config.AwsEndpoint,
		BucketName: app.Config.AwsBucketName,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания S3 клиента: %w", err)
	}

	return backup.NewService(uploader, app.Manager, app.Logger), nil
}

func (app *Application) backupTrack(ctx context.Context, id int) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	track, err := app.Manager.GetTrack(ctx, id)
	if err != nil {
		return err
	}

	// Отображаем информацию о загрузке
	fmt.Printf("📤 Загружаем трек в S3:\n")
	fmt.Printf("   Трек: %s\n", track.Name)
	fmt.Printf("   Размер: %s\n", library.FormatSize(track.Size))
	fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	fmt.Println()

	// Создаем канал для отслеживания прогресса
	progressChan := make(chan int64)
	progressDone := make(chan struct{})

	// Запускаем горутину для отображения прогресса
	go func() {
		defer close(progressDone)
		startTime := time.Now()

		for progress := range progressChan {
			if progress <= 0 || track.Size == 0 {
				continue
			}
			elapsed := time.Since(startTime)
			percentage := float64(progress) / float64(track.Size) * 100

			// Вычисляем скорость загрузки
			speed := float64(progress) / max(elapsed.Seconds(), 0.001)

			// Вычисляем оставшееся время
			var remainingTime time.Duration
			if speed > 0 {
				remainingTime = time.Duration(float64(track.Size-progress)/speed) * time.Second
			}

			// Очищаем строку и выводим прогресс
			fmt.Printf("\r📊 Прогресс: %.1f%% | Скорость: %s/s | Прошло: %s | Осталось: %s",
				percentage,
				humanize.Bytes(uint64(speed)),
				utils.FormatDuration(elapsed),
				utils.FormatDuration(remainingTime))
		}
	}()

	// Выполняем загрузку с контекстом
	result, err := service.Backup(ctx, id, func(bytesRead int64) {
		progressChan <- bytesRead
	})

	// Закрываем канал прогресса
	close(progressChan)
	<-progressDone

	if err != nil {
		return fmt.Errorf("ошибка загрузки файла: %w", err)
	}

	fmt.Printf("\n✅ Трек успешно загружен в S3!\n")
	fmt.Printf("   Ключ: %s\n", result.Key)
	fmt.Printf("   URL: %s\n", result.URL)
	return nil
}

func (app *Application) restoreTrack(ctx context.Context, key string) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	fmt.Printf("📥 Восстанавливаем из S3: %s\n", key)

	result, err := service.Restore(ctx, key)
	if err != nil {
		return fmt.Errorf("ошибка восстановления: %w", err)
	}

	fmt.Printf("✅ Трек добавлен в библиотеку, ID: %d (%s)\n", result.ID, result.MimeType)
	return nil
}

func (app *Application) listBackups(ctx context.Context) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	objects, err := service.List(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения списка резервных копий: %w", err)
	}
	if len(objects) == 0 {
		fmt.Println("☁️  Резервных копий нет")
		return nil
	}

	fmt.Printf("☁️  Резервных копий: %d\n\n", len(objects))
	for _, obj := range objects {
		fmt.Printf("%s  %-12s %s\n",
			obj.LastModified.Local().Format("2006-01-02 15:04"),
			library.FormatSize(obj.Size),
			obj.Key)
	}
	fmt.Println()
	fmt.Println("💡 Используйте 'tunelocal restore [KEY]' для восстановления трека")
	return nil
}

func (app *Application) deleteBackup(ctx context.Context, key string) error {
	service, err := app.backupService()
	if err != nil {
		return err
	}

	if err := service.Delete(ctx, key); err != nil {
		return fmt.Errorf("ошибка удаления резервной копии: %w", err)
	}

	fmt.Println("✅ Резервная копия удалена")
	return nil
}
