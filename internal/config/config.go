// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "tunelocal"

// DefaultPath - путь к файлу конфигурации по умолчанию
const DefaultPath = "~/.tunelocal"

// Config структура для хранения конфигурации приложения
type Config struct {
	LibraryBackend string `yaml:"library_backend"`
	LibraryPath    string `yaml:"library_path"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	RemoteURL string `yaml:"remote_url"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// Переменные окружения, переопределяющие значения из файла
var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"TUNELOCAL_BACKEND", func(c *Config) *string { return &c.LibraryBackend }},
	{"TUNELOCAL_LIBRARY_PATH", func(c *Config) *string { return &c.LibraryPath }},
	{"TUNELOCAL_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"TUNELOCAL_LOG_FILE", func(c *Config) *string { return &c.LogFile }},
	{"TUNELOCAL_REMOTE_URL", func(c *Config) *string { return &c.RemoteURL }},
	{"AWS_BUCKET_NAME", func(c *Config) *string { return &c.AwsBucketName }},
	{"AWS_ACCESS_KEY", func(c *Config) *string { return &c.AwsAccessKey }},
	{"AWS_SECRET_KEY", func(c *Config) *string { return &c.AwsSecretKey }},
	{"AWS_REGION", func(c *Config) *string { return &c.AwsRegion }},
	{"AWS_ENDPOINT", func(c *Config) *string { return &c.AwsEndpoint }},
}

// Default возвращает конфигурацию по умолчанию: sqlite библиотека в каталоге данных XDG
func Default() *Config {
	return &Config{
		LibraryBackend: "sqlite",
		LibraryPath:    defaultLibraryPath("sqlite"),
		LogLevel:       "info",
		LogFile:        filepath.Join(xdg.StateHome, appName, appName+".log"),
	}
}

// LoadEnvFiles загружает переменные из .env файлов.
// Уже заданные переменные окружения не перезаписываются, отсутствующие файлы пропускаются.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		path, err := ExpandHome(path)
		if err != nil {
			return err
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("ошибка загрузки %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Если файла нет, используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	path, err := ExpandHome(filePath)
	if err != nil {
		return nil, err
	}

	// Путь к библиотеке по умолчанию зависит от выбранного хранилища
	config := Default()
	config.LibraryPath = ""

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Работаем без файла конфигурации
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	config.applyEnv()
	config.applyDefaults()

	config.LibraryPath, err = ExpandHome(config.LibraryPath)
	if err != nil {
		return nil, err
	}
	config.LogFile, err = ExpandHome(config.LogFile)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() {
	for _, o := range envOverrides {
		if value, ok := os.LookupEnv(o.name); ok && value != "" {
			*o.field(c) = value
		}
	}
}

// applyDefaults восстанавливает значения, обнуленные в файле
func (c *Config) applyDefaults() {
	def := Default()
	if c.LibraryBackend == "" {
		c.LibraryBackend = def.LibraryBackend
	}
	if c.LibraryPath == "" {
		c.LibraryPath = defaultLibraryPath(c.LibraryBackend)
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

func defaultLibraryPath(backend string) string {
	name := "library.db"
	if backend == "yaml" {
		name = "library.yaml"
	}
	return filepath.Join(xdg.DataHome, appName, name)
}

// HasS3 возвращает true, если заданы параметры хранилища для резервных копий
func (c *Config) HasS3() bool {
	return c.AwsBucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// HasRemote возвращает true, если задан адрес удаленного каталога
func (c *Config) HasRemote() bool {
	return c.RemoteURL != ""
}

// ExpandHome раскрывает ведущую тильду в пути
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
