// Package config loads settings from defaults, an optional config/.env.<env>
// file and the environment. ENV (DEV, TEST, QA, PROD) selects both the file and
// the variable prefix, so DEV_DB_DRIVER sets db.driver.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"slides/internal/editor"
	"slides/internal/geometry"
	"slides/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the decoded form of the settings the commands use.
type Config struct {
	Env     string
	Listen  string
	DataDir string
	DB      storage.Config
	Editor  editor.Options
	FontDir string
}

// New builds a viper instance rooted at dir. dir holds the optional config/
// directory; an empty dir means the working directory.
func New(dir string) (*viper.Viper, error) {
	v := viper.New()

	v.SetTypeByDefaultValue(true)
	v.SetDefault("listen", ":8080")
	v.SetDefault("dataDir", "data")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.host", "")
	v.SetDefault("db.port", 0)
	v.SetDefault("db.name", "")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslMode", "")
	v.SetDefault("db.mongoUri", "")
	v.SetDefault("db.mongoDatabase", "")
	v.SetDefault("canvas.width", geometry.ReferenceWidth)
	v.SetDefault("canvas.height", geometry.ReferenceHeight)
	v.SetDefault("canvas.fontReference", geometry.FontReferenceWidth)
	v.SetDefault("editor.debounce", 500*time.Millisecond)
	v.SetDefault("editor.loadAttempts", 5)
	v.SetDefault("editor.loadDelay", 200*time.Millisecond)
	v.SetDefault("editor.historyLimit", 50)
	v.SetDefault("editor.frameInterval", 16*time.Millisecond)
	v.SetDefault("editor.requestTimeout", 10*time.Second)
	v.SetDefault("render.fontDir", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.Set("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(dir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", dotEnvPath, err)
	}
	v.AutomaticEnv()
	return v, nil
}

// Decode reads v into a Config. A relative SQLite path lives under dataDir.
func Decode(v *viper.Viper) Config {
	c := Config{
		Env:     v.GetString("env"),
		Listen:  v.GetString("listen"),
		DataDir: v.GetString("dataDir"),
		DB: storage.Config{
			Driver:        v.GetString("db.driver"),
			Path:          v.GetString("db.path"),
			DSN:           v.GetString("db.dsn"),
			Host:          v.GetString("db.host"),
			Port:          v.GetInt("db.port"),
			Name:          v.GetString("db.name"),
			User:          v.GetString("db.user"),
			Password:      v.GetString("db.password"),
			SSLMode:       v.GetString("db.sslMode"),
			MongoURI:      v.GetString("db.mongoUri"),
			MongoDatabase: v.GetString("db.mongoDatabase"),
		},
		Editor: editor.Options{
			Reference:      geometry.Size{Width: v.GetFloat64("canvas.width"), Height: v.GetFloat64("canvas.height")},
			FontReference:  v.GetFloat64("canvas.fontReference"),
			Zoom:           1,
			Debounce:       v.GetDuration("editor.debounce"),
			LoadAttempts:   v.GetInt("editor.loadAttempts"),
			LoadDelay:      v.GetDuration("editor.loadDelay"),
			HistoryLimit:   v.GetInt("editor.historyLimit"),
			FrameInterval:  v.GetDuration("editor.frameInterval"),
			RequestTimeout: v.GetDuration("editor.requestTimeout"),
		},
		FontDir: v.GetString("render.fontDir"),
	}
	if c.DB.Path == "" {
		c.DB.Path = filepath.Join(c.DataDir, "slides.db")
	} else if !filepath.IsAbs(c.DB.Path) && c.DataDir != "" {
		c.DB.Path = filepath.Join(c.DataDir, c.DB.Path)
	}
	return c
}

// Load is New followed by Decode.
func Load(dir string) (Config, error) {
	v, err := New(dir)
	if err != nil {
		return Config{}, err
	}
	return Decode(v), nil
}
