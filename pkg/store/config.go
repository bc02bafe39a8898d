package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/taskcal/pkg/payload"
)

// Config is what the CLI needs to find its state and build payloads.
type Config interface {
	BasePath() string
	Calendar() payload.Config
}

// LoadConfig reads .taskcal.yaml from TASKCAL_CONFIG_PATH or the working
// directory. TASKCAL_* environment variables override file values. A missing
// file is not an error.
func LoadConfig() (Config, error) {
	v := viper.New()
	def := payload.DefaultConfig()
	v.SetDefault("path", "~/.taskcal.db")
	v.SetDefault("calendar.work_start_min", def.WorkStartMin)
	v.SetDefault("calendar.work_end_min", def.WorkEndMin)
	v.SetDefault("calendar.snap_min", def.SnapMin)
	v.SetDefault("calendar.default_duration_min", def.DefaultDurationMin)
	v.SetDefault("calendar.max_infer_duration_min", def.MaxInferDurationMin)
	v.SetDefault("calendar.tz", def.TZ)
	v.SetDefault("calendar.display_tz", def.DisplayTZ)

	v.SetConfigName(".taskcal") // .yaml is implicit
	v.SetEnvPrefix("TASKCAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if override := os.Getenv("TASKCAL_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	cal := payload.Config{
		WorkStartMin:        v.GetInt("calendar.work_start_min"),
		WorkEndMin:          v.GetInt("calendar.work_end_min"),
		SnapMin:             v.GetInt("calendar.snap_min"),
		DefaultDurationMin:  v.GetInt("calendar.default_duration_min"),
		MaxInferDurationMin: v.GetInt("calendar.max_infer_duration_min"),
		TZ:                  v.GetString("calendar.tz"),
		DisplayTZ:           v.GetString("calendar.display_tz"),
	}
	if _, err := cal.Location(); err != nil {
		return nil, fmt.Errorf("store: calendar config: %w", err)
	}
	return &fileConfig{Path: path, Cal: cal}, nil
}

// StaticConfig is a Config with fixed values.
func StaticConfig(path string, cal payload.Config) Config {
	return &fileConfig{Path: path, Cal: cal}
}

type fileConfig struct {
	Path string         `json:"path"`
	Cal  payload.Config `json:"calendar"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) Calendar() payload.Config {
	return f.Cal
}
