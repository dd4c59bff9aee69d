package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/evanschultz/jobgrid/internal/app"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Source   SourceConfig   `toml:"source"`
	Grid     GridConfig     `toml:"grid"`
	UI       UIConfig       `toml:"ui"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type SourceConfig struct {
	SeedPath  string `toml:"seed_path"`
	LoadDelay string `toml:"load_delay"`
	Watch     bool   `toml:"watch"`
}

// GridConfig sizes the padding policy. Pixel values are converted to terminal
// rows and cells with RowHeightPx and CellWidthPx.
type GridConfig struct {
	MinRows           int `toml:"min_rows"`
	ScrollThresholdPx int `toml:"scroll_threshold_px"`
	LowWaterRows      int `toml:"low_water_rows"`
	ExpandIncrement   int `toml:"expand_increment"`
	RowHeightPx       int `toml:"row_height_px"`
	CellWidthPx       int `toml:"cell_width_px"`
}

type UIConfig struct {
	DefaultTab string `toml:"default_tab"`
}

type KeyConfig struct {
	Search    string `toml:"search"`
	AddColumn string `toml:"add_column"`
	Rename    string `toml:"rename"`
	MoveGroup string `toml:"move_group"`
	Detail    string `toml:"detail"`
	Yank      string `toml:"yank"`
	SelectAll string `toml:"select_all"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".jobgrid/log",
			},
		},
		Source: SourceConfig{
			LoadDelay: "1s",
			Watch:     true,
		},
		Grid: GridConfig{
			MinRows:           50,
			ScrollThresholdPx: 50,
			LowWaterRows:      15,
			ExpandIncrement:   25,
			RowHeightPx:       32,
			CellWidthPx:       8,
		},
		UI: UIConfig{
			DefaultTab: app.TabAll,
		},
		Keys: KeyConfig{
			Search:    "/",
			AddColumn: "+",
			Rename:    "r",
			MoveGroup: "m",
			Detail:    "i",
			Yank:      "y",
			SelectAll: "A",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if _, err := log.ParseLevel(strings.TrimSpace(strings.ToLower(c.Logging.Level))); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	if _, err := c.LoadDelay(); err != nil {
		return err
	}

	grid := []struct {
		name  string
		value int
		min   int
	}{
		{"grid.min_rows", c.Grid.MinRows, 0},
		{"grid.scroll_threshold_px", c.Grid.ScrollThresholdPx, 0},
		{"grid.low_water_rows", c.Grid.LowWaterRows, 0},
		{"grid.expand_increment", c.Grid.ExpandIncrement, 1},
		{"grid.row_height_px", c.Grid.RowHeightPx, 1},
		{"grid.cell_width_px", c.Grid.CellWidthPx, 1},
	}
	for _, g := range grid {
		if g.value < g.min {
			return fmt.Errorf("%s must be >= %d", g.name, g.min)
		}
	}

	switch strings.TrimSpace(strings.ToLower(c.UI.DefaultTab)) {
	case "", app.TabAll, app.TabPending, app.TabReviewed, app.TabArrived:
	default:
		return fmt.Errorf("invalid ui.default_tab: %q", c.UI.DefaultTab)
	}

	return nil
}

// LoadDelay parses source.load_delay; empty means no delay.
func (c Config) LoadDelay() (time.Duration, error) {
	raw := strings.TrimSpace(c.Source.LoadDelay)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid source.load_delay: %q", c.Source.LoadDelay)
	}
	return d, nil
}

// Padder converts the grid section into the row-padding policy.
func (c Config) Padder() app.Padder {
	return app.Padder{
		MinRows:   c.Grid.MinRows,
		Threshold: c.Grid.ScrollThresholdPx,
		LowWater:  c.Grid.LowWaterRows,
		Increment: c.Grid.ExpandIncrement,
	}
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
