package tui

import (
	"context"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// GridConfig sizes the scroll padding and the pixel scale of the terminal grid.
type GridConfig struct {
	Padder      app.Padder
	RowHeightPx int
	CellWidthPx int
}

// UpdateCallback receives each record edit once the service has saved it.
type UpdateCallback func(id int64, field domain.Field, value string)

// SeedReloadFunc re-imports the seed file and reports whether records changed.
type SeedReloadFunc func(context.Context) (bool, error)

type Option func(*Model)

func DefaultGridConfig() GridConfig {
	return GridConfig{
		Padder:      app.DefaultPadder(),
		RowHeightPx: 32,
		CellWidthPx: 8,
	}
}

func WithGridConfig(cfg GridConfig) Option {
	return func(m *Model) {
		m.padder = cfg.Padder
		if cfg.RowHeightPx > 0 {
			m.rowHeightPx = cfg.RowHeightPx
		}
		if cfg.CellWidthPx > 0 {
			m.cellWidthPx = cfg.CellWidthPx
		}
	}
}

func WithUpdateCallback(fn UpdateCallback) Option {
	return func(m *Model) {
		m.onUpdate = fn
	}
}

func WithSeedReload(fn SeedReloadFunc) Option {
	return func(m *Model) {
		m.reloadSeed = fn
	}
}

func WithDefaultTab(tab string) Option {
	return func(m *Model) {
		switch tab {
		case app.TabAll, app.TabPending, app.TabReviewed, app.TabArrived:
			m.tab = tab
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithSelection seeds the externally owned row selection.
func WithSelection(ids ...int64) Option {
	return func(m *Model) {
		m.selected = app.NewSelection(ids...)
	}
}
