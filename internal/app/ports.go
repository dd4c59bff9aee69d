package app

import (
	"context"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// RecordSource supplies the full record set at mount.
type RecordSource interface {
	ListRecords(context.Context) ([]domain.Record, error)
}

// Repository persists records, custom layout, and grid overrides.
type Repository interface {
	RecordSource
	GetRecord(context.Context, int64) (domain.Record, error)
	UpdateRecord(context.Context, domain.Record) error
	ReplaceRecords(context.Context, []domain.Record) error

	ListGroups(context.Context) ([]domain.ColumnGroup, error)
	CreateGroup(context.Context, domain.ColumnGroup) error
	UpdateGroup(context.Context, domain.ColumnGroup) error

	ListCustomColumns(context.Context) ([]domain.CustomColumn, error)
	CreateCustomColumn(context.Context, domain.CustomColumn) error
	UpdateCustomColumn(context.Context, domain.CustomColumn) error

	ListNameOverrides(context.Context) (map[string]string, error)
	SetNameOverride(context.Context, string, string) error

	ListGridCells(context.Context) (GridCells, error)
	SetGridCell(context.Context, CellKey, string) error
	DeleteGridCell(context.Context, CellKey) error

	GetMeta(context.Context, string) (string, error)
	SetMeta(context.Context, string, string) error
}
