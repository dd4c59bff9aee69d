package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/jobgrid/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "jobgrid.snapshot.v1"

// Snapshot is a portable copy of the records and the persisted grid layout.
type Snapshot struct {
	Version       string                `json:"version"`
	ID            string                `json:"id,omitempty"`
	ExportedAt    time.Time             `json:"exported_at"`
	Records       []domain.Record       `json:"records"`
	Groups        []domain.ColumnGroup  `json:"groups"`
	Columns       []domain.CustomColumn `json:"columns"`
	NameOverrides map[string]string     `json:"name_overrides,omitempty"`
	GridCells     map[string]string     `json:"grid_cells,omitempty"`
	ColumnCounter int                   `json:"column_counter"`
}

// ExportSnapshot collects the current state.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	columns, err := s.repo.ListCustomColumns(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	overrides, err := s.repo.ListNameOverrides(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	cells, err := s.repo.ListGridCells(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	counter, err := s.columnCounter(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Version:       SnapshotVersion,
		ID:            s.idGen(),
		ExportedAt:    s.clock().UTC(),
		Records:       records,
		Groups:        groups,
		Columns:       columns,
		NameOverrides: overrides,
		GridCells:     cells.Strings(),
		ColumnCounter: counter,
	}, nil
}

// Validate checks ids and references before import.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, s.Version)
	}
	if err := validateRecords(s.Records); err != nil {
		return err
	}

	groupIDs := map[string]struct{}{}
	for _, g := range domain.DefaultGroups() {
		groupIDs[g.ID] = struct{}{}
	}
	for i, g := range s.Groups {
		if strings.TrimSpace(g.ID) == "" {
			return fmt.Errorf("groups[%d].id is required", i)
		}
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("groups[%d].name is required", i)
		}
		if _, exists := groupIDs[g.ID]; exists {
			return fmt.Errorf("duplicate group id: %q", g.ID)
		}
		groupIDs[g.ID] = struct{}{}
	}

	columnIDs := map[string]struct{}{}
	for i, c := range s.Columns {
		if _, err := domain.NewCustomColumn(c.ID, c.Name, c.GroupID, c.Type, c.Icon); err != nil {
			return fmt.Errorf("columns[%d]: %w", i, err)
		}
		if _, exists := columnIDs[c.ID]; exists {
			return fmt.Errorf("duplicate column id: %q", c.ID)
		}
		columnIDs[c.ID] = struct{}{}
	}
	if _, err := GridCellsFromStrings(s.GridCells); err != nil {
		return err
	}
	if s.ColumnCounter < 0 {
		return fmt.Errorf("column_counter must be >= 0")
	}
	return nil
}

// ImportSnapshot replaces records and grid cells and upserts the layout definitions.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	cells, err := GridCellsFromStrings(snap.GridCells)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceRecords(ctx, snap.Records); err != nil {
		return fmt.Errorf("replace records: %w", err)
	}

	existingGroups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return err
	}
	for _, g := range snap.Groups {
		g.Default = false
		if slices.ContainsFunc(existingGroups, func(e domain.ColumnGroup) bool { return e.ID == g.ID }) {
			err = s.repo.UpdateGroup(ctx, g)
		} else {
			err = s.repo.CreateGroup(ctx, g)
		}
		if err != nil {
			return fmt.Errorf("import group %q: %w", g.ID, err)
		}
	}

	existingColumns, err := s.repo.ListCustomColumns(ctx)
	if err != nil {
		return err
	}
	counter := snap.ColumnCounter
	for _, c := range snap.Columns {
		if slices.ContainsFunc(existingColumns, func(e domain.CustomColumn) bool { return e.ID == c.ID }) {
			err = s.repo.UpdateCustomColumn(ctx, c)
		} else {
			err = s.repo.CreateCustomColumn(ctx, c)
		}
		if err != nil {
			return fmt.Errorf("import column %q: %w", c.ID, err)
		}
		if n, ok := domain.CustomColumnNumber(c.ID); ok && n >= counter {
			counter = n + 1
		}
	}

	for target, name := range snap.NameOverrides {
		if err := s.repo.SetNameOverride(ctx, target, name); err != nil {
			return fmt.Errorf("import name override %q: %w", target, err)
		}
	}

	existingCells, err := s.repo.ListGridCells(ctx)
	if err != nil {
		return err
	}
	for key := range existingCells {
		if _, keep := cells[key]; keep {
			continue
		}
		if err := s.repo.DeleteGridCell(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	for key, value := range cells {
		if err := s.repo.SetGridCell(ctx, key, value); err != nil {
			return fmt.Errorf("import grid cell %s: %w", key, err)
		}
	}

	current, err := s.columnCounter(ctx)
	if err != nil {
		return err
	}
	return s.repo.SetMeta(ctx, MetaColumnCounter, strconv.Itoa(max(current, counter)))
}
