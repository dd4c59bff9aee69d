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

// Meta keys persisted alongside the grid.
const (
	MetaColumnCounter = "column_counter"
	MetaSeedDigest    = "seed_digest"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	LoadDelay time.Duration
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates record edits, layout changes, and persistence.
type Service struct {
	repo      Repository
	idGen     IDGenerator
	clock     Clock
	loadDelay time.Duration
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:      repo,
		idGen:     idGen,
		clock:     clock,
		loadDelay: max(0, cfg.LoadDelay),
	}
}

// LoadRecords waits the configured load delay and returns the full record set.
func (s *Service) LoadRecords(ctx context.Context) ([]domain.Record, error) {
	if s.loadDelay > 0 {
		timer := time.NewTimer(s.loadDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return records, nil
}

// LayoutState is everything persisted about the grid besides records.
type LayoutState struct {
	Defaults []domain.ColumnGroup
	Groups   []domain.ColumnGroup
	Custom   []domain.CustomColumn
	Titles   map[string]string
	Cells    GridCells
}

// Layout derives the group bands.
func (l LayoutState) Layout() Layout {
	defaults := l.Defaults
	if len(defaults) == 0 {
		defaults = domain.DefaultGroups()
	}
	return DeriveGroupsWith(defaults, l.Groups, l.Custom)
}

// Columns lists the grid columns in canonical order.
func (l LayoutState) Columns() []Column {
	return Columns(l.Titles, l.Custom)
}

// AllGroups lists built-in then custom groups.
func (l LayoutState) AllGroups() []domain.ColumnGroup {
	defaults := l.Defaults
	if len(defaults) == 0 {
		defaults = domain.DefaultGroups()
	}
	return append(slices.Clone(defaults), l.Groups...)
}

// CustomColumn finds a custom column by id.
func (l LayoutState) CustomColumn(id string) (domain.CustomColumn, bool) {
	idx := slices.IndexFunc(l.Custom, func(c domain.CustomColumn) bool { return c.ID == id })
	if idx < 0 {
		return domain.CustomColumn{}, false
	}
	return l.Custom[idx], true
}

func groupOverrideKey(id string) string {
	return "group:" + id
}

func columnOverrideKey(id string) string {
	return "column:" + id
}

// LoadLayout reads custom groups, custom columns, name overrides, and grid cells.
func (s *Service) LoadLayout(ctx context.Context) (LayoutState, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return LayoutState{}, fmt.Errorf("list groups: %w", err)
	}
	custom, err := s.repo.ListCustomColumns(ctx)
	if err != nil {
		return LayoutState{}, fmt.Errorf("list custom columns: %w", err)
	}
	overrides, err := s.repo.ListNameOverrides(ctx)
	if err != nil {
		return LayoutState{}, fmt.Errorf("list name overrides: %w", err)
	}
	cells, err := s.repo.ListGridCells(ctx)
	if err != nil {
		return LayoutState{}, fmt.Errorf("list grid cells: %w", err)
	}

	defaults := domain.DefaultGroups()
	for i := range defaults {
		if name, ok := overrides[groupOverrideKey(defaults[i].ID)]; ok && name != "" {
			defaults[i].Name = name
		}
	}
	titles := map[string]string{}
	for _, c := range BaseColumns() {
		if name, ok := overrides[columnOverrideKey(c.ID)]; ok && name != "" {
			titles[c.ID] = name
		}
	}
	if cells == nil {
		cells = GridCells{}
	}
	return LayoutState{
		Defaults: defaults,
		Groups:   groups,
		Custom:   custom,
		Titles:   titles,
		Cells:    cells,
	}, nil
}

// UpdateRecordField writes one field. The write happens even when the value is unchanged.
func (s *Service) UpdateRecordField(ctx context.Context, id int64, field domain.Field, value string) (domain.Record, error) {
	if field == domain.FieldID {
		return domain.Record{}, domain.ErrImmutableField
	}
	switch field {
	case domain.FieldStatus:
		status, err := domain.ParseStatus(value)
		if err != nil {
			return domain.Record{}, err
		}
		value = string(status)
	case domain.FieldPriority:
		priority, err := domain.ParsePriority(value)
		if err != nil {
			return domain.Record{}, err
		}
		value = string(priority)
	}
	record, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	record, err = record.WithField(field, value)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.repo.UpdateRecord(ctx, record); err != nil {
		return domain.Record{}, err
	}
	return record, nil
}

// SetGridCell stores one override cell, deleting cleared cells in columns that do not retain empties.
func (s *Service) SetGridCell(ctx context.Context, row, col int, value string) error {
	if row < 0 || col < 0 {
		return ErrInvalidCell
	}
	key := CellKey{Row: row, Col: col}
	if value == "" && !RetainsEmpty(col) {
		if err := s.repo.DeleteGridCell(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
	return s.repo.SetGridCell(ctx, key, value)
}

// NewColumnInput describes one column in an add-column request.
type NewColumnInput struct {
	Name string
	Type domain.ColumnType
	Icon domain.Icon
}

// AddColumnsInput targets an existing group or names a new one.
type AddColumnsInput struct {
	GroupID      string
	NewGroupName string
	Columns      []NewColumnInput
}

// AddColumnsResult reports what AddColumns created.
type AddColumnsResult struct {
	Group        domain.ColumnGroup
	GroupCreated bool
	Columns      []domain.CustomColumn
}

// CreateGroup adds a custom group, or returns the existing group with the same slug.
func (s *Service) CreateGroup(ctx context.Context, name string) (domain.ColumnGroup, bool, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return domain.ColumnGroup{}, false, err
	}
	all := append(domain.DefaultGroups(), groups...)
	group, err := domain.NewColumnGroup(name, len(all))
	if err != nil {
		return domain.ColumnGroup{}, false, err
	}
	if idx := slices.IndexFunc(all, func(g domain.ColumnGroup) bool { return g.ID == group.ID }); idx >= 0 {
		return all[idx], false, nil
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return domain.ColumnGroup{}, false, err
	}
	return group, true, nil
}

// AddColumns creates columns with custom-N ids from the persisted counter.
func (s *Service) AddColumns(ctx context.Context, in AddColumnsInput) (AddColumnsResult, error) {
	if len(in.Columns) == 0 {
		return AddColumnsResult{}, ErrNoColumns
	}
	for _, c := range in.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return AddColumnsResult{}, domain.ErrInvalidName
		}
	}

	var result AddColumnsResult
	switch {
	case strings.TrimSpace(in.NewGroupName) != "":
		group, created, err := s.CreateGroup(ctx, in.NewGroupName)
		if err != nil {
			return AddColumnsResult{}, err
		}
		result.Group = group
		result.GroupCreated = created
	default:
		groupID := strings.TrimSpace(in.GroupID)
		if groupID == "" {
			groupID = domain.GroupExtra
		}
		layout, err := s.LoadLayout(ctx)
		if err != nil {
			return AddColumnsResult{}, err
		}
		result.Group = domain.ColumnGroup{ID: groupID, Name: groupID, Color: domain.FallbackGroupColor}
		for _, g := range layout.AllGroups() {
			if g.ID == groupID {
				result.Group = g
				break
			}
		}
	}

	counter, err := s.columnCounter(ctx)
	if err != nil {
		return AddColumnsResult{}, err
	}
	for i, nc := range in.Columns {
		col, err := domain.NewCustomColumn(domain.CustomColumnID(counter+i), nc.Name, result.Group.ID, nc.Type, nc.Icon)
		if err != nil {
			return AddColumnsResult{}, err
		}
		if err := s.repo.CreateCustomColumn(ctx, col); err != nil {
			return AddColumnsResult{}, err
		}
		result.Columns = append(result.Columns, col)
	}
	if err := s.repo.SetMeta(ctx, MetaColumnCounter, strconv.Itoa(counter+len(in.Columns))); err != nil {
		return AddColumnsResult{}, err
	}
	return result, nil
}

func (s *Service) columnCounter(ctx context.Context) (int, error) {
	raw, err := s.repo.GetMeta(ctx, MetaColumnCounter)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", MetaColumnCounter, err)
	}
	return n, nil
}

// RenameGroup renames a custom group, or records a display-name override for a built-in one.
func (s *Service) RenameGroup(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	if domain.IsDefaultGroup(id) {
		return s.repo.SetNameOverride(ctx, groupOverrideKey(id), name)
	}
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(groups, func(g domain.ColumnGroup) bool { return g.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	group := groups[idx]
	if err := group.Rename(name); err != nil {
		return err
	}
	return s.repo.UpdateGroup(ctx, group)
}

// RenameColumn renames a custom column, or records a title override for a base column.
func (s *Service) RenameColumn(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	if slices.ContainsFunc(BaseColumns(), func(c Column) bool { return c.ID == id }) {
		return s.repo.SetNameOverride(ctx, columnOverrideKey(id), name)
	}
	col, err := s.customColumn(ctx, id)
	if err != nil {
		return err
	}
	if err := col.Rename(name); err != nil {
		return err
	}
	return s.repo.UpdateCustomColumn(ctx, col)
}

// MoveColumn reassigns a custom column to another group.
func (s *Service) MoveColumn(ctx context.Context, columnID, groupID string) (domain.CustomColumn, error) {
	col, err := s.customColumn(ctx, columnID)
	if err != nil {
		return domain.CustomColumn{}, err
	}
	if err := col.MoveTo(groupID); err != nil {
		return domain.CustomColumn{}, err
	}
	if err := s.repo.UpdateCustomColumn(ctx, col); err != nil {
		return domain.CustomColumn{}, err
	}
	return col, nil
}

func (s *Service) customColumn(ctx context.Context, id string) (domain.CustomColumn, error) {
	cols, err := s.repo.ListCustomColumns(ctx)
	if err != nil {
		return domain.CustomColumn{}, err
	}
	idx := slices.IndexFunc(cols, func(c domain.CustomColumn) bool { return c.ID == id })
	if idx < 0 {
		return domain.CustomColumn{}, ErrNotFound
	}
	return cols[idx], nil
}

// Seed is a decoded seed file.
type Seed struct {
	Path    string
	Digest  string
	Records []domain.Record
}

// ImportSeed replaces all records with the seed unless its digest matches the last import.
func (s *Service) ImportSeed(ctx context.Context, seed Seed) (bool, error) {
	if seed.Digest != "" {
		last, err := s.repo.GetMeta(ctx, MetaSeedDigest)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return false, err
		}
		if last == seed.Digest {
			return false, nil
		}
	}
	if err := validateRecords(seed.Records); err != nil {
		return false, err
	}
	if err := s.repo.ReplaceRecords(ctx, seed.Records); err != nil {
		return false, fmt.Errorf("replace records: %w", err)
	}
	if seed.Digest != "" {
		if err := s.repo.SetMeta(ctx, MetaSeedDigest, seed.Digest); err != nil {
			return false, err
		}
	}
	return true, nil
}

func validateRecords(records []domain.Record) error {
	seen := make(map[int64]struct{}, len(records))
	for i, r := range records {
		if r.ID <= 0 {
			return fmt.Errorf("records[%d]: %w", i, domain.ErrInvalidID)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("records[%d]: duplicate id %d: %w", i, r.ID, domain.ErrInvalidID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

