package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

var _ app.Repository = (*Repository)(nil)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "nested", "jobgrid.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func openMemoryRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func testRecords() []domain.Record {
	return []domain.Record{
		{ID: 2, JobRequest: "Update press kit", Submitted: "28-10-2024", Status: domain.StatusNeedToStart, Submitter: "Irfan Khan", URL: "www.irfankhan.com", Assigned: "Tejas Pandey", Priority: domain.PriorityHigh, DueDate: "30-10-2024", EstValue: "3,500,000"},
		{ID: 1, JobRequest: "Launch social media campaign", Submitted: "15-11-2024", Status: domain.StatusInProcess, Submitter: "Aisha Patel", URL: "www.aishapatel.com", Assigned: "Sophie Choudhury", Priority: domain.PriorityMedium, DueDate: "20-11-2024", EstValue: "6,200,000"},
	}
}

func TestRepository_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if err := repo.ReplaceRecords(ctx, testRecords()); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}
	records, err := repo.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 || records[0].ID != 1 || records[1].ID != 2 {
		t.Fatalf("unexpected records %#v", records)
	}
	if records[1] != testRecords()[0] {
		t.Fatalf("record did not round trip: %#v", records[1])
	}

	rec := records[0]
	rec.Assigned = "Rachel Lee"
	if err := repo.UpdateRecord(ctx, rec); err != nil {
		t.Fatalf("UpdateRecord() error = %v", err)
	}
	if err := repo.UpdateRecord(ctx, rec); err != nil {
		t.Fatalf("UpdateRecord(identical) error = %v", err)
	}
	got, err := repo.GetRecord(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if got.Assigned != "Rachel Lee" {
		t.Fatalf("unexpected assigned %q", got.Assigned)
	}
	if _, err := repo.GetRecord(ctx, 99); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateRecord(ctx, domain.Record{ID: 99}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.ReplaceRecords(ctx, testRecords()[:1]); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}
	if records, _ := repo.ListRecords(ctx); len(records) != 1 {
		t.Fatalf("expected replace to drop old rows, got %d", len(records))
	}
}

func TestRepository_ReplaceRecordsRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	if err := repo.ReplaceRecords(ctx, testRecords()); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}
	dup := []domain.Record{{ID: 5}, {ID: 5}}
	if err := repo.ReplaceRecords(ctx, dup); err == nil {
		t.Fatal("expected duplicate id insert to fail")
	}
	records, err := repo.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected rollback to keep 2 records, got %d", len(records))
	}
}

func TestRepository_GroupsAndColumnsKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, g := range []domain.ColumnGroup{{ID: "zeta", Name: "Zeta", Color: "#FFE5E5"}, {ID: "alpha", Name: "Alpha", Color: "#E5F3FF"}} {
		if err := repo.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup() error = %v", err)
		}
	}
	if err := repo.UpdateGroup(ctx, domain.ColumnGroup{ID: "zeta", Name: "Zed", Color: "#FFE5E5"}); err != nil {
		t.Fatalf("UpdateGroup() error = %v", err)
	}
	if err := repo.UpdateGroup(ctx, domain.ColumnGroup{ID: "ghost"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	groups, err := repo.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 2 || groups[0].ID != "zeta" || groups[0].Name != "Zed" || groups[1].ID != "alpha" {
		t.Fatalf("unexpected groups %#v", groups)
	}

	for _, c := range []domain.CustomColumn{
		{ID: "custom-1", Name: "B", GroupID: "alpha", Type: domain.ColumnTypeStatus, Icon: "tag"},
		{ID: "custom-0", Name: "A", GroupID: "zeta", Type: domain.ColumnTypeText},
	} {
		if err := repo.CreateCustomColumn(ctx, c); err != nil {
			t.Fatalf("CreateCustomColumn() error = %v", err)
		}
	}
	moved := domain.CustomColumn{ID: "custom-0", Name: "A2", GroupID: "alpha", Type: domain.ColumnTypeText}
	if err := repo.UpdateCustomColumn(ctx, moved); err != nil {
		t.Fatalf("UpdateCustomColumn() error = %v", err)
	}
	cols, err := repo.ListCustomColumns(ctx)
	if err != nil {
		t.Fatalf("ListCustomColumns() error = %v", err)
	}
	if len(cols) != 2 || cols[0].ID != "custom-1" || cols[0].Icon != "tag" || cols[1] != moved {
		t.Fatalf("unexpected columns %#v", cols)
	}
}

func TestRepository_GridCellsOverridesAndMeta(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if err := repo.SetGridCell(ctx, app.CellKey{Row: 55, Col: 11}, ""); err != nil {
		t.Fatalf("SetGridCell() error = %v", err)
	}
	if err := repo.SetGridCell(ctx, app.CellKey{Row: 1, Col: 9}, "a"); err != nil {
		t.Fatalf("SetGridCell() error = %v", err)
	}
	if err := repo.SetGridCell(ctx, app.CellKey{Row: 1, Col: 9}, "b"); err != nil {
		t.Fatalf("SetGridCell(upsert) error = %v", err)
	}
	cells, err := repo.ListGridCells(ctx)
	if err != nil {
		t.Fatalf("ListGridCells() error = %v", err)
	}
	if len(cells) != 2 || !cells.Has(55, 11) || cells.Get(1, 9) != "b" {
		t.Fatalf("unexpected cells %v", cells)
	}
	if err := repo.DeleteGridCell(ctx, app.CellKey{Row: 1, Col: 9}); err != nil {
		t.Fatalf("DeleteGridCell() error = %v", err)
	}
	if err := repo.DeleteGridCell(ctx, app.CellKey{Row: 1, Col: 9}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.SetNameOverride(ctx, "group:extra", "Misc"); err != nil {
		t.Fatalf("SetNameOverride() error = %v", err)
	}
	if err := repo.SetNameOverride(ctx, "group:extra", "More"); err != nil {
		t.Fatalf("SetNameOverride() error = %v", err)
	}
	overrides, err := repo.ListNameOverrides(ctx)
	if err != nil {
		t.Fatalf("ListNameOverrides() error = %v", err)
	}
	if len(overrides) != 1 || overrides["group:extra"] != "More" {
		t.Fatalf("unexpected overrides %v", overrides)
	}

	if _, err := repo.GetMeta(ctx, app.MetaColumnCounter); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SetMeta(ctx, app.MetaColumnCounter, "3"); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}
	if v, err := repo.GetMeta(ctx, app.MetaColumnCounter); err != nil || v != "3" {
		t.Fatalf("GetMeta() = %q, %v", v, err)
	}
}

func TestRepository_ServiceIntegration(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{})

	if _, err := svc.ImportSeed(ctx, app.Seed{Digest: "d1", Records: testRecords()}); err != nil {
		t.Fatalf("ImportSeed() error = %v", err)
	}
	res, err := svc.AddColumns(ctx, app.AddColumnsInput{NewGroupName: "Vendor Review", Columns: []app.NewColumnInput{{Name: "Vendor"}}})
	if err != nil {
		t.Fatalf("AddColumns() error = %v", err)
	}
	if res.Group.Color != "#F0E5FF" {
		t.Fatalf("unexpected new group colour %q", res.Group.Color)
	}
	if err := svc.SetGridCell(ctx, 0, 9, "Acme"); err != nil {
		t.Fatalf("SetGridCell() error = %v", err)
	}

	reopened, err := svc.LoadLayout(ctx)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	group, ok := reopened.Layout().Group("vendor-review")
	if !ok || group.Count != 1 || group.Columns[0] != "custom-0" {
		t.Fatalf("unexpected derived group %#v", group)
	}
	if reopened.Cells.Get(0, 9) != "Acme" {
		t.Fatal("expected grid cell to persist")
	}
}

func TestOpenInMemory_DatabasesAreIsolated(t *testing.T) {
	ctx := context.Background()
	first := openMemoryRepo(t)
	second := openMemoryRepo(t)

	if err := first.ReplaceRecords(ctx, testRecords()); err != nil {
		t.Fatalf("ReplaceRecords() error = %v", err)
	}
	if err := first.SetGridCell(ctx, app.CellKey{Row: 4, Col: 0}, "note"); err != nil {
		t.Fatalf("SetGridCell() error = %v", err)
	}

	records, err := first.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords(first) error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records in first db, got %d", len(records))
	}
	records, err = second.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords(second) error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected second db to be empty, got %#v", records)
	}
	cells, err := second.ListGridCells(ctx)
	if err != nil {
		t.Fatalf("ListGridCells(second) error = %v", err)
	}
	if len(cells) != 0 {
		t.Fatalf("expected no grid cells in second db, got %#v", cells)
	}
}
