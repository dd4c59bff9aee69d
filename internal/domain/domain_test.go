package domain

import (
	"errors"
	"testing"
)

func sampleRecord() Record {
	return Record{
		ID:         7,
		JobRequest: "Launch social media campaign",
		Submitted:  "15-11-2024",
		Status:     StatusInProcess,
		Submitter:  "Aisha Patel",
		URL:        "www.aishapatel.com",
		Assigned:   "Sophie Choudhury",
		Priority:   PriorityMedium,
		DueDate:    "20-11-2024",
		EstValue:   "6,200,000",
	}
}

func TestRecordWithFieldReplacesOneField(t *testing.T) {
	r := sampleRecord()
	updated, err := r.WithField(FieldAssigned, "Mina Okafor")
	if err != nil {
		t.Fatalf("WithField() error = %v", err)
	}
	if updated.Assigned != "Mina Okafor" {
		t.Fatalf("unexpected assigned %q", updated.Assigned)
	}
	for _, f := range Fields {
		if f == FieldAssigned {
			continue
		}
		if updated.Value(f) != r.Value(f) {
			t.Fatalf("field %s changed: %q -> %q", f, r.Value(f), updated.Value(f))
		}
	}
	if r.Assigned != "Sophie Choudhury" {
		t.Fatal("expected original record to be untouched")
	}
}

func TestRecordWithFieldRejectsIDAndUnknown(t *testing.T) {
	r := sampleRecord()
	if _, err := r.WithField(FieldID, "9"); !errors.Is(err, ErrImmutableField) {
		t.Fatalf("expected ErrImmutableField, got %v", err)
	}
	if _, err := r.WithField(Field("nope"), "x"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestRecordWithFieldAcceptsArbitraryEnumText(t *testing.T) {
	updated, err := sampleRecord().WithField(FieldStatus, "Archived")
	if err != nil {
		t.Fatalf("WithField() error = %v", err)
	}
	if updated.Status != Status("Archived") {
		t.Fatalf("unexpected status %q", updated.Status)
	}
}

func TestRecordMatches(t *testing.T) {
	r := sampleRecord()
	cases := map[string]bool{
		"":           true,
		"7":          true,
		"aisha":      true,
		"in-process": true,
		"6,200":      true,
		"zebra":      false,
	}
	for needle, want := range cases {
		if got := r.Matches(needle); got != want {
			t.Fatalf("Matches(%q) = %t, want %t", needle, got, want)
		}
	}
}

func TestParseStatusAndPriority(t *testing.T) {
	s, err := ParseStatus("  need TO start ")
	if err != nil || s != StatusNeedToStart {
		t.Fatalf("ParseStatus() = %q, %v", s, err)
	}
	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	p, err := ParsePriority("low")
	if err != nil || p != PriorityLow {
		t.Fatalf("ParsePriority() = %q, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("DUEDATE")
	if err != nil || f != FieldDueDate {
		t.Fatalf("ParseField() = %q, %v", f, err)
	}
	if _, err := ParseField("owner"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestGroupSlugAndPalette(t *testing.T) {
	if got := GroupSlug("  Vendor   Review\tQ4 "); got != "vendor-review-q4" {
		t.Fatalf("unexpected slug %q", got)
	}
	if PaletteColor(0) != "#FFE5E5" || PaletteColor(6) != "#FFE5E5" || PaletteColor(4) != "#F0E5FF" {
		t.Fatal("unexpected palette rotation")
	}
	g, err := NewColumnGroup("Vendor Review", 5)
	if err != nil {
		t.Fatalf("NewColumnGroup() error = %v", err)
	}
	if g.ID != "vendor-review" || g.Color != "#E5FFF5" || g.Default {
		t.Fatalf("unexpected group %#v", g)
	}
	if _, err := NewColumnGroup("   ", 0); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestDefaultGroups(t *testing.T) {
	groups := DefaultGroups()
	if len(groups) != 4 {
		t.Fatalf("expected 4 default groups, got %d", len(groups))
	}
	if groups[1].ID != GroupExtra || groups[1].Name != "ABC" {
		t.Fatalf("unexpected extra group %#v", groups[1])
	}
	if !IsDefaultGroup(GroupExtract) || IsDefaultGroup("vendor-review") {
		t.Fatal("unexpected IsDefaultGroup result")
	}
}

func TestNewCustomColumn(t *testing.T) {
	c, err := NewCustomColumn(CustomColumnID(3), " Budget ", "", "", "dollar-sign")
	if err != nil {
		t.Fatalf("NewCustomColumn() error = %v", err)
	}
	if c.ID != "custom-3" || c.Name != "Budget" || c.GroupID != GroupExtra || c.Type != ColumnTypeText {
		t.Fatalf("unexpected column %#v", c)
	}
	if n, ok := CustomColumnNumber(c.ID); !ok || n != 3 {
		t.Fatalf("CustomColumnNumber() = %d, %t", n, ok)
	}
	if _, ok := CustomColumnNumber("extra-2"); ok {
		t.Fatal("expected non-custom id to be rejected")
	}
	if _, err := NewCustomColumn("custom-1", "x", "", "currency", ""); !errors.Is(err, ErrInvalidColumnType) {
		t.Fatalf("expected ErrInvalidColumnType, got %v", err)
	}
	if _, err := NewCustomColumn("custom-1", "x", "", ColumnTypeText, "rocket"); !errors.Is(err, ErrInvalidIcon) {
		t.Fatalf("expected ErrInvalidIcon, got %v", err)
	}
	if err := c.Rename("  "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if err := c.MoveTo("extract"); err != nil || c.GroupID != "extract" {
		t.Fatalf("MoveTo() = %v, group %q", err, c.GroupID)
	}
}

func TestIconCatalogue(t *testing.T) {
	if len(Icons) != 20 {
		t.Fatalf("expected 20 icons, got %d", len(Icons))
	}
	icon, err := ParseIcon(" Map-Pin ")
	if err != nil || icon != "map-pin" {
		t.Fatalf("ParseIcon() = %q, %v", icon, err)
	}
}
