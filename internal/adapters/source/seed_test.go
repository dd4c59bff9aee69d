package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanschultz/jobgrid/internal/domain"
)

func writeSeed(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadJSONCArray(t *testing.T) {
	path := writeSeed(t, "seed.jsonc", `[
		// first row
		{"id": 1, "jobRequest": "Launch social media campaign", "status": "in-process", "priority": "medium"},
		{"id": 2, "jobRequest": "Update press kit", "status": "Need to start", "priority": "High", "estValue": "3,500,000"},
	]`)
	seed, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(seed.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(seed.Records))
	}
	if seed.Records[0].Status != domain.StatusInProcess || seed.Records[0].Priority != domain.PriorityMedium {
		t.Fatalf("expected canonical enums, got %#v", seed.Records[0])
	}
	if seed.Records[1].EstValue != "3,500,000" {
		t.Fatalf("unexpected est value %q", seed.Records[1].EstValue)
	}
	if len(seed.Digest) != 64 || seed.Path != path {
		t.Fatalf("unexpected seed metadata %q %q", seed.Digest, seed.Path)
	}
}

func TestParseJSONEnvelope(t *testing.T) {
	records, err := Parse(".json", []byte(`{"records": [{"id": 7, "assigned": "Tom Wright"}]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != 7 || records[0].Assigned != "Tom Wright" {
		t.Fatalf("unexpected records %#v", records)
	}
}

func TestParseYAML(t *testing.T) {
	list := []byte("- id: 3\n  jobRequest: Finalize user testing\n  status: Complete\n")
	records, err := Parse(".yaml", list)
	if err != nil {
		t.Fatalf("Parse(list) error = %v", err)
	}
	if len(records) != 1 || records[0].JobRequest != "Finalize user testing" || records[0].Status != domain.StatusComplete {
		t.Fatalf("unexpected records %#v", records)
	}

	env := []byte("records:\n  - id: 4\n    priority: low\n")
	records, err = Parse(".yml", env)
	if err != nil {
		t.Fatalf("Parse(envelope) error = %v", err)
	}
	if len(records) != 1 || records[0].Priority != domain.PriorityLow {
		t.Fatalf("unexpected records %#v", records)
	}
}

func TestParseCSV(t *testing.T) {
	body := "id,jobRequest,status,dueDate\n1,\"Design new features, v2\",blocked,15-01-2025\n2,Review,Complete,\n"
	records, err := Parse(".csv", []byte(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].JobRequest != "Design new features, v2" || records[0].Status != domain.StatusBlocked || records[0].DueDate != "15-01-2025" {
		t.Fatalf("unexpected first record %#v", records[0])
	}

	if _, err := Parse(".csv", []byte("id,colour\n1,red\n")); !errors.Is(err, domain.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if _, err := Parse(".csv", []byte("id\nabc\n")); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	if _, err := Parse(".toml", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Parse(".json", []byte(`[{"id": 1, "status": "Shipped"}]`)); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := Parse(".json", []byte(`{not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDigestStable(t *testing.T) {
	a := Digest([]byte("seed"))
	if a != Digest([]byte("seed")) || a == Digest([]byte("seed2")) {
		t.Fatal("expected digest to depend only on content")
	}
}
