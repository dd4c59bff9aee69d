// Package source decodes seed files into records for import.
package source

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/evanschultz/jobgrid/internal/app"
	"github.com/evanschultz/jobgrid/internal/domain"
)

// ErrUnsupportedFormat is returned for seed files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported seed format")

// envelope is the object form of a JSON or YAML seed.
type envelope struct {
	Records []domain.Record `json:"records" yaml:"records"`
}

// Load reads and decodes the seed file at path.
func Load(path string) (app.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return app.Seed{}, fmt.Errorf("reading %s: %w", path, err)
	}
	records, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return app.Seed{}, fmt.Errorf("%s: %w", path, err)
	}
	return app.Seed{Path: path, Digest: Digest(data), Records: records}, nil
}

// Digest returns the hex blake3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes seed bytes by file extension.
func Parse(ext string, data []byte) ([]domain.Record, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json", "jsonc":
		return parseJSON(data)
	case "yaml", "yml":
		return parseYAML(data)
	case "csv":
		return parseCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func parseJSON(data []byte) ([]domain.Record, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) > 0 && stripped[0] == '[' {
		var records []domain.Record
		if err := json.Unmarshal(stripped, &records); err != nil {
			return nil, fmt.Errorf("parsing seed: %w", err)
		}
		return normalize(records)
	}
	var env envelope
	if err := json.Unmarshal(stripped, &env); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return normalize(env.Records)
}

func parseYAML(data []byte) ([]domain.Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	var records []domain.Record
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("parsing seed: %w", err)
		}
	default:
		var env envelope
		if err := root.Decode(&env); err != nil {
			return nil, fmt.Errorf("parsing seed: %w", err)
		}
		records = env.Records
	}
	return normalize(records)
}

func parseCSV(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	fields := make([]domain.Field, len(header))
	for i, raw := range header {
		f, err := domain.ParseField(raw)
		if err != nil {
			return nil, fmt.Errorf("csv column %d %q: %w", i+1, raw, err)
		}
		fields[i] = f
	}

	var records []domain.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		var rec domain.Record
		for i, value := range row {
			if fields[i] == domain.FieldID {
				id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("csv line %d id %q: %w", line, value, domain.ErrInvalidID)
				}
				rec.ID = id
				continue
			}
			if rec, err = rec.WithField(fields[i], value); err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line, err)
			}
		}
		records = append(records, rec)
	}
	return normalize(records)
}

// normalize canonicalises status and priority spelling. Unknown values are rejected.
func normalize(records []domain.Record) ([]domain.Record, error) {
	for i := range records {
		if records[i].Status != "" {
			status, err := domain.ParseStatus(string(records[i].Status))
			if err != nil {
				return nil, fmt.Errorf("record %d status %q: %w", records[i].ID, records[i].Status, err)
			}
			records[i].Status = status
		}
		if records[i].Priority != "" {
			priority, err := domain.ParsePriority(string(records[i].Priority))
			if err != nil {
				return nil, fmt.Errorf("record %d priority %q: %w", records[i].ID, records[i].Priority, err)
			}
			records[i].Priority = priority
		}
	}
	return records, nil
}
