package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/cablesim/internal/sim"
)

// FileStore keeps each run in its own directory as metadata.json plus
// traces.csv.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init(ctx context.Context) error {
	if s.baseDir == "" {
		return errors.New("file store path is required")
	}
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(ctx context.Context, meta RunMetadata, result *sim.Result) (string, error) {
	meta = prepare(meta)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "traces.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	traces := tracesOf(result)
	w := csv.NewWriter(csvFile)

	header := append([]string{"time"}, traces.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for i, t := range traces.Times {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, series := range traces.Values {
			row = append(row, strconv.FormatFloat(series[i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func (s *FileStore) List(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sortRuns(runs)
	return runs, nil
}

func (s *FileStore) Load(ctx context.Context, runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *FileStore) LoadTraces(ctx context.Context, runID string) (*Traces, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "traces.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Traces{}, nil
	}

	names := records[0][1:]
	traces := &Traces{
		Names:  names,
		Times:  make([]float64, 0, len(records)-1),
		Values: make([][]float64, len(names)),
	}
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		traces.Times = append(traces.Times, t)
		for j := range names {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, names[j], err)
			}
			traces.Values[j] = append(traces.Values[j], v)
		}
	}
	return traces, nil
}
