package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const textColumn = "comment_text"

// Sources holds the locations of the three CSV files. A location is either an
// http(s) URL, a file:// URL or a plain filesystem path.
type Sources struct {
	Train      string
	Test       string
	TestLabels string
}

// Loader fetches and parses the datasets.
type Loader struct {
	sources    Sources
	labels     []string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLoader creates a Loader for the given label columns.
func NewLoader(sources Sources, labels []string, logger *zap.Logger) *Loader {
	return &Loader{
		sources: sources,
		labels:  labels,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

// WithHTTPClient replaces the HTTP client used for remote sources.
func (l *Loader) WithHTTPClient(c *http.Client) *Loader {
	l.httpClient = c
	return l
}

// Load reads all three files. Every -1 in the test labels becomes 1.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	l.logger.Info("Loading datasets",
		zap.String("train", l.sources.Train),
		zap.String("test", l.sources.Test),
		zap.String("test_labels", l.sources.TestLabels),
	)

	train, err := l.readTable(ctx, l.sources.Train)
	if err != nil {
		return nil, fmt.Errorf("train set: %w", err)
	}
	test, err := l.readTable(ctx, l.sources.Test)
	if err != nil {
		return nil, fmt.Errorf("test set: %w", err)
	}
	testLabels, err := l.readTable(ctx, l.sources.TestLabels)
	if err != nil {
		return nil, fmt.Errorf("test labels: %w", err)
	}

	ds := &Dataset{Labels: l.labels}

	if ds.TrainText, err = train.column(textColumn); err != nil {
		return nil, fmt.Errorf("train set: %w", err)
	}
	if ds.TrainLabels, err = train.indicators(l.labels, false); err != nil {
		return nil, fmt.Errorf("train set: %w", err)
	}
	if ds.TestText, err = test.column(textColumn); err != nil {
		return nil, fmt.Errorf("test set: %w", err)
	}
	if ds.TestLabels, err = testLabels.indicators(l.labels, true); err != nil {
		return nil, fmt.Errorf("test labels: %w", err)
	}
	if len(ds.TestText) != len(ds.TestLabels) {
		return nil, fmt.Errorf("test set has %d rows but test labels have %d", len(ds.TestText), len(ds.TestLabels))
	}

	l.logger.Info("Datasets loaded",
		zap.Int("train_rows", len(ds.TrainText)),
		zap.Int("test_rows", len(ds.TestText)),
	)
	return ds, nil
}

func (l *Loader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := l.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", location, err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: unexpected status %d", location, resp.StatusCode)
		}
		return resp.Body, nil
	default:
		f, err := os.Open(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", location, err)
		}
		return f, nil
	}
}

func (l *Loader) readTable(ctx context.Context, location string) (*table, error) {
	rc, err := l.open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return readTable(rc)
}

// table is a parsed CSV with a header row.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{header: make(map[string]int, len(head))}
	for i, h := range head {
		t.header[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.rows)+1, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *table) index(name string) (int, error) {
	i, ok := t.header[name]
	if !ok {
		return 0, fmt.Errorf("missing column %q", name)
	}
	return i, nil
}

func (t *table) column(name string) ([]string, error) {
	i, err := t.index(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out, nil
}

// indicators reads the label columns as 0/1. With sentinel set, -1 maps to 1.
func (t *table) indicators(labels []string, sentinel bool) ([][]int, error) {
	idx := make([]int, len(labels))
	for j, l := range labels {
		i, err := t.index(l)
		if err != nil {
			return nil, err
		}
		idx[j] = i
	}

	out := make([][]int, len(t.rows))
	for r, row := range t.rows {
		vec := make([]int, len(labels))
		for j, i := range idx {
			if i >= len(row) {
				return nil, fmt.Errorf("row %d: missing %q", r+1, labels[j])
			}
			v, err := strconv.Atoi(strings.TrimSpace(row[i]))
			if err != nil {
				return nil, fmt.Errorf("row %d: %q: %w", r+1, labels[j], err)
			}
			switch {
			case v == -1 && sentinel:
				v = 1
			case v != 0 && v != 1:
				return nil, fmt.Errorf("row %d: %q has value %d", r+1, labels[j], v)
			}
			vec[j] = v
		}
		out[r] = vec
	}
	return out, nil
}
