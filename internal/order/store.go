package order

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terranet-ag/onboarding-service/internal/config"
	"github.com/terranet-ag/onboarding-service/internal/models/errs"
	"github.com/terranet-ag/onboarding-service/internal/models/field"
	"github.com/terranet-ag/onboarding-service/internal/models/grower"
	"github.com/terranet-ag/onboarding-service/internal/models/status"
	"github.com/terranet-ag/onboarding-service/pkg/logger"
)

// Summary is one row of the order list, derived from the client table
// rather than the snapshot.
type Summary struct {
	QuoteID         string        `json:"quote_id"`
	GrowerName      string        `json:"grower_name"`
	ProgramType     string        `json:"program_type"`
	FieldCount      int           `json:"field_count"`
	TotalAcres      float64       `json:"total_acres"`
	TotalAnnualCost float64       `json:"total_annual_cost"`
	CreatedAt       time.Time     `json:"created_at"`
	Status          status.Status `json:"status"`
}

// Detail is the full snapshot-derived view of one order.
type Detail struct {
	QuoteID     string            `json:"quote_id"`
	Grower      grower.Info       `json:"grower"`
	ProgramType string            `json:"program_type"`
	Fields      []field.Record    `json:"fields"`
	CreatedAt   time.Time         `json:"created_at"`
	Exports     map[string]string `json:"exports"`
	Status      status.Status     `json:"status"`
}

// Storage is the order persistence contract consumed by the HTTP layer.
type Storage interface {
	Create(ctx context.Context, snap *Snapshot) (string, error)
	List(ctx context.Context) ([]Summary, error)
	GetDetail(ctx context.Context, id string) (*Detail, error)
	Delete(ctx context.Context, id string) error
	GeneratePacket(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (status.Status, error)
	SetStatus(ctx context.Context, id string, st status.Status) error
	ExportPath(ctx context.Context, id, filename string) (string, error)
}

// Store owns the directory tree under the orders root. No other
// component writes into it.
type Store struct {
	layout  Layout
	slugLen int
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(cfg *config.Config, logger logger.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("nil dependency: config")
	}

	s := &Store{
		layout:  NewLayout(cfg.Orders.Root),
		slugLen: cfg.Orders.SlugLength,
		logger:  logger,
		now:     time.Now,
	}
	if s.slugLen <= 0 {
		s.slugLen = 12
	}

	if err := s.layout.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("create orders root: %w", err)
	}
	return s, nil
}

var _ Storage = (*Store)(nil)

// Create persists a checkout as a new order: snapshot, every export
// and an initial Quoted status. Everything is assembled in a staging
// directory and published with a single rename, so a half-written
// order is never visible under its final identifier.
func (s *Store) Create(_ context.Context, snap *Snapshot) (string, error) {
	if snap == nil || len(snap.Fields) == 0 {
		return "", fmt.Errorf("%w: at least one field is required", errs.ErrValidation)
	}

	if err := s.layout.EnsureRoot(); err != nil {
		return "", fmt.Errorf("%w: create orders root: %s", errs.ErrStorage, err)
	}

	id := s.newQuoteID(snap.Grower.Name)
	if _, err := os.Stat(s.layout.OrderDir(id)); err == nil {
		// Same grower slug within the same second. Never overwrite an
		// existing order; disambiguate with a random suffix instead.
		id += "_" + uuid.NewString()[:8]
	}

	stage := s.layout.StagingDir(id)
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", fmt.Errorf("%w: create staging dir: %s", errs.ErrStorage, err)
	}

	if err := s.materialize(stage, id, snap); err != nil {
		s.discardStaging(stage)
		return "", fmt.Errorf("%w: materialize order %q: %s", errs.ErrStorage, id, err)
	}

	if err := os.Rename(stage, s.layout.OrderDir(id)); err != nil {
		s.discardStaging(stage)
		return "", fmt.Errorf("%w: publish order %q: %s", errs.ErrStorage, id, err)
	}

	return id, nil
}

// materialize runs every export generator against dir. The status
// record is initialized only when absent, so re-materializing an
// existing order never resets a status set earlier.
func (s *Store) materialize(dir, id string, snap *Snapshot) error {
	if err := writeSnapshot(dir, snap); err != nil {
		return err
	}
	if err := writeClientCSV(dir, id, snap); err != nil {
		return err
	}
	if err := writeFieldsCSV(dir, id, snap); err != nil {
		return err
	}
	if err := writeGeoJSON(dir, snap); err != nil {
		return err
	}
	if err := writeSummary(dir, id, snap); err != nil {
		return err
	}
	if err := writePacket(dir); err != nil {
		return err
	}

	statusPath := filepath.Join(dir, statusFile)
	if _, err := os.Stat(statusPath); os.IsNotExist(err) {
		return os.WriteFile(statusPath, []byte(status.Quoted), 0o644)
	}
	return nil
}

func (s *Store) discardStaging(stage string) {
	if err := os.RemoveAll(stage); err != nil {
		s.logger.Errorf("discard staging dir %s: %s", stage, err)
	}
}

// newQuoteID derives a human-readable identifier from the grower name
// plus a creation-time suffix.
func (s *Store) newQuoteID(name string) string {
	slug := strings.Join(strings.Fields(name), "_")
	if slug == "" {
		slug = "grower"
	}
	if len(slug) > s.slugLen {
		slug = slug[:s.slugLen]
	}
	return fmt.Sprintf("q_%s_%d", slug, s.now().Unix())
}

// List derives one summary per order from its client table. Orders
// without a readable client table are treated as incomplete and
// skipped. Most recent first.
func (s *Store) List(_ context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.layout.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("%w: read orders root: %s", errs.ErrStorage, err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		summary, ok := s.readSummary(entry.Name())
		if !ok {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

func (s *Store) readSummary(id string) (Summary, bool) {
	row, ok := s.readClientRow(id)
	if !ok {
		return Summary{}, false
	}

	info, err := os.Stat(s.layout.OrderDir(id))
	if err != nil {
		return Summary{}, false
	}

	quoteID := row["quote_id"]
	if quoteID == "" {
		quoteID = id
	}

	fieldCount, _ := strconv.Atoi(row["field_count"])
	totalAcres, _ := strconv.ParseFloat(row["total_acres"], 64)
	totalCost, _ := strconv.ParseFloat(row["total_annual_cost"], 64)

	return Summary{
		QuoteID:         quoteID,
		GrowerName:      row["grower_name"],
		ProgramType:     row["program_type"],
		FieldCount:      fieldCount,
		TotalAcres:      totalAcres,
		TotalAnnualCost: totalCost,
		CreatedAt:       info.ModTime(),
		Status:          s.readStatus(id),
	}, true
}

// GetDetail returns the full snapshot-derived view of one order.
func (s *Store) GetDetail(_ context.Context, id string) (*Detail, error) {
	info, err := os.Stat(s.layout.OrderDir(id))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}

	snap, err := s.readSnapshot(id)
	if err != nil {
		return nil, err
	}

	return &Detail{
		QuoteID:     id,
		Grower:      snap.Grower,
		ProgramType: snap.ProgramType,
		Fields:      snap.Fields,
		CreatedAt:   info.ModTime(),
		Exports: map[string]string{
			"client_info_csv":    s.layout.ClientCSV(id),
			"fields_csv":         s.layout.FieldsCSV(id),
			"fields_geojson":     s.layout.CombinedGeoJSON(id),
			"fields_geojson_dir": s.layout.GeoJSONDir(id),
			"onboarding_zip":     s.layout.Packet(id),
		},
		Status: s.readStatus(id),
	}, nil
}

// Delete removes the entire order directory.
func (s *Store) Delete(_ context.Context, id string) error {
	if _, err := os.Stat(s.layout.OrderDir(id)); err != nil {
		return fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}
	if err := os.RemoveAll(s.layout.OrderDir(id)); err != nil {
		return fmt.Errorf("%w: delete order %q: %s", errs.ErrStorage, id, err)
	}
	return nil
}

// GeneratePacket rebuilds the summary document and the packet archive
// from the current snapshot. Idempotent; always overwrites.
func (s *Store) GeneratePacket(_ context.Context, id string) error {
	if _, err := os.Stat(s.layout.OrderDir(id)); err != nil {
		return fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}

	snap, err := s.readSnapshot(id)
	if err != nil {
		return err
	}

	dir := s.layout.OrderDir(id)
	if err = writeSummary(dir, id, snap); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrStorage, err)
	}
	if err = writePacket(dir); err != nil {
		return fmt.Errorf("%w: %s", errs.ErrStorage, err)
	}
	return nil
}

// Status returns the order's lifecycle tag, defaulting to Quoted when
// no record has been written yet.
func (s *Store) Status(_ context.Context, id string) (status.Status, error) {
	if _, err := os.Stat(s.layout.OrderDir(id)); err != nil {
		return "", fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}
	return s.readStatus(id), nil
}

// SetStatus overwrites the status record unconditionally. Any member
// of the allowed set is reachable from any other.
func (s *Store) SetStatus(_ context.Context, id string, st status.Status) error {
	if !st.Valid() {
		return fmt.Errorf("%w: status %q is not allowed", errs.ErrValidation, st)
	}
	if _, err := os.Stat(s.layout.OrderDir(id)); err != nil {
		return fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}
	if err := os.WriteFile(s.layout.StatusFile(id), []byte(st), 0o644); err != nil {
		return fmt.Errorf("%w: write status: %s", errs.ErrStorage, err)
	}
	return nil
}

// ExportPath resolves a downloadable export by name against the fixed
// allow-list and returns its location on disk.
func (s *Store) ExportPath(_ context.Context, id, filename string) (string, error) {
	if !downloadable[filename] {
		return "", fmt.Errorf("%w: export %q is not downloadable", errs.ErrValidation, filename)
	}
	if info, err := os.Stat(s.layout.OrderDir(id)); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: order %q", errs.ErrNotFound, id)
	}

	path := filepath.Join(s.layout.OrderDir(id), filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: order %q has no %s", errs.ErrNotFound, id, filename)
	}
	return path, nil
}

func (s *Store) readStatus(id string) status.Status {
	data, err := os.ReadFile(s.layout.StatusFile(id))
	if err != nil {
		return status.Quoted
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return status.Quoted
	}
	return status.Status(text)
}

func (s *Store) readClientRow(id string) (map[string]string, bool) {
	f, err := os.Open(s.layout.ClientCSV(id))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, false
	}
	row, err := r.Read()
	if err != nil || len(row) != len(header) {
		s.logger.Debugf("order %q: malformed client table, skipping", id)
		return nil, false
	}

	record := make(map[string]string, len(header))
	for i, name := range header {
		record[name] = row[i]
	}
	return record, true
}

func (s *Store) readSnapshot(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.layout.Snapshot(id))
	if err != nil {
		return nil, fmt.Errorf("%w: order %q has no readable %s", errs.ErrInconsistent, id, snapshotFile)
	}

	snap := new(Snapshot)
	if err = json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: order %q snapshot is corrupt: %s", errs.ErrInconsistent, id, err)
	}
	return snap, nil
}
