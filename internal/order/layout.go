package order

import (
	"os"
	"path/filepath"
)

// Canonical file roles of one order directory.
const (
	snapshotFile        = "checkout_start.json"
	clientCSVFile       = "client_info.csv"
	fieldsCSVFile       = "fields.csv"
	combinedGeoJSONFile = "fields.geojson"
	geoJSONDirName      = "fields_geojson"
	statusFile          = "status.txt"
	summaryFile         = "summary.txt"
	packetFile          = "onboarding_packet.zip"
)

// Prefix of directories holding not-yet-published order writes.
// List skips them; a leftover one marks an interrupted create.
const stagingPrefix = ".staging-"

// downloadable is the allow-list for the export download operation.
var downloadable = map[string]bool{
	clientCSVFile:       true,
	fieldsCSVFile:       true,
	combinedGeoJSONFile: true,
	packetFile:          true,
}

// Layout resolves every file of an order under a fixed orders root.
// All path construction lives here so the on-disk shape can change
// without touching the store or the generators.
type Layout struct {
	root string
}

func NewLayout(root string) Layout {
	return Layout{root: root}
}

func (l Layout) Root() string { return l.root }

// EnsureRoot creates the orders root. Safe to call when it exists.
func (l Layout) EnsureRoot() error {
	return os.MkdirAll(l.root, 0o755)
}

// OrderDir is the published directory of one order.
func (l Layout) OrderDir(id string) string {
	return filepath.Join(l.root, id)
}

// StagingDir is the temporary directory an order is assembled in
// before being published with a single rename.
func (l Layout) StagingDir(id string) string {
	return filepath.Join(l.root, stagingPrefix+id)
}

func (l Layout) Snapshot(id string) string {
	return filepath.Join(l.root, id, snapshotFile)
}

func (l Layout) ClientCSV(id string) string {
	return filepath.Join(l.root, id, clientCSVFile)
}

func (l Layout) FieldsCSV(id string) string {
	return filepath.Join(l.root, id, fieldsCSVFile)
}

func (l Layout) CombinedGeoJSON(id string) string {
	return filepath.Join(l.root, id, combinedGeoJSONFile)
}

func (l Layout) GeoJSONDir(id string) string {
	return filepath.Join(l.root, id, geoJSONDirName)
}

func (l Layout) StatusFile(id string) string {
	return filepath.Join(l.root, id, statusFile)
}

func (l Layout) Summary(id string) string {
	return filepath.Join(l.root, id, summaryFile)
}

func (l Layout) Packet(id string) string {
	return filepath.Join(l.root, id, packetFile)
}
