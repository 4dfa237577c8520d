package order

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/terranet-ag/onboarding-service/internal/models/field"
)

// Export generators. Each one reads the snapshot and writes exactly
// one artifact category into the given order directory. They are
// independent and order-insensitive; all of them tolerate sparse
// fields (missing values render as empty or zero, never as an error).

// writeSnapshot persists the canonical order record.
func writeSnapshot(dir string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, snapshotFile), data, 0o644)
}

// writeClientCSV emits a one-row table aggregating grower identity and
// plan totals.
func writeClientCSV(dir, id string, snap *Snapshot) error {
	totalAcres, totalCost := snap.Totals()
	g := snap.Grower

	records := [][]string{
		{
			"quote_id", "grower_name", "grower_email", "farm_name", "phone",
			"notes", "address1", "address2", "city", "state", "postal_code",
			"country", "program_type", "field_count", "total_acres",
			"total_annual_cost",
		},
		{
			id, g.Name, g.Email, g.FarmName, g.Phone,
			g.Notes, g.Address1, g.Address2, g.City, g.State, g.PostalCode,
			g.Country, snap.ProgramType, strconv.Itoa(len(snap.Fields)),
			totalAcres.StringFixed(2), totalCost.StringFixed(2),
		},
	}
	return writeCSV(filepath.Join(dir, clientCSVFile), records)
}

// writeFieldsCSV emits one row per field, denormalized with the
// order's program type and grower name for readability.
func writeFieldsCSV(dir, id string, snap *Snapshot) error {
	records := [][]string{{
		"quote_id", "field_id", "name", "acres", "crop_program",
		"notes", "annual_cost", "program_type", "grower_name",
	}}

	for _, fld := range snap.Fields {
		cost := ""
		if fld.AnnualCost != nil {
			cost = formatFloat(*fld.AnnualCost)
		}
		records = append(records, []string{
			id, fld.ID, fld.Name, formatFloat(fld.Acres), fld.CropProgram,
			fld.Notes, cost, snap.ProgramType, snap.Grower.Name,
		})
	}

	return writeCSV(filepath.Join(dir, fieldsCSVFile), records)
}

func writeCSV(path string, records [][]string) error {
	var buf bytes.Buffer
	if err := csv.NewWriter(&buf).WriteAll(records); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeGeoJSON emits one FeatureCollection per field with geometry
// under fields_geojson/, plus one combined collection. Fields without
// geometry are skipped; with no geometry at all, nothing is written.
func writeGeoJSON(dir string, snap *Snapshot) error {
	features := make([]map[string]any, 0, len(snap.Fields))

	for _, fld := range snap.Fields {
		if !fld.HasGeometry() {
			continue
		}

		feature := normalizeFeature(fld)

		if len(features) == 0 {
			if err := os.MkdirAll(filepath.Join(dir, geoJSONDirName), 0o755); err != nil {
				return fmt.Errorf("create geometry dir: %w", err)
			}
		}
		features = append(features, feature)

		name := fld.ID
		if name == "" {
			name = "field"
		}
		path := filepath.Join(dir, geoJSONDirName, name+".geojson")
		if err := writeFeatureCollection(path, []map[string]any{feature}); err != nil {
			return err
		}
	}

	if len(features) == 0 {
		return nil
	}

	return writeFeatureCollection(filepath.Join(dir, combinedGeoJSONFile), features)
}

// normalizeFeature turns an opaque geometry payload into a Feature and
// merges the field attributes into its properties, overwriting any
// same-named existing ones. The snapshot's own maps are never mutated.
func normalizeFeature(fld field.Record) map[string]any {
	var feature map[string]any

	if kind, _ := fld.Geometry["type"].(string); kind == "Feature" {
		feature = make(map[string]any, len(fld.Geometry))
		for k, v := range fld.Geometry {
			feature[k] = v
		}
	} else {
		feature = map[string]any{
			"type":       "Feature",
			"properties": map[string]any{},
			"geometry":   fld.Geometry,
		}
	}

	props := make(map[string]any)
	if existing, ok := feature["properties"].(map[string]any); ok {
		for k, v := range existing {
			props[k] = v
		}
	}
	props["field_id"] = fld.ID
	props["name"] = fld.Name
	props["acres"] = fld.Acres
	props["crop_program"] = fld.CropProgram
	feature["properties"] = props

	return feature
}

func writeFeatureCollection(path string, features []map[string]any) error {
	doc := map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeSummary emits the human-readable packet cover sheet.
func writeSummary(dir, id string, snap *Snapshot) error {
	totalAcres, totalCost := snap.Totals()
	g := snap.Grower

	lines := []string{
		"Quote ID: " + id,
		fmt.Sprintf("Grower: %s (%s)", g.Name, g.Email),
		"Farm: " + g.FarmName,
		"Program: " + snap.ProgramType,
		"Fields: " + strconv.Itoa(len(snap.Fields)),
		"Total Acres: " + totalAcres.StringFixed(2),
		"Total Annual Cost: " + totalCost.StringFixed(2),
		"",
		"Notes:",
		g.Notes,
		"",
		"Included files:",
		"- " + snapshotFile,
		"- " + clientCSVFile,
		"- " + fieldsCSVFile,
		"- " + combinedGeoJSONFile,
		"- " + geoJSONDirName + "/*.geojson",
		"- " + summaryFile,
	}

	var out []byte
	for i, line := range lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, line...)
	}
	return os.WriteFile(filepath.Join(dir, summaryFile), out, 0o644)
}

// writePacket bundles every present export into a deflate-compressed
// ZIP. The previous packet is deleted first so stale entries never
// accumulate.
func writePacket(dir string) error {
	zipPath := filepath.Join(dir, packetFile)
	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale packet: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	core := []string{snapshotFile, clientCSVFile, fieldsCSVFile, combinedGeoJSONFile, summaryFile}
	for _, name := range core {
		if err := addPacketMember(zw, filepath.Join(dir, name), name); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, geoJSONDirName))
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			src := filepath.Join(dir, geoJSONDirName, entry.Name())
			if err = addPacketMember(zw, src, geoJSONDirName+"/"+entry.Name()); err != nil {
				return err
			}
		}
	}

	if err = zw.Close(); err != nil {
		return fmt.Errorf("finalize packet: %w", err)
	}
	if err = os.WriteFile(zipPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	return nil
}

// addPacketMember copies one file into the archive, silently skipping
// absent ones (not every order has every export).
func addPacketMember(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open packet member %s: %w", name, err)
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add packet member %s: %w", name, err)
	}
	if _, err = io.Copy(w, f); err != nil {
		return fmt.Errorf("copy packet member %s: %w", name, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
