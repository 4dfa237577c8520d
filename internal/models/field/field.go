package field

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one field of a checkout payload. The front end sends
// loosely-typed objects, so the known attributes are coerced on
// unmarshalling (missing or malformed values degrade to zero values,
// never to an error) and anything unrecognized is preserved in Extra
// so the snapshot round-trips without losing data.
type Record struct {
	ID          string
	Name        string
	Acres       float64
	CropProgram string
	Notes       string
	// AnnualCost is nil when the payload carried no usable cost.
	AnnualCost *float64
	// Geometry is an opaque GeoJSON payload: either a complete
	// Feature or a raw geometry object. It is never parsed or
	// validated here.
	Geometry map[string]any
	// Extra holds unrecognized payload attributes verbatim.
	Extra map[string]any
}

// HasGeometry reports whether the record carries a geometry payload.
func (r *Record) HasGeometry() bool {
	return len(r.Geometry) > 0
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{}

	for key, value := range raw {
		switch key {
		case "id":
			r.ID = coerceString(value)
		case "name":
			r.Name = coerceString(value)
		case "acres":
			r.Acres, _ = coerceFloat(value)
		case "cropProgram":
			r.CropProgram = coerceString(value)
		case "notes":
			r.Notes = coerceString(value)
		case "annualCost":
			if cost, ok := coerceFloat(value); ok {
				r.AnnualCost = &cost
			}
		case "geometry":
			if geom, ok := value.(map[string]any); ok && len(geom) > 0 {
				r.Geometry = geom
			}
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]any)
			}
			r.Extra[key] = value
		}
	}

	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+7)
	for key, value := range r.Extra {
		out[key] = value
	}

	out["id"] = r.ID
	out["name"] = r.Name
	out["acres"] = r.Acres
	if r.CropProgram != "" {
		out["cropProgram"] = r.CropProgram
	}
	if r.Notes != "" {
		out["notes"] = r.Notes
	}
	if r.AnnualCost != nil {
		out["annualCost"] = *r.AnnualCost
	}
	if len(r.Geometry) > 0 {
		out["geometry"] = r.Geometry
	}

	return json.Marshal(out)
}

// coerceFloat accepts JSON numbers and numeric strings.
// Anything else reports false.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceString renders scalar JSON values as strings.
// Objects, arrays and null degrade to "".
func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
