/*
Package factory provides JSON to Go occurrence type conversion.

PURPOSE:
  Converts a JSON occurrence vocabulary into attendance.OccurrenceType
  values and seeds a store with it. HR can change the code list without
  touching Go code.

JSON SCHEMA:
  [
    {
      "code": "D",
      "description": "Day shift",
      "default_hours": 12,
      "glyph": "D",
      "is_shift": true,
      "implies_overtime": false,
      "is_absence_type": false,
      "counts_toward_fots": false,
      "is_compensatory_leave": false
    }
  ]

DEFAULTS:
  - code is trimmed and upper-cased
  - glyph defaults to the code
  - description defaults to the code
  - default_hours defaults to 0

USAGE:
  f := factory.NewOccurrenceFactory()
  types, err := f.ParseOccurrenceTypes([]byte(factory.DefaultOccurrenceTypesJSON))

  // Insert only the codes the store does not have yet
  inserted, err := f.Seed(ctx, store.OccurrenceTypes(), types)

SEE ALSO:
  - attendance/registry.go: Registry built from the stored types
  - importer/schedule.go: Maps spreadsheet codes through the same vocabulary
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// OccurrenceTypeJSON is the JSON representation of an occurrence type.
type OccurrenceTypeJSON struct {
	Code                string           `json:"code"`
	Description         string           `json:"description,omitempty"`
	DefaultHours        *decimal.Decimal `json:"default_hours,omitempty"`
	Glyph               string           `json:"glyph,omitempty"`
	IsShift             bool             `json:"is_shift,omitempty"`
	ImpliesOvertime     bool             `json:"implies_overtime,omitempty"`
	IsAbsenceType       bool             `json:"is_absence_type,omitempty"`
	CountsTowardFOTS    bool             `json:"counts_toward_fots,omitempty"`
	IsCompensatoryLeave bool             `json:"is_compensatory_leave,omitempty"`
}

// DefaultOccurrenceTypesJSON is the stock vocabulary of a 12-hour shift
// roster.
const DefaultOccurrenceTypesJSON = `[
  {"code": "D",     "description": "Day shift",                   "default_hours": 12, "is_shift": true},
  {"code": "N",     "description": "Night shift",                 "default_hours": 12, "is_shift": true},
  {"code": "DT",    "description": "Extra day shift",             "default_hours": 12, "is_shift": true, "implies_overtime": true},
  {"code": "NT",    "description": "Extra night shift",           "default_hours": 12, "is_shift": true, "implies_overtime": true},
  {"code": "T",     "description": "Extra shift",                 "default_hours": 8,  "is_shift": true, "implies_overtime": true},
  {"code": "HE",    "description": "Overtime",                    "default_hours": 0,  "implies_overtime": true},
  {"code": "DTS",   "description": "Day shift on rest day",       "default_hours": 12, "is_shift": true, "counts_toward_fots": true},
  {"code": "NTS",   "description": "Night shift on rest day",     "default_hours": 12, "is_shift": true, "counts_toward_fots": true},
  {"code": "F",     "description": "Vacation",                    "default_hours": 0},
  {"code": "L",     "description": "Leave",                       "default_hours": 0},
  {"code": "B",     "description": "Sick leave",                  "default_hours": 0,  "is_absence_type": true},
  {"code": "FI",    "description": "Unjustified absence",         "default_hours": 0,  "is_absence_type": true},
  {"code": "FJ",    "description": "Justified absence",           "default_hours": 0,  "is_absence_type": true},
  {"code": "FOTS",  "description": "Compensatory day off",        "default_hours": 0,  "is_compensatory_leave": true},
  {"code": "DDTS5", "description": "Day compensatory rest (5h)",  "default_hours": 5,  "is_compensatory_leave": true},
  {"code": "NDTS5", "description": "Night compensatory rest (5h)", "default_hours": 5, "is_compensatory_leave": true}
]`

// =============================================================================
// OCCURRENCE FACTORY
// =============================================================================

// OccurrenceFactory converts JSON vocabularies to occurrence types.
type OccurrenceFactory struct{}

// NewOccurrenceFactory creates a new occurrence factory.
func NewOccurrenceFactory() *OccurrenceFactory {
	return &OccurrenceFactory{}
}

// ParseOccurrenceTypes parses a JSON array of occurrence types. Codes must
// be unique after normalization.
func (f *OccurrenceFactory) ParseOccurrenceTypes(data []byte) ([]attendance.OccurrenceType, error) {
	var raw []OccurrenceTypeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid occurrence type JSON: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	types := make([]attendance.OccurrenceType, 0, len(raw))
	for i, r := range raw {
		ot := f.fromJSON(r)
		if err := ot.Validate(); err != nil {
			return nil, fmt.Errorf("occurrence type %d: %w", i, err)
		}
		if seen[ot.Code] {
			return nil, fmt.Errorf("occurrence type %d: %w", i,
				&generic.ValidationError{Field: "code", Reason: "duplicate code " + ot.Code})
		}
		seen[ot.Code] = true
		types = append(types, ot)
	}
	return types, nil
}

// DefaultOccurrenceTypes returns the stock vocabulary.
func (f *OccurrenceFactory) DefaultOccurrenceTypes() []attendance.OccurrenceType {
	types, err := f.ParseOccurrenceTypes([]byte(DefaultOccurrenceTypesJSON))
	if err != nil {
		panic(fmt.Sprintf("factory: default vocabulary is invalid: %v", err))
	}
	return types
}

// Seed inserts every type whose code the repository does not hold yet and
// returns how many were inserted. Existing codes are left untouched.
func (f *OccurrenceFactory) Seed(ctx context.Context, repo generic.Repository[attendance.OccurrenceType], types []attendance.OccurrenceType) (int, error) {
	existing, err := repo.Fetch(ctx, generic.Filter{})
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, ot := range existing {
		have[ot.Code] = true
	}

	inserted := 0
	for _, ot := range types {
		if have[ot.Code] {
			continue
		}
		ot.ID = 0
		if _, err := repo.Insert(ctx, ot); err != nil {
			return inserted, fmt.Errorf("seed %s: %w", ot.Code, err)
		}
		have[ot.Code] = true
		inserted++
	}
	return inserted, nil
}

func (f *OccurrenceFactory) fromJSON(r OccurrenceTypeJSON) attendance.OccurrenceType {
	code := strings.ToUpper(strings.TrimSpace(r.Code))
	ot := attendance.OccurrenceType{
		Code:                code,
		Description:         strings.TrimSpace(r.Description),
		Glyph:               strings.TrimSpace(r.Glyph),
		DefaultHours:        decimal.Zero,
		IsShift:             r.IsShift,
		ImpliesOvertime:     r.ImpliesOvertime,
		IsAbsenceType:       r.IsAbsenceType,
		CountsTowardFOTS:    r.CountsTowardFOTS,
		IsCompensatoryLeave: r.IsCompensatoryLeave,
	}
	if ot.Glyph == "" {
		ot.Glyph = code
	}
	if ot.Description == "" {
		ot.Description = code
	}
	if r.DefaultHours != nil {
		ot.DefaultHours = *r.DefaultHours
	}
	return ot
}
