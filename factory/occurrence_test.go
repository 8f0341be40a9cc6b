package factory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store/memory"
)

func TestParseOccurrenceTypes_Defaults(t *testing.T) {
	f := factory.NewOccurrenceFactory()
	types, err := f.ParseOccurrenceTypes([]byte(`[{"code": " he ", "default_hours": "1.5"}]`))
	require.NoError(t, err)
	require.Len(t, types, 1)

	ot := types[0]
	assert.Equal(t, "HE", ot.Code)
	assert.Equal(t, "HE", ot.Glyph)
	assert.Equal(t, "HE", ot.Description)
	assert.True(t, ot.DefaultHours.Equal(decimal.RequireFromString("1.5")))
}

func TestParseOccurrenceTypes_Rejects(t *testing.T) {
	f := factory.NewOccurrenceFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"code":`},
		{"missing code", `[{"description": "x"}]`},
		{"duplicate after normalization", `[{"code": "d"}, {"code": "D "}]`},
		{"negative hours", `[{"code": "D", "default_hours": -1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseOccurrenceTypes([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestDefaultOccurrenceTypes_Vocabulary(t *testing.T) {
	types := factory.NewOccurrenceFactory().DefaultOccurrenceTypes()

	codes := make([]string, len(types))
	for i, ot := range types {
		codes[i] = ot.Code
	}
	assert.Equal(t, []string{
		"D", "N", "DT", "NT", "T", "HE", "DTS", "NTS",
		"F", "L", "B", "FI", "FJ", "FOTS", "DDTS5", "NDTS5",
	}, codes)

	registry := attendance.NewRegistry(types, "")
	fots, ok := registry.LookupCode("FOTS")
	require.True(t, ok)
	assert.True(t, fots.IsCompensatoryLeave)
	day, ok := registry.LookupCode("D")
	require.True(t, ok)
	assert.True(t, day.DefaultHours.Equal(decimal.NewFromInt(12)))
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	f := factory.NewOccurrenceFactory()

	_, err := store.OccurrenceTypes().Insert(ctx, attendance.OccurrenceType{Code: "D", Glyph: "X", Description: "Custom day"})
	require.NoError(t, err)

	inserted, err := f.Seed(ctx, store.OccurrenceTypes(), f.DefaultOccurrenceTypes())
	require.NoError(t, err)
	assert.Equal(t, 15, inserted)

	inserted, err = f.Seed(ctx, store.OccurrenceTypes(), f.DefaultOccurrenceTypes())
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	all, err := store.OccurrenceTypes().Fetch(ctx, generic.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 16)

	registry := attendance.NewRegistry(all, "")
	d, _ := registry.LookupCode("D")
	assert.Equal(t, "X", d.Glyph, "existing codes are not overwritten")
}
