package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/generic"
	"go.uber.org/zap"
)

// IdentifierSummary reports what an identifier import changed.
type IdentifierSummary struct {
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched"`
}

// IdentifierImporter updates tax (NIF) and social security (NISS) numbers
// from a ';'-separated CSV. The header names the key column: FuncionarioID
// (store id), NumeroFuncionario (F### number) or Nome (exact name).
type IdentifierImporter struct {
	store  attendance.Store
	logger *zap.Logger
}

func NewIdentifierImporter(store attendance.Store, logger *zap.Logger) *IdentifierImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentifierImporter{store: store, logger: logger}
}

var headerAliases = map[string]string{
	"funcionarioid":      "id",
	"id":                 "id",
	"numerofuncionario":  "number",
	"number":             "number",
	"nome":               "name",
	"nomecompleto":       "name",
	"name":               "name",
	"nif":                "nif",
	"tax_id":             "nif",
	"niss":               "niss",
	"social_security_id": "niss",
}

// Import applies every row. Blank or "nan" identifiers clear the field.
func (im *IdentifierImporter) Import(ctx context.Context, r io.Reader) (*IdentifierSummary, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &generic.ValidationError{Field: "header", Reason: "cannot read CSV header"}
	}
	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			cols[alias] = i
		}
	}
	keyCol := ""
	for _, k := range []string{"id", "number", "name"} {
		if _, ok := cols[k]; ok {
			keyCol = k
			break
		}
	}
	if keyCol == "" {
		return nil, &generic.ValidationError{Field: "header", Reason: "needs FuncionarioID, NumeroFuncionario or Nome"}
	}
	nifCol, hasNIF := cols["nif"]
	nissCol, hasNISS := cols["niss"]
	if !hasNIF && !hasNISS {
		return nil, &generic.ValidationError{Field: "header", Reason: "needs NIF or NISS"}
	}

	employees, err := im.store.Employees().Fetch(ctx, generic.Filter{})
	if err != nil {
		return nil, generic.WrapDataAccess("list employees", err)
	}
	index := make(map[string]attendance.Employee, len(employees))
	for _, e := range employees {
		switch keyCol {
		case "id":
			index[strconv.FormatInt(e.ID, 10)] = e
		case "number":
			index[e.Number] = e
		case "name":
			index[e.Name] = e
		}
	}

	summary := &IdentifierSummary{Unmatched: []string{}}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &generic.ValidationError{Field: "csv", Reason: err.Error()}
		}

		key := field(record, cols[keyCol])
		if key == "" {
			continue
		}
		emp, ok := index[key]
		if !ok {
			summary.Unmatched = append(summary.Unmatched, key)
			continue
		}
		if hasNIF {
			emp.TaxID = field(record, nifCol)
		}
		if hasNISS {
			emp.SocialSecurityID = field(record, nissCol)
		}
		if _, err := im.store.Employees().Update(ctx, emp.ID, emp); err != nil {
			return nil, err
		}
		index[key] = emp
		summary.Updated++
	}

	im.logger.Info("identifiers imported", zap.Int("updated", summary.Updated), zap.Int("unmatched", len(summary.Unmatched)))
	return summary, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	v := strings.TrimSpace(record[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
