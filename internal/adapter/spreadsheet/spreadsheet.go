// Package spreadsheet reads and writes catalog workbooks in xlsx format.
//
// Exported sheets carry one header row followed by one row per record.
// Imports match columns by header text, so column order and extra
// columns do not matter.
package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
	"github.com/niksmo/e-label/internal/core/port"
	"github.com/niksmo/e-label/internal/core/validate"
	"github.com/xuri/excelize/v2"
)

var _ port.SpreadsheetCodec = Codec{}

const (
	ProductsSheet    = "Products"
	IngredientsSheet = "Ingredients"

	dateLayout = "2006-01-02"

	// creator marks workbooks written by this codec. Their list cells hold
	// one item per line, so items may contain commas.
	creator = "e-label"
)

type cellKind int

const (
	textCell cellKind = iota
	numberCell
	listCell
	// exportOnly columns are written but never read back.
	exportOnly
)

type column[T any] struct {
	header string
	field  string
	width  float64
	kind   cellKind
	value  func(T) any
}

var productColumns = []column[domain.Product]{
	{"Product Name", validate.FieldName, 20, textCell,
		func(p domain.Product) any { return p.Name }},
	{"Brand", validate.FieldBrand, 15, textCell,
		func(p domain.Product) any { return p.Brand }},
	{"SKU", validate.FieldSKU, 15, textCell,
		func(p domain.Product) any { return p.SKU }},
	{"Net Volume", validate.FieldNetVolume, 12, textCell,
		func(p domain.Product) any { return deref(p.NetVolume) }},
	{"Vintage", validate.FieldVintage, 10, textCell,
		func(p domain.Product) any { return deref(p.Vintage) }},
	{"Type", validate.FieldType, 15, textCell,
		func(p domain.Product) any { return deref(p.Type) }},
	{"Sugar Content", validate.FieldSugarContent, 15, textCell,
		func(p domain.Product) any { return deref(p.SugarContent) }},
	{"Appellation", validate.FieldAppellation, 20, textCell,
		func(p domain.Product) any { return deref(p.Appellation) }},
	{"Alcohol Content (%)", validate.FieldAlcoholContent, 15, numberCell,
		func(p domain.Product) any {
			if !p.AlcoholContent.Valid {
				return ""
			}
			return p.AlcoholContent.Decimal.String()
		}},
	{"Description", validate.FieldDescription, 30, textCell,
		func(p domain.Product) any { return deref(p.Description) }},
	{"Producer Name", validate.FieldProducerName, 20, textCell,
		func(p domain.Product) any { return deref(p.ProducerName) }},
	{"Producer Address", validate.FieldProducerAddress, 30, textCell,
		func(p domain.Product) any { return deref(p.ProducerAddress) }},
	{"Country of Origin", validate.FieldCountry, 15, textCell,
		func(p domain.Product) any { return deref(p.Country) }},
	{"Created At", "", 12, exportOnly,
		func(p domain.Product) any { return p.CreatedAt.Format(dateLayout) }},
	{"Updated At", "", 12, exportOnly,
		func(p domain.Product) any { return p.UpdatedAt.Format(dateLayout) }},
}

var ingredientColumns = []column[domain.Ingredient]{
	{"Ingredient Name", validate.FieldName, 25, textCell,
		func(v domain.Ingredient) any { return v.Name }},
	{"Category", validate.FieldCategory, 15, textCell,
		func(v domain.Ingredient) any { return v.Category }},
	{"E Number", validate.FieldENumber, 12, textCell,
		func(v domain.Ingredient) any { return deref(v.ENumber) }},
	{"Description", validate.FieldDescription, 40, textCell,
		func(v domain.Ingredient) any { return deref(v.Description) }},
	{"Allergens", validate.FieldAllergens, 30, listCell,
		func(v domain.Ingredient) any {
			return strings.Join(v.Allergens, "\n")
		}},
	{"Created At", "", 12, exportOnly,
		func(v domain.Ingredient) any { return v.CreatedAt.Format(dateLayout) }},
	{"Updated At", "", 12, exportOnly,
		func(v domain.Ingredient) any { return v.UpdatedAt.Format(dateLayout) }},
}

// Codec implements the spreadsheet port with excelize.
type Codec struct{}

func New() Codec {
	return Codec{}
}

func (Codec) EncodeProducts(ps []domain.Product) ([]byte, error) {
	const op = "Codec.EncodeProducts"
	b, err := encode(ProductsSheet, productColumns, ps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (Codec) EncodeIngredients(vs []domain.Ingredient) ([]byte, error) {
	const op = "Codec.EncodeIngredients"
	b, err := encode(IngredientsSheet, ingredientColumns, vs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return b, nil
}

func (Codec) DecodeProductRows(blob []byte) ([]map[string]any, error) {
	const op = "Codec.DecodeProductRows"
	rows, err := decode(blob, productColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func (Codec) DecodeIngredientRows(blob []byte) ([]map[string]any, error) {
	const op = "Codec.DecodeIngredientRows"
	rows, err := decode(blob, ingredientColumns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func encode[T any](sheet string, cols []column[T], records []T) (b []byte, err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: creator,
		Title:   sheet,
	}); err != nil {
		return nil, err
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return nil, err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, r := range records {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c.value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode turns every non-blank data row of the first sheet into a raw
// payload keyed by API field names. Blank cells are left out, so the
// payload goes through the same validation as a JSON request.
func decode[T any](blob []byte, cols []column[T]) (rows []map[string]any, err error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidWorkbook, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", domain.ErrInvalidWorkbook)
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return []map[string]any{}, nil
	}

	ownWorkbook := false
	if props, err := f.GetDocProps(); err == nil && props != nil {
		ownWorkbook = props.Creator == creator
	}

	byHeader := make(map[string]column[T], len(cols))
	for _, c := range cols {
		if c.kind != exportOnly {
			byHeader[normalizeHeader(c.header)] = c
		}
	}

	index := make(map[int]column[T])
	for i, h := range cells[0] {
		if c, ok := byHeader[normalizeHeader(h)]; ok {
			index[i] = c
		}
	}

	rows = make([]map[string]any, 0, len(cells)-1)
	for _, line := range cells[1:] {
		row := make(map[string]any)
		for i, cell := range line {
			c, ok := index[i]
			if !ok {
				continue
			}
			if strings.TrimSpace(cell) == "" {
				continue
			}
			row[c.field] = parseCell(c.kind, cell, ownWorkbook)
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseCell keeps text cells verbatim. List cells are split on line
// breaks; hand-written sheets without line breaks fall back to commas.
func parseCell(kind cellKind, cell string, ownWorkbook bool) any {
	switch kind {
	case numberCell:
		return json.Number(strings.TrimSuffix(strings.TrimSpace(cell), "%"))
	case listCell:
		if ownWorkbook || strings.Contains(cell, "\n") {
			return splitList(cell, "\n", false)
		}
		return splitList(cell, ",", true)
	default:
		return cell
	}
}

func splitList(cell, sep string, trim bool) []any {
	var items []any
	for item := range strings.SplitSeq(cell, sep) {
		item = strings.TrimSuffix(item, "\r")
		if trim {
			item = strings.TrimSpace(item)
		}
		if strings.TrimSpace(item) != "" {
			items = append(items, item)
		}
	}
	return items
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// FileName returns the download name of an export made at t.
func FileName(sheet string, t time.Time) string {
	return fmt.Sprintf("%s_export_%s.xlsx", strings.ToLower(sheet), t.Format(dateLayout))
}
