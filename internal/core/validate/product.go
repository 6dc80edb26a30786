package validate

import "github.com/niksmo/e-label/internal/core/domain"

// Product payload keys.
const (
	FieldName            = "name"
	FieldBrand           = "brand"
	FieldSKU             = "sku"
	FieldNetVolume       = "netVolume"
	FieldVintage         = "vintage"
	FieldType            = "type"
	FieldSugarContent    = "sugarContent"
	FieldAppellation     = "appellation"
	FieldAlcoholContent  = "alcoholContent"
	FieldCountry         = "country"
	FieldDescription     = "description"
	FieldProducerName    = "producerName"
	FieldProducerAddress = "producerAddress"
)

var productFields = []field{
	{name: FieldName, required: true},
	{name: FieldBrand, required: true},
	{name: FieldSKU, required: true},
	{name: FieldNetVolume},
	{name: FieldVintage},
	{name: FieldType},
	{name: FieldSugarContent},
	{name: FieldAppellation},
	{name: FieldAlcoholContent},
	{name: FieldCountry},
	{name: FieldDescription},
	{name: FieldProducerName},
	{name: FieldProducerAddress},
}

// ProductCreate validates a full product payload.
func ProductCreate(raw map[string]any) (domain.ProductFields, error) {
	patch, err := readProduct(raw, false)
	if err != nil {
		return domain.ProductFields{}, err
	}
	var f domain.ProductFields
	patch.Apply(&f)
	return f, nil
}

// Product checks typed fields built outside a request payload, such as
// a duplicated record, against the same required fields.
func Product(f domain.ProductFields) error {
	errs := new(domain.ValidationError)
	requireText(errs, FieldName, f.Name)
	requireText(errs, FieldBrand, f.Brand)
	requireText(errs, FieldSKU, f.SKU)
	return errs.Err()
}

// ProductUpdate validates a partial product payload. An empty payload
// is valid and yields an empty patch.
func ProductUpdate(raw map[string]any) (domain.ProductPatch, error) {
	return readProduct(raw, true)
}

func readProduct(raw map[string]any, partial bool) (domain.ProductPatch, error) {
	p := newPayload(raw, productFields, partial)

	patch := domain.ProductPatch{
		Name:            p.requiredString(FieldName),
		Brand:           p.requiredString(FieldBrand),
		SKU:             p.requiredString(FieldSKU),
		NetVolume:       p.optionalString(FieldNetVolume),
		Vintage:         p.optionalString(FieldVintage),
		Type:            p.optionalString(FieldType),
		SugarContent:    p.optionalString(FieldSugarContent),
		Appellation:     p.optionalString(FieldAppellation),
		AlcoholContent:  p.optionalNumber(FieldAlcoholContent),
		Country:         p.optionalString(FieldCountry),
		Description:     p.optionalString(FieldDescription),
		ProducerName:    p.optionalString(FieldProducerName),
		ProducerAddress: p.optionalString(FieldProducerAddress),
	}

	if err := p.err(); err != nil {
		return domain.ProductPatch{}, err
	}
	return patch, nil
}
