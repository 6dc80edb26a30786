package validate

import "github.com/niksmo/e-label/internal/core/domain"

// Ingredient payload keys. Name and description share the product keys.
const (
	FieldCategory  = "category"
	FieldENumber   = "eNumber"
	FieldAllergens = "allergens"
)

var ingredientFields = []field{
	{name: FieldName, required: true},
	{name: FieldCategory, required: true},
	{name: FieldENumber},
	{name: FieldDescription},
	{name: FieldAllergens},
}

func IngredientCreate(raw map[string]any) (domain.IngredientFields, error) {
	patch, err := readIngredient(raw, false)
	if err != nil {
		return domain.IngredientFields{}, err
	}
	var f domain.IngredientFields
	patch.Apply(&f)
	return f, nil
}

func Ingredient(f domain.IngredientFields) error {
	errs := new(domain.ValidationError)
	requireText(errs, FieldName, f.Name)
	requireText(errs, FieldCategory, f.Category)
	return errs.Err()
}

func IngredientUpdate(raw map[string]any) (domain.IngredientPatch, error) {
	return readIngredient(raw, true)
}

func readIngredient(
	raw map[string]any, partial bool,
) (domain.IngredientPatch, error) {
	p := newPayload(raw, ingredientFields, partial)

	patch := domain.IngredientPatch{
		Name:        p.requiredString(FieldName),
		Category:    p.requiredString(FieldCategory),
		ENumber:     p.optionalString(FieldENumber),
		Description: p.optionalString(FieldDescription),
		Allergens:   p.optionalStringList(FieldAllergens),
	}

	if err := p.err(); err != nil {
		return domain.IngredientPatch{}, err
	}
	return patch, nil
}
