package domain

import (
	"slices"
	"time"
)

// IngredientCategories lists the categories offered to catalog editors.
// Stored values are not restricted to this list.
var IngredientCategories = []string{
	"Preservative",
	"Antioxidant",
	"Colorant",
	"Flavoring",
	"Stabilizer",
	"Emulsifier",
	"Acidifier",
	"Fining Agent",
	"Other",
}

type (
	IngredientFields struct {
		Name        string
		Category    string
		ENumber     *string
		Description *string
		Allergens   []string
	}

	Ingredient struct {
		ID string
		IngredientFields
		UserID    string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

type IngredientPatch struct {
	Name        Change[string]
	Category    Change[string]
	ENumber     Change[string]
	Description Change[string]
	Allergens   Change[[]string]
}

func (p IngredientPatch) Apply(f *IngredientFields) {
	p.Name.applyTo(&f.Name)
	p.Category.applyTo(&f.Category)
	p.ENumber.applyToPtr(&f.ENumber)
	p.Description.applyToPtr(&f.Description)

	if p.Allergens.Set {
		if p.Allergens.Value == nil {
			f.Allergens = nil
		} else {
			f.Allergens = slices.Clone(*p.Allergens.Value)
		}
	}
}

// Duplicate returns a copy of the fields with " (Copy)" appended to the
// name and "-COPY" appended to the E number, if there is one.
func (f IngredientFields) Duplicate() IngredientFields {
	d := f
	d.Name = f.Name + CopyNameSuffix
	if f.ENumber != nil {
		eNumber := *f.ENumber + CopyCodeSuffix
		d.ENumber = &eNumber
	}
	d.Allergens = slices.Clone(f.Allergens)
	return d
}

// Clone returns a deep copy, so callers can't alias store internals.
func (i Ingredient) Clone() Ingredient {
	i.Allergens = slices.Clone(i.Allergens)
	return i
}
