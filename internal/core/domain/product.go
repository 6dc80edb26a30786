package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// ProductFields are the writable attributes of a product.
	ProductFields struct {
		Name            string
		Brand           string
		SKU             string
		NetVolume       *string
		Vintage         *string
		Type            *string
		SugarContent    *string
		Appellation     *string
		AlcoholContent  decimal.NullDecimal
		Country         *string
		Description     *string
		ProducerName    *string
		ProducerAddress *string
	}

	Product struct {
		ID string
		ProductFields
		UserID    string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// ProductPatch is a partial product update. Unset changes leave the
// stored value untouched.
type ProductPatch struct {
	Name            Change[string]
	Brand           Change[string]
	SKU             Change[string]
	NetVolume       Change[string]
	Vintage         Change[string]
	Type            Change[string]
	SugarContent    Change[string]
	Appellation     Change[string]
	AlcoholContent  Change[decimal.Decimal]
	Country         Change[string]
	Description     Change[string]
	ProducerName    Change[string]
	ProducerAddress Change[string]
}

func (p ProductPatch) Apply(f *ProductFields) {
	p.Name.applyTo(&f.Name)
	p.Brand.applyTo(&f.Brand)
	p.SKU.applyTo(&f.SKU)
	p.NetVolume.applyToPtr(&f.NetVolume)
	p.Vintage.applyToPtr(&f.Vintage)
	p.Type.applyToPtr(&f.Type)
	p.SugarContent.applyToPtr(&f.SugarContent)
	p.Appellation.applyToPtr(&f.Appellation)
	p.Country.applyToPtr(&f.Country)
	p.Description.applyToPtr(&f.Description)
	p.ProducerName.applyToPtr(&f.ProducerName)
	p.ProducerAddress.applyToPtr(&f.ProducerAddress)

	if p.AlcoholContent.Set {
		if p.AlcoholContent.Value == nil {
			f.AlcoholContent = decimal.NullDecimal{}
		} else {
			f.AlcoholContent = decimal.NewNullDecimal(*p.AlcoholContent.Value)
		}
	}
}

// Duplicate returns a copy of the fields suitable for creating a new
// product: the name gets a " (Copy)" suffix and the SKU a "-COPY" suffix.
func (f ProductFields) Duplicate() ProductFields {
	d := f
	d.Name = f.Name + CopyNameSuffix
	d.SKU = f.SKU + CopyCodeSuffix
	return d
}
