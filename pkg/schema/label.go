package schema

import "github.com/hamba/avro/v2"

const productFieldsV1 = `
		{"name": "product_id", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "brand", "type": "string"},
		{"name": "sku", "type": "string"},
		{"name": "net_volume", "type": ["null", "string"], "default": null},
		{"name": "vintage", "type": ["null", "string"], "default": null},
		{"name": "type", "type": ["null", "string"], "default": null},
		{"name": "sugar_content", "type": ["null", "string"], "default": null},
		{"name": "appellation", "type": ["null", "string"], "default": null},
		{"name": "alcohol_content", "type": ["null", "string"], "default": null},
		{"name": "country", "type": ["null", "string"], "default": null},
		{"name": "description", "type": ["null", "string"], "default": null},
		{"name": "producer_name", "type": ["null", "string"], "default": null},
		{"name": "producer_address", "type": ["null", "string"], "default": null},
		{"name": "user_id", "type": "string"},
		{"name": "created_at", "type": "long"},
		{"name": "updated_at", "type": "long"}`

// ProductSchemaTextV1 describes a product as it is printed on a label.
// Decimal alcohol content travels as its string form; timestamps are unix
// milliseconds.
const ProductSchemaTextV1 = `{
	"type": "record",
	"namespace": "elabel",
	"name": "product",
	"fields": [` + productFieldsV1 + `
	]
}`

type ProductV1 struct {
	ProductID       string  `avro:"product_id"`
	Name            string  `avro:"name"`
	Brand           string  `avro:"brand"`
	SKU             string  `avro:"sku"`
	NetVolume       *string `avro:"net_volume"`
	Vintage         *string `avro:"vintage"`
	Type            *string `avro:"type"`
	SugarContent    *string `avro:"sugar_content"`
	Appellation     *string `avro:"appellation"`
	AlcoholContent  *string `avro:"alcohol_content"`
	Country         *string `avro:"country"`
	Description     *string `avro:"description"`
	ProducerName    *string `avro:"producer_name"`
	ProducerAddress *string `avro:"producer_address"`
	UserID          string  `avro:"user_id"`
	CreatedAt       int64   `avro:"created_at"`
	UpdatedAt       int64   `avro:"updated_at"`
}

func ProductV1Avro() avro.Schema {
	return avro.MustParse(ProductSchemaTextV1)
}
