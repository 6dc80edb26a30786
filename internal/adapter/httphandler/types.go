package httphandler

import (
	"encoding/json"
	"time"

	"github.com/niksmo/e-label/internal/core/domain"
)

type (
	successResponse struct {
		Success bool   `json:"success"`
		Data    any    `json:"data,omitempty"`
		Count   *int   `json:"count,omitempty"`
		Message string `json:"message,omitempty"`
	}

	errorResponse struct {
		Error   string `json:"error"`
		Details any    `json:"details,omitempty"`
	}
)

type (
	Product struct {
		ID              string       `json:"id"`
		Name            string       `json:"name"`
		Brand           string       `json:"brand"`
		SKU             string       `json:"sku"`
		NetVolume       *string      `json:"netVolume"`
		Vintage         *string      `json:"vintage"`
		Type            *string      `json:"type"`
		SugarContent    *string      `json:"sugarContent"`
		Appellation     *string      `json:"appellation"`
		AlcoholContent  *json.Number `json:"alcoholContent"`
		Country         *string      `json:"country"`
		Description     *string      `json:"description"`
		ProducerName    *string      `json:"producerName"`
		ProducerAddress *string      `json:"producerAddress"`
		UserID          string       `json:"userId,omitempty"`
		CreatedAt       time.Time    `json:"createdAt"`
		UpdatedAt       time.Time    `json:"updatedAt"`
	}

	Ingredient struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Category    string    `json:"category"`
		ENumber     *string   `json:"eNumber"`
		Description *string   `json:"description"`
		Allergens   []string  `json:"allergens"`
		UserID      string    `json:"userId,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Label struct {
		Product
		LabelURL string `json:"labelUrl"`
		QRURL    string `json:"qrUrl"`
	}

	FieldError struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	}

	ImportOutcome struct {
		Row    int          `json:"row"`
		ID     string       `json:"id,omitempty"`
		Errors []FieldError `json:"errors,omitempty"`
	}

	ImportReport struct {
		Imported int             `json:"imported"`
		Failed   int             `json:"failed"`
		Rows     []ImportOutcome `json:"rows"`
	}
)

type (
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	Session struct {
		AccessToken string    `json:"accessToken"`
		TokenType   string    `json:"tokenType"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}

	AuthResult struct {
		User    User    `json:"user"`
		Session Session `json:"session"`
	}
)

func productFromDomain(p domain.Product) Product {
	v := Product{
		ID:              p.ID,
		Name:            p.Name,
		Brand:           p.Brand,
		SKU:             p.SKU,
		NetVolume:       p.NetVolume,
		Vintage:         p.Vintage,
		Type:            p.Type,
		SugarContent:    p.SugarContent,
		Appellation:     p.Appellation,
		Country:         p.Country,
		Description:     p.Description,
		ProducerName:    p.ProducerName,
		ProducerAddress: p.ProducerAddress,
		UserID:          p.UserID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.AlcoholContent.Valid {
		n := json.Number(p.AlcoholContent.Decimal.String())
		v.AlcoholContent = &n
	}
	return v
}

func productsFromDomain(ps []domain.Product) []Product {
	vs := make([]Product, len(ps))
	for i, p := range ps {
		vs[i] = productFromDomain(p)
	}
	return vs
}

func ingredientFromDomain(i domain.Ingredient) Ingredient {
	allergens := i.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	return Ingredient{
		ID:          i.ID,
		Name:        i.Name,
		Category:    i.Category,
		ENumber:     i.ENumber,
		Description: i.Description,
		Allergens:   allergens,
		UserID:      i.UserID,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func ingredientsFromDomain(is []domain.Ingredient) []Ingredient {
	vs := make([]Ingredient, len(is))
	for i, v := range is {
		vs[i] = ingredientFromDomain(v)
	}
	return vs
}

func fieldErrorsFromDomain(fs []domain.FieldError) []FieldError {
	if len(fs) == 0 {
		return nil
	}
	vs := make([]FieldError, len(fs))
	for i, f := range fs {
		vs[i] = FieldError{Field: f.Field, Reason: f.Reason}
	}
	return vs
}

func importReportFromDomain(r domain.ImportReport) ImportReport {
	rows := make([]ImportOutcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		rows[i] = ImportOutcome{
			Row:    o.Row,
			ID:     o.ID,
			Errors: fieldErrorsFromDomain(o.Errors),
		}
	}
	return ImportReport{Imported: r.Imported, Failed: r.Failed, Rows: rows}
}

func userFromPrincipal(p domain.Principal) User {
	return User{ID: p.UserID, Email: p.Email, Name: p.Name}
}
