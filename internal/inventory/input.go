package inventory

import (
	"math"
	"strings"

	"stockroom/internal/core"
	"stockroom/internal/validation"
)

// ItemInput is the full set of writable item fields, used for create and replace.
type ItemInput struct {
	ProductName string      `json:"product_name" validate:"required,max=255"`
	SKU         string      `json:"sku" validate:"required,max=100"`
	Quantity    *int        `json:"quantity"`
	Price       *core.Money `json:"price"`
	Category    string      `json:"category" validate:"required,max=100"`
	ImageURL    string      `json:"image_url" validate:"omitempty,max=200,http_url"`
}

// ItemPatch carries the fields of a partial update; nil fields are left unchanged.
type ItemPatch struct {
	ProductName *string     `json:"product_name"`
	SKU         *string     `json:"sku"`
	Quantity    *int        `json:"quantity"`
	Price       *core.Money `json:"price"`
	Category    *string     `json:"category"`
	ImageURL    *string     `json:"image_url"`
}

func inputFromItem(item *core.Item) ItemInput {
	quantity := item.Quantity
	price := item.Price
	return ItemInput{
		ProductName: item.ProductName,
		SKU:         item.SKU,
		Quantity:    &quantity,
		Price:       &price,
		Category:    item.Category,
		ImageURL:    item.ImageURL,
	}
}

func (p ItemPatch) applyTo(in ItemInput) ItemInput {
	if p.ProductName != nil {
		in.ProductName = *p.ProductName
	}
	if p.SKU != nil {
		in.SKU = *p.SKU
	}
	if p.Quantity != nil {
		in.Quantity = p.Quantity
	}
	if p.Price != nil {
		in.Price = p.Price
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.ImageURL != nil {
		in.ImageURL = *p.ImageURL
	}
	return in
}

func (in ItemInput) normalized() ItemInput {
	in.ProductName = strings.TrimSpace(in.ProductName)
	in.SKU = strings.TrimSpace(in.SKU)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

// validate checks in and returns a 400 APIError listing every invalid field.
func (in ItemInput) validate(v *validation.Validator) error {
	fields := validation.Fields(v.Validate(in))
	if fields == nil {
		fields = make(map[string]string)
	}

	switch {
	case in.Quantity == nil:
		fields["quantity"] = "This field is required."
	case *in.Quantity < 0:
		fields["quantity"] = "Ensure this value is greater than or equal to 0."
	case *in.Quantity > math.MaxInt32:
		fields["quantity"] = "Ensure this value is less than or equal to 2147483647."
	}

	switch {
	case in.Price == nil:
		fields["price"] = "This field is required."
	case in.Price.IsNegative():
		fields["price"] = "Ensure this value is greater than or equal to 0."
	case !in.Price.Equal(in.Price.Round(core.PriceScale)):
		fields["price"] = "Ensure that there are no more than 2 decimal places."
	case !in.Price.FitsColumn():
		fields["price"] = "Ensure that there are no more than 10 digits in total."
	}

	if len(fields) > 0 {
		return core.NewValidationError(fields)
	}
	return nil
}

func (in ItemInput) toItem(id int64) *core.Item {
	return &core.Item{
		ID:          id,
		ProductName: in.ProductName,
		SKU:         in.SKU,
		Quantity:    *in.Quantity,
		Price:       core.Money{Decimal: in.Price.Round(core.PriceScale)},
		Category:    in.Category,
		ImageURL:    in.ImageURL,
	}
}
