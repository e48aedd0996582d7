package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
)

// Product form field names.
const (
	FieldName            = "name"
	FieldDescription     = "description"
	FieldPrice           = "price"
	FieldBatchSize       = "batch_size"
	FieldHasPecanOption  = "has_pecan_option"
	FieldAvailableFrozen = "available_frozen"
	FieldAvailableBaked  = "available_baked"
	FieldIsFeatured      = "is_featured"
	FieldIsActive        = "is_active"
	FieldImageURL        = "image_url"
	FieldSortOrder       = "sort_order"
)

const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
)

var productLabels = map[string]string{
	FieldName:        "Name",
	FieldDescription: "Description",
	FieldPrice:       "Price",
	FieldBatchSize:   "Batch size",
	FieldSortOrder:   "Sort order",
	FieldImageURL:    "Image URL",
}

type productFields struct {
	Name        string `form:"name" validate:"required,max=200"`
	Description string `form:"description" validate:"max=2000"`
	BatchSize   int    `form:"batch_size" validate:"gte=1,lte=10000"`
	SortOrder   int    `form:"sort_order" validate:"gte=-100000,lte=100000"`
	ImageURL    string `form:"image_url" validate:"omitempty,max=2048,http_url|site_path"`
}

// ParseProduct validates the admin product form. It never coerces a bad
// numeric value to a default: non-numeric price, batch size or sort order are
// all reported as field errors. A blank sort order means 0.
func ParseProduct(values url.Values) (domain.ProductInput, error) {
	ve := &domain.ValidationError{Op: "product.validate"}

	fields := productFields{
		Name:        strings.TrimSpace(values.Get(FieldName)),
		Description: strings.TrimSpace(values.Get(FieldDescription)),
		ImageURL:    strings.TrimSpace(values.Get(FieldImageURL)),
	}

	priceCents, err := ParsePrice(values.Get(FieldPrice))
	if err != nil {
		ve.Add(FieldPrice, domain.ErrorMessage(err))
	}

	batch, batchOK := parseInt(values, FieldBatchSize, true)
	fields.BatchSize = batch

	sortOrder, sortOK := parseInt(values, FieldSortOrder, false)
	fields.SortOrder = sortOrder

	check(ve, fields, productLabels)

	// A range message about an unparsed number would be misleading.
	if !batchOK {
		delete(ve.Fields, FieldBatchSize)
		ve.Add(FieldBatchSize, wholeNumberMessage(values, FieldBatchSize))
	}
	if !sortOK {
		delete(ve.Fields, FieldSortOrder)
		ve.Add(FieldSortOrder, wholeNumberMessage(values, FieldSortOrder))
	}

	if !ve.Empty() {
		return domain.ProductInput{}, ve
	}

	in := domain.ProductInput{
		Name:            fields.Name,
		Description:     fields.Description,
		PriceCents:      priceCents,
		BatchSize:       int32(fields.BatchSize),
		HasPecanOption:  Checkbox(values, FieldHasPecanOption),
		AvailableFrozen: Checkbox(values, FieldAvailableFrozen),
		AvailableBaked:  Checkbox(values, FieldAvailableBaked),
		IsFeatured:      Checkbox(values, FieldIsFeatured),
		IsActive:        Checkbox(values, FieldIsActive),
		SortOrder:       int32(fields.SortOrder),
	}
	if fields.ImageURL != "" {
		u := fields.ImageURL
		in.ImageURL = &u
	}

	return in, nil
}

// parseInt reads an integer form field. ok is false only when a value was
// present but not a whole number, or when a required value was blank.
func parseInt(values url.Values, field string, required bool) (n int, ok bool) {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		if required {
			return 0, false
		}
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func wholeNumberMessage(values url.Values, field string) string {
	if strings.TrimSpace(values.Get(field)) == "" {
		return productLabels[field] + " is required"
	}
	return productLabels[field] + " must be a whole number"
}

// Checkbox interprets an HTML checkbox: absent is false.
func Checkbox(values url.Values, field string) bool {
	switch strings.ToLower(strings.TrimSpace(values.Get(field))) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// ProductValues renders in as form values, the inverse of ParseProduct.
func ProductValues(in domain.ProductInput) url.Values {
	v := url.Values{}
	v.Set(FieldName, in.Name)
	v.Set(FieldDescription, in.Description)
	v.Set(FieldPrice, FormatPrice(in.PriceCents))
	v.Set(FieldBatchSize, strconv.Itoa(int(in.BatchSize)))
	v.Set(FieldSortOrder, strconv.Itoa(int(in.SortOrder)))
	if in.ImageURL != nil {
		v.Set(FieldImageURL, *in.ImageURL)
	}
	setCheckbox(v, FieldHasPecanOption, in.HasPecanOption)
	setCheckbox(v, FieldAvailableFrozen, in.AvailableFrozen)
	setCheckbox(v, FieldAvailableBaked, in.AvailableBaked)
	setCheckbox(v, FieldIsFeatured, in.IsFeatured)
	setCheckbox(v, FieldIsActive, in.IsActive)
	return v
}

func setCheckbox(v url.Values, field string, on bool) {
	if on {
		v.Set(field, "on")
	}
}
