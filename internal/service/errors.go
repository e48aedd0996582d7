package service

import (
	"github.com/dukerupert/bakehouse/internal/domain"
)

// Concurrency guards - use domain.ECONFLICT
var (
	ErrFormBusy   = domain.Conflict("", "This form is already being submitted")
	ErrFormDone   = domain.Conflict("", "This form has already been saved")
	ErrRowBusy    = domain.Conflict("", "This product is already being updated")
	ErrUploadBusy = domain.Conflict("", "An image is already uploading for this field")
)

// Image validation messages, reported on the "image" field.
const (
	msgImageRequired = "Please choose an image to upload"
	msgImageTooLarge = "Image must be 5 MB or smaller"
	msgImageType     = "Image must be a JPEG, PNG or WebP file"
)
