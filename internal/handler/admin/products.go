package admin

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/service"
	"github.com/google/uuid"
)

const (
	productsPath = "/admin/products"

	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temp files.
	multipartMemory = 8 << 20
)

// Catalog is the admin product workflow.
type Catalog interface {
	List(ctx context.Context) ([]service.AdminRow, error)
	EditForm(ctx context.Context, id uuid.UUID) (*service.FormSession, error)
	Submit(ctx context.Context, form *service.FormSession, values url.Values) (*domain.Product, error)
	Toggle(ctx context.Context, id uuid.UUID, field domain.ToggleField) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Images stores product photos.
type Images interface {
	Upload(ctx context.Context, u service.ImageUpload) (*service.StoredImage, error)
	AttachToProduct(ctx context.Context, id uuid.UUID, u service.ImageUpload) (*domain.Product, error)
	RemoveFromProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// ProductHandler handles all product-related admin routes
type ProductHandler struct {
	catalog  Catalog
	images   Images
	renderer *handler.Renderer
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog Catalog, images Images, renderer *handler.Renderer) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		images:   images,
		renderer: renderer,
	}
}

// productJSON is the admin API view of a product.
type productJSON struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PriceCents      int64     `json:"price_cents"`
	BatchSize       int32     `json:"batch_size"`
	HasPecanOption  bool      `json:"has_pecan_option"`
	AvailableFrozen bool      `json:"available_frozen"`
	AvailableBaked  bool      `json:"available_baked"`
	IsFeatured      bool      `json:"is_featured"`
	IsActive        bool      `json:"is_active"`
	ImageURL        *string   `json:"image_url"`
	SortOrder       int32     `json:"sort_order"`
}

func toJSON(p *domain.Product) productJSON {
	return productJSON{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		BatchSize:       p.BatchSize,
		HasPecanOption:  p.HasPecanOption,
		AvailableFrozen: p.AvailableFrozen,
		AvailableBaked:  p.AvailableBaked,
		IsFeatured:      p.IsFeatured,
		IsActive:        p.IsActive,
		ImageURL:        p.ImageURL,
		SortOrder:       p.SortOrder,
	}
}

// List handles GET /admin/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.List(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	data := handler.PageData(r, "Products")
	data["Products"] = rows

	h.renderer.RenderHTTP(w, "admin/products", data)
}

// New handles GET /admin/products/new
func (h *ProductHandler) New(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, service.NewCreateForm(), http.StatusOK)
}

// Create handles POST /admin/products/new
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, service.NewCreateForm())
}

// Edit handles GET /admin/products/{id}/edit
func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	form, err := h.catalog.EditForm(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.renderForm(w, r, form, http.StatusOK)
}

// Update handles POST /admin/products/{id}/edit
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	form, err := h.catalog.EditForm(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.submit(w, r, form)
}

// submit runs one create or edit form post. A file in the image field is
// uploaded first and its URL replaces image_url; a failed upload fails the
// form without saving anything.
func (h *ProductHandler) submit(w http.ResponseWriter, r *http.Request, form *service.FormSession) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		handler.ErrorResponse(w, r, domain.Invalid("product.form", "Invalid form data"))
		return
	}
	values := cloneValues(r.PostForm)

	if upload, closeFile, ok := formImage(r); ok {
		defer closeFile()

		token := values.Get(service.FormTokenField)
		if token != "" {
			upload.Key = token + ":" + service.ImageField
		}

		stored, err := h.images.Upload(ctx, upload)
		if err != nil {
			form.Values = values
			form.Fail(err)
			h.formError(w, r, form, err)
			return
		}
		values.Set("image_url", stored.URL)
	}

	p, err := h.catalog.Submit(ctx, form, values)
	if err != nil {
		if errors.Is(err, service.ErrFormDone) && !handler.AcceptsJSON(r) {
			http.Redirect(w, r, productsPath, http.StatusSeeOther)
			return
		}
		h.formError(w, r, form, err)
		return
	}

	if handler.AcceptsJSON(r) {
		status := http.StatusOK
		if !form.IsEdit() {
			status = http.StatusCreated
		}
		handler.WriteJSON(w, status, toJSON(p))
		return
	}

	http.Redirect(w, r, productsPath+"?flash=saved", http.StatusSeeOther)
}

// formError re-renders the form with its values and messages. JSON clients
// get the error envelope instead.
func (h *ProductHandler) formError(w http.ResponseWriter, r *http.Request, form *service.FormSession, err error) {
	if handler.AcceptsJSON(r) {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	status := handler.ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	if domain.IsValidationError(err) {
		status = http.StatusUnprocessableEntity
	}
	if status >= http.StatusInternalServerError {
		middleware.GetLogger(r.Context()).ErrorContext(r.Context(), "product form failed", "error", err)
	}
	h.renderForm(w, r, form, status)
}

func (h *ProductHandler) renderForm(w http.ResponseWriter, r *http.Request, form *service.FormSession, status int) {
	title := "Add New Product"
	if form.IsEdit() {
		title = "Edit Product"
	}

	data := handler.PageData(r, title)
	data["Form"] = form

	h.renderer.RenderStatus(w, "admin/product_form", status, data)
}

// Toggle handles POST /admin/products/{id}/toggle/{field}
func (h *ProductHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	field := domain.ToggleField(r.PathValue("field"))

	value, err := h.catalog.Toggle(r.Context(), id, field)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"id":    id,
			"field": field,
			"value": value,
		})
		return
	}

	http.Redirect(w, r, productsPath+"?flash=updated", http.StatusSeeOther)
}

// Delete handles DELETE /admin/products/{id} and POST /admin/products/{id}/delete
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"id":      id,
			"deleted": true,
		})
		return
	}

	http.Redirect(w, r, productsPath+"?flash=deleted", http.StatusSeeOther)
}

// AttachImage handles POST /admin/products/{id}/image
func (h *ProductHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("product.image", "Invalid form data"))
		return
	}

	upload, closeFile, ok := formImage(r)
	if !ok {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("product.image", service.ImageField, "Choose an image to upload"))
		return
	}
	defer closeFile()
	upload.Key = "product:" + id.String() + ":" + service.ImageField

	p, err := h.images.AttachToProduct(r.Context(), id, upload)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, toJSON(p))
		return
	}

	http.Redirect(w, r, productsPath+"/"+id.String()+"/edit", http.StatusSeeOther)
}

// RemoveImage handles POST /admin/products/{id}/image/remove
func (h *ProductHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.images.RemoveFromProduct(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, toJSON(p))
		return
	}

	http.Redirect(w, r, productsPath+"/"+id.String()+"/edit", http.StatusSeeOther)
}

// UploadImage handles POST /admin/images. The image is stored but not
// attached to anything; the form posts the returned URL as image_url.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("image.upload", "Invalid form data"))
		return
	}

	upload, closeFile, ok := formImage(r)
	if !ok {
		handler.ValidationErrorResponse(w, r, domain.NewValidationError("image.upload", service.ImageField, "Choose an image to upload"))
		return
	}
	defer closeFile()
	if token := r.FormValue(service.FormTokenField); token != "" {
		upload.Key = token + ":" + service.ImageField
	}

	stored, err := h.images.Upload(r.Context(), upload)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, map[string]string{
		"url":  stored.URL,
		"path": stored.Path,
	})
}

// productID parses the {id} path value. An unparseable id cannot name a
// product, so it is answered as not found.
func productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.ErrProductNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// formImage returns the upload in the image field of a parsed multipart
// form. ok is false when no file was chosen.
func formImage(r *http.Request) (service.ImageUpload, func(), bool) {
	if r.MultipartForm == nil {
		return service.ImageUpload{}, nil, false
	}

	file, header, err := r.FormFile(service.ImageField)
	if err != nil || header.Filename == "" {
		return service.ImageUpload{}, nil, false
	}
	if header.Size == 0 {
		file.Close()
		return service.ImageUpload{}, nil, false
	}

	return service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, closer(file), true
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
