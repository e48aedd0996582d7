package service

import (
	"net/url"
	"sync"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/validation"
	"github.com/google/uuid"
)

// =============================================================================
// FORM SESSION
// =============================================================================

// FormMode says whether a product form creates or edits.
type FormMode int

const (
	FormCreate FormMode = iota
	FormEdit
)

// FormState is the lifecycle of one product form:
//
//	Idle -> Submitting -> Success
//	                   -> Failed -> Submitting (retry)
type FormState int

const (
	FormIdle FormState = iota
	FormSubmitting
	FormSuccess
	FormFailed
)

func (s FormState) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormSubmitting:
		return "submitting"
	case FormSuccess:
		return "success"
	case FormFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FormTokenField is the hidden input carrying a form's token between renders.
const FormTokenField = "form_token"

// FormSession holds the state of one admin product form. It is owned by the
// request handling it; the token ties resubmissions of the same rendered form
// together so CatalogService can reject a concurrent double submit.
type FormSession struct {
	mu sync.Mutex

	Mode      FormMode
	ProductID uuid.UUID
	Token     string

	// Values are the raw form values, kept on failure so nothing is lost.
	Values url.Values
	// Errors maps field names to messages after a validation failure.
	Errors map[string]string
	// Message is the form-level failure message.
	Message string
	// Product is the saved product after success.
	Product *domain.Product

	state FormState
}

// NewCreateForm returns a blank form prefilled with product defaults.
func NewCreateForm() *FormSession {
	return &FormSession{
		Mode:   FormCreate,
		Token:  uuid.NewString(),
		Values: validation.ProductValues(domain.DefaultProductInput()),
	}
}

// NewEditForm returns a form prefilled from p.
func NewEditForm(p *domain.Product) *FormSession {
	return &FormSession{
		Mode:      FormEdit,
		ProductID: p.ID,
		Token:     uuid.NewString(),
		Values:    validation.ProductValues(p.Input()),
	}
}

// State returns the current lifecycle state.
func (f *FormSession) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin moves the form to Submitting with the posted values.
func (f *FormSession) Begin(values url.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FormSubmitting:
		return ErrFormBusy
	case FormSuccess:
		return ErrFormDone
	}

	f.state = FormSubmitting
	f.Values = values
	f.Errors = nil
	f.Message = ""
	return nil
}

// Succeed records the saved product.
func (f *FormSession) Succeed(p *domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = FormSuccess
	f.Product = p
	if p != nil {
		f.ProductID = p.ID
	}
}

// Fail records err. Field errors come from a ValidationError; the message is
// the user-facing text of any error.
func (f *FormSession) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = FormFailed
	f.Errors = domain.GetValidationFields(err)
	f.Message = domain.ErrorMessage(err)
}

// Value returns the current raw value of field.
func (f *FormSession) Value(field string) string {
	return f.Values.Get(field)
}

// Checked reports whether a checkbox field is on.
func (f *FormSession) Checked(field string) bool {
	return validation.Checkbox(f.Values, field)
}

// Error returns the message for field, or "".
func (f *FormSession) Error(field string) string {
	return f.Errors[field]
}

func (f *FormSession) IsEdit() bool {
	return f.Mode == FormEdit
}

// =============================================================================
// IN-FLIGHT TRACKING
// =============================================================================

// InFlight is a set of keys with an operation in progress. Per-row admin
// actions and upload fields acquire a key for the duration of the work so a
// second action on the same key is refused while others proceed.
type InFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{keys: make(map[string]struct{})}
}

// Acquire claims key. ok is false when the key is already held; otherwise
// release must be called when the work finishes.
func (f *InFlight) Acquire(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.keys[key]; busy {
		return nil, false
	}
	f.keys[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.keys, key)
			f.mu.Unlock()
		})
	}, true
}

// Busy reports whether key is currently held.
func (f *InFlight) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.keys[key]
	return busy
}
