package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/handler"
	"github.com/dukerupert/bakehouse/internal/middleware"
	"github.com/dukerupert/bakehouse/internal/service"
	"github.com/dukerupert/bakehouse/internal/validation"
)

const contactSentPath = "/?contact=sent#contact"

// Intake accepts contact submissions.
type Intake interface {
	Submit(ctx context.Context, form validation.ContactForm) (service.ContactReceipt, error)
}

// ContactHandler handles POST /api/contact
type ContactHandler struct {
	intake Intake
}

// NewContactHandler creates a new contact handler
func NewContactHandler(intake Intake) *ContactHandler {
	return &ContactHandler{intake: intake}
}

type contactResponse struct {
	Success bool              `json:"success,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ServeHTTP reads a JSON or form body. Once validation passes the answer is
// success, whatever happened to storage and the notification. Plain form
// posts without JavaScript are redirected back to the page.
func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wantsJSON := handler.AcceptsJSON(r)

	form, err := decodeContact(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.WriteJSON(w, http.StatusRequestEntityTooLarge, contactResponse{Error: "Your message is too long"})
			return
		}
		handler.WriteJSON(w, http.StatusBadRequest, contactResponse{Error: "Invalid request body"})
		return
	}

	receipt, err := h.intake.Submit(r.Context(), form)
	if err != nil {
		if fields := domain.GetValidationFields(err); fields != nil {
			handler.WriteJSON(w, http.StatusBadRequest, contactResponse{
				Error:  validation.ContactSummary(fields),
				Fields: fields,
			})
			return
		}

		middleware.GetLogger(r.Context()).ErrorContext(r.Context(), "contact submission failed", "error", err)
		handler.WriteJSON(w, http.StatusInternalServerError, contactResponse{Error: "Something went wrong. Please try again."})
		return
	}

	middleware.GetLogger(r.Context()).InfoContext(r.Context(), "contact submission accepted",
		"persisted", receipt.Persisted,
		"notified", receipt.Notified,
		"notify_pending", receipt.NotifyPending,
	)

	if !wantsJSON {
		http.Redirect(w, r, contactSentPath, http.StatusSeeOther)
		return
	}
	handler.WriteJSON(w, http.StatusOK, contactResponse{Success: true})
}

func decodeContact(r *http.Request) (validation.ContactForm, error) {
	var form validation.ContactForm

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&form); err != nil {
			return form, err
		}
		return form, nil
	}

	if err := r.ParseForm(); err != nil {
		return form, err
	}
	return validation.ContactFormFromValues(r.PostForm), nil
}
