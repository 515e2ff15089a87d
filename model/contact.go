package model

import "fmt"

type ContactMessage struct {
	Name    string `form:"Name" json:"name" binding:"required"`
	Email   string `form:"Email" json:"email" binding:"required"`
	Message string `form:"Message" json:"message" binding:"required"`
}

// DeliveryStatus tells how much we know about the fate of a message
type DeliveryStatus string

const (
	// DeliveryConfirmed means the form backend acknowledged the message
	DeliveryConfirmed DeliveryStatus = "confirmed"
	// DeliveryUnconfirmed means the fallback request was sent but its outcome can't be observed
	DeliveryUnconfirmed DeliveryStatus = "unconfirmed"
	DeliveryFailed      DeliveryStatus = "failed"
)

// Delivered reports whether the visitor should be told the message was sent
func (s DeliveryStatus) Delivered() bool {
	return s == DeliveryConfirmed || s == DeliveryUnconfirmed
}

type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormError      FormState = "error"
)

// ContactForm follows idle -> submitting -> success|error -> idle
type ContactForm struct {
	Fields ContactMessage `json:"form"`
	State  FormState      `json:"state"`
	Status DeliveryStatus `json:"status,omitempty"`
}

func NewContactForm(fields ContactMessage) *ContactForm {
	return &ContactForm{Fields: fields, State: FormIdle}
}

// Begin marks the form as submitting, a form already submitting or showing a dialog is rejected
func (f *ContactForm) Begin() error {
	if f.State != FormIdle {
		return fmt.Errorf("%w: form is %s", ErrSubmissionInFlight, f.State)
	}

	f.State = FormSubmitting
	return nil
}

// Resolve applies the delivery outcome, fields are only cleared when the message went out
func (f *ContactForm) Resolve(status DeliveryStatus) {
	if f.State != FormSubmitting {
		return
	}

	f.Status = status

	if status.Delivered() {
		f.State = FormSuccess
		f.Fields = ContactMessage{}
		return
	}

	f.State = FormError
}

// Dismiss closes the success or error dialog
func (f *ContactForm) Dismiss() {
	if f.State == FormSuccess || f.State == FormError {
		f.State = FormIdle
		f.Status = ""
	}
}

// Dialog returns which dialog the page should display, empty when none
func (f *ContactForm) Dialog() string {
	switch f.State {
	case FormSuccess:
		return "success"
	case FormError:
		return "error"
	default:
		return ""
	}
}
