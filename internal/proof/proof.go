package proof

import (
	"strings"
	"time"

	"marketplace/internal/api"
)

type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindText     Kind = "text"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindImage, KindDocument, KindVideo, KindText:
		return Kind(s), true
	}
	return "", false
}

type Proof struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"bookingId"`
	UploaderID  string    `json:"uploaderId"`
	Kind        Kind      `json:"kind"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Kind        string `json:"kind"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Validate collects every violation. Text proofs carry their evidence in the
// description; every other kind points at an uploaded artifact.
func (r *CreateRequest) Validate() ([]api.FieldError, Kind) {
	var fields []api.FieldError

	kind, ok := ParseKind(r.Kind)
	if !ok {
		fields = append(fields, api.FieldError{Field: "kind", Message: "must be one of: image, document, video, text"})
	}

	if ok && kind == KindText {
		if strings.TrimSpace(r.Description) == "" {
			fields = append(fields, api.FieldError{Field: "description", Message: "is required for text proofs"})
		}
	} else if ok {
		if strings.TrimSpace(r.URL) == "" {
			fields = append(fields, api.FieldError{Field: "url", Message: "is required"})
		}
	}

	return fields, kind
}
