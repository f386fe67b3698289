package controllers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aymenjlassi/darna-backend/internal/attachments"
	pkgerrors "github.com/aymenjlassi/darna-backend/pkg/errors"
)

// documentPayload is the inline upload shape shared by property, registration
// and application endpoints. Content arrives base64 encoded in the JSON body.
type documentPayload struct {
	Field       string `json:"field,omitempty"`
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

func decodeDocuments(payloads []documentPayload, allowedFields ...string) ([]attachments.Blob, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	blobs := make([]attachments.Blob, 0, len(payloads))
	for i, payload := range payloads {
		field := strings.TrimSpace(payload.Field)
		// Column-mapped documents must name their target; ordered image
		// lists pass no allowed fields and stay field-less.
		if len(allowedFields) > 0 {
			if field == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("documents[%d]: field is required", i))
			}
			if !contains(allowedFields, field) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("documents[%d]: unknown field %q", i, field))
			}
		}
		data, err := base64.StdEncoding.DecodeString(payload.Content)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
				fmt.Sprintf("documents[%d]: content must be base64", i))
		}
		if len(data) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("documents[%d]: content is empty", i))
		}
		blobs = append(blobs, attachments.Blob{
			Field:       field,
			Name:        strings.TrimSpace(payload.Name),
			ContentType: strings.TrimSpace(payload.ContentType),
			Data:        data,
		})
	}
	return blobs, nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
