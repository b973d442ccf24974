// Package mutation implements one handler per mutation kind and the registry
// that dispatches to them.
package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"pensio/internal/calculation/models"
)

// Handler applies one mutation kind to working state. Every handler takes a
// context so the engine can dispatch uniformly; only the calculation kinds
// block on I/O.
type Handler interface {
	Kind() models.Kind
	Apply(ctx context.Context, state *models.State, m models.Mutation) (models.MutationResult, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodePayload unmarshals and validates a mutation payload.
func decodePayload[T any](m models.Mutation) (*T, error) {
	payload := bytes.TrimSpace(m.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, models.NewValidationError("payload is required")
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, models.NewValidationError("malformed payload: %v", err)
	}
	if err := validate.Struct(&out); err != nil {
		return nil, validationError(err)
	}
	return &out, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return models.NewValidationError("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt", "gte", "lt", "lte", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func result(m models.Mutation, dossierID string, policyIDs ...string) models.MutationResult {
	return models.MutationResult{
		MutationID: m.MutationID,
		Kind:       m.Kind,
		DossierID:  dossierID,
		PolicyIDs:  policyIDs,
	}
}

// lookupDossier fails with DossierNotFound when the dossier was not created
// earlier in the request.
func lookupDossier(state *models.State, dossierID string) (*models.Dossier, error) {
	d, ok := state.Dossier(dossierID)
	if !ok {
		return nil, models.NewDossierNotFound(dossierID)
	}
	return d, nil
}

// lookupPolicy resolves a policy reference within a dossier.
func lookupPolicy(d *models.Dossier, ref models.PolicyRef) (*models.Policy, error) {
	if ref.PolicyID != "" {
		p, ok := d.Policy(ref.PolicyID)
		if !ok {
			return nil, models.NewPolicyNotFound(d.DossierID, fmt.Sprintf("%q", ref.PolicyID))
		}
		return p, nil
	}
	if ref.PolicyIndex != nil {
		i := *ref.PolicyIndex
		if i < 0 || i >= len(d.Policies) {
			return nil, models.NewPolicyNotFound(d.DossierID, fmt.Sprintf("at index %d", i))
		}
		return &d.Policies[i], nil
	}
	return nil, models.NewValidationError("policy_id or policy_index is required")
}
