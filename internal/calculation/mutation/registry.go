package mutation

import (
	"pensio/internal/calculation/models"
	"pensio/internal/scheme"
)

// Registry maps each mutation kind to exactly one handler. It is built once
// at startup and read concurrently afterwards.
type Registry struct {
	handlers map[models.Kind]Handler
}

// NewRegistry fails with DuplicateHandlerKind if two handlers declare the same kind.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[models.Kind]Handler, len(handlers))}
	for _, h := range handlers {
		if _, dup := r.handlers[h.Kind()]; dup {
			return nil, models.NewDuplicateHandlerKind(h.Kind())
		}
		r.handlers[h.Kind()] = h
	}
	return r, nil
}

// Resolve fails with UnknownMutationKind if no handler declares kind.
func (r *Registry) Resolve(kind models.Kind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, models.NewUnknownMutationKind(kind)
	}
	return h, nil
}

// RequireKinds fails with UnknownMutationKind for the first kind that has no handler.
func (r *Registry) RequireKinds(kinds ...models.Kind) error {
	for _, kind := range kinds {
		if _, err := r.Resolve(kind); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Builtin returns one handler per built-in kind. The two calculation handlers
// share source.
func Builtin(source scheme.Source, overwriteDossiers bool) []Handler {
	return []Handler{
		NewCreateDossier(overwriteDossiers),
		NewAddPolicy(),
		NewApplyIndexation(),
		NewCalculateRetirementBenefit(source),
		NewProjectFutureBenefits(source),
	}
}
