package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/scheme"
)

func TestErrorMatchesSentinelByCode(t *testing.T) {
	err := NewDossierNotFound("D9").AtMutation(2, Mutation{MutationID: "m3", Kind: KindAddPolicy})
	wrapped := fmt.Errorf("processing: %w", err)

	assert.True(t, errors.Is(wrapped, ErrDossierNotFound))
	assert.False(t, errors.Is(wrapped, ErrPolicyNotFound))
	assert.Equal(t, CodeDossierNotFound, CodeOf(wrapped))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, 2, e.Index)
	assert.Equal(t, "m3", e.MutationID)
	assert.Equal(t, `mutation 2 (add_policy m3): dossier_not_found: dossier "D9"`, e.Error())
}

func TestAtMutationDoesNotModifyOriginal(t *testing.T) {
	base := NewValidationError("salary must be >= 0")
	positioned := base.AtMutation(4, Mutation{MutationID: "m5", Kind: KindAddPolicy})

	assert.Equal(t, -1, base.Index)
	assert.Empty(t, base.MutationID)
	assert.Equal(t, 4, positioned.Index)
}

func TestErrorUnwrapKeepsCause(t *testing.T) {
	err := NewCanceled(context.Canceled)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, ErrCanceled))
}

func TestStateKeepsCreationOrderOnReplace(t *testing.T) {
	s := NewState()
	assert.False(t, s.PutDossier(&Dossier{DossierID: "A"}))
	assert.False(t, s.PutDossier(&Dossier{DossierID: "B"}))
	assert.True(t, s.PutDossier(&Dossier{DossierID: "A", Person: Person{Name: "replaced"}}))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "A", snap[0].DossierID)
	assert.Equal(t, "replaced", snap[0].Person.Name)
	assert.Equal(t, 2, s.DossierCount())
}

func TestSnapshotDoesNotAliasWorkingState(t *testing.T) {
	birth := civil.Date{Year: 1960, Month: 3, Day: 1}
	s := NewState()
	s.PutDossier(&Dossier{
		DossierID: "D1",
		Person:    Person{BirthDate: &birth},
		Policies: []Policy{{
			PolicyID:    "D1-1",
			Indexations: []IndexationAdjustment{{Factor: 1.02}},
		}},
	})

	snap := s.Snapshot()
	d, _ := s.Dossier("D1")
	d.Policies[0].AccruedValue = 999
	d.Policies[0].Indexations[0].Factor = 5
	d.Person.BirthDate.Year = 2000

	assert.Zero(t, snap[0].Policies[0].AccruedValue)
	assert.Equal(t, 1.02, snap[0].Policies[0].Indexations[0].Factor)
	assert.Equal(t, 1960, snap[0].Person.BirthDate.Year)
}

func TestRememberRuleSetFirstWins(t *testing.T) {
	s := NewState()
	first := &scheme.RuleSet{SchemeID: "NL-ABC", AccrualRate: 0.02}
	second := &scheme.RuleSet{SchemeID: "NL-ABC", AccrualRate: 0.05}

	assert.Same(t, first, s.RememberRuleSet(first))
	assert.Same(t, first, s.RememberRuleSet(second))

	got, ok := s.RuleSet("NL-ABC")
	require.True(t, ok)
	assert.Equal(t, 0.02, got.AccrualRate)
}
