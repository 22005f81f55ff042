package faultinject_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/faultinject"
)

func TestInjector_FailNextIsCounted(t *testing.T) {
	inj := faultinject.New()
	inj.FailNext(faultinject.OpQuery, 2, nil)

	first := inj.Check(faultinject.OpQuery)
	second := inj.Check(faultinject.OpQuery)
	third := inj.Check(faultinject.OpQuery)

	assert.True(t, apperr.IsService(first))
	assert.ErrorIs(t, first, faultinject.ErrInjected)
	assert.Error(t, second)
	assert.NoError(t, third)
	assert.Equal(t, 3, inj.Calls(faultinject.OpQuery))
}

func TestInjector_OtherOpsUnaffected(t *testing.T) {
	inj := faultinject.New()
	inj.FailAlways(faultinject.OpUpsert, nil)

	assert.NoError(t, inj.Check(faultinject.OpFind))
	assert.Error(t, inj.Check(faultinject.OpUpsert))
	assert.Error(t, inj.Check(faultinject.OpUpsert))

	inj.Clear(faultinject.OpUpsert)
	assert.NoError(t, inj.Check(faultinject.OpUpsert))
}

func TestInjector_FailAfterCustomError(t *testing.T) {
	boom := errors.New("connection refused")
	inj := faultinject.New()
	inj.FailAfter(faultinject.OpSubmit, 1, boom)

	assert.NoError(t, inj.Check(faultinject.OpSubmit))
	err := inj.Check(faultinject.OpSubmit)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "service", apperr.Kind(err))
}
