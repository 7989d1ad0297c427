package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.ErrCodeInternal, "unexpected failure"},
		{"invalid structure", errors.ErrCodeInvalidStructure, "unclosed ring 1"},
		{"model not loaded", errors.ErrCodeModelNotLoaded, "checkpoint missing"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNew_EmptyMessageUsesDefault(t *testing.T) {
	ae := errors.New(errors.ErrCodeModelNotLoaded, "")
	assert.Equal(t, "Model not loaded", ae.Message)
}

func TestWrap_NilCauseReturnsNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrCodeInternal, "x"))
}

func TestWrap_ChainTraversal(t *testing.T) {
	root := stderrors.New("disk gone")
	wrapped := errors.Wrap(root, errors.ErrCodeArtifactInvalid, "read model")
	outer := fmt.Errorf("startup: %w", wrapped)

	assert.True(t, stderrors.Is(outer, root))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeArtifactInvalid))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeModelNotLoaded))
	assert.Equal(t, errors.ErrCodeArtifactInvalid, errors.GetCode(outer))
	assert.Contains(t, outer.Error(), "disk gone")
}

func TestIs_MatchesSentinelByCode(t *testing.T) {
	err := errors.New(errors.ErrCodeModelNotLoaded, "engine not ready")
	assert.True(t, stderrors.Is(err, errors.ErrModelNotLoaded))
	assert.False(t, stderrors.Is(err, errors.ErrInvalidStructure))
}

func TestGetCode_PlainError(t *testing.T) {
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(stderrors.New("plain")))
}

func TestWithDetail_DoesNotMutate(t *testing.T) {
	base := errors.New(errors.ErrCodeValidation, "bad body")
	d := base.WithDetail("smiles is required")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "smiles is required", d.Detail)
	assert.Equal(t, "[COMMON_001] bad body: smiles is required", d.Error())

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestDimensionMismatch(t *testing.T) {
	err := errors.DimensionMismatch("feature scaler", 2048, 10)
	assert.True(t, stderrors.Is(err, errors.ErrDimensionMismatch))
	assert.Contains(t, err.Error(), "expected width 2048, got 10")
}

//Personal.AI order the ending
