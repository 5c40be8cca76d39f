package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/pkg/validate"
)

func TestStruct(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validate.Struct(domain.LoginInput{Email: "a@inst.example", Password: "x"}))
	})

	t.Run("Fields Keyed By JSON Name", func(t *testing.T) {
		err := validate.Struct(domain.CreateUserInput{Email: "nope", Password: "short", FullName: "A", Role: "boss"})

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "must be a valid email address", verr.Fields["email"])
		assert.Equal(t, "must be at least 8 characters", verr.Fields["password"])
		assert.Equal(t, "must be at least 2 characters", verr.Fields["full_name"])
		assert.Equal(t, "must be one of: admin operator analyst viewer", verr.Fields["role"])
	})

	t.Run("Required", func(t *testing.T) {
		err := validate.Struct(domain.LoginInput{})

		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "is required", verr.Fields["email"])
		assert.Equal(t, "is required", verr.Fields["password"])
	})
}
