package validators

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Body string `validate:"notblank,max=10"`
}

func TestValidateNotBlank(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&note{Body: " hi "}))

	for _, body := range []string{"", "   ", "\n\t", "far too long body"} {
		err := v.Validate(&note{Body: body})
		require.Error(t, err, "body %q", body)

		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusBadRequest, he.Code)
	}
}
