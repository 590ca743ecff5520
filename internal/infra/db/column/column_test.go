package column_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/medreport-ai/internal/infra/db/column"
)

func TestJSONObject(t *testing.T) {
	assert.Equal(t, "{}", column.JSONObject("  "))
	assert.Equal(t, `{"a":1}`, column.JSONObject(`{"a":1}`))
	assert.JSONEq(t, `{"raw":"timeout"}`, column.JSONObject("timeout"))
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", column.OrDash(" "))
	assert.Equal(t, "acme", column.OrDash("acme"))
}
