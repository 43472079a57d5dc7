package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["name", "months"],
  "properties": {
    "name":   {"type": "string", "minLength": 1, "maxLength": 10},
    "months": {"type": "integer", "minimum": 1, "maximum": 60},
    "status": {"type": "string", "enum": ["active", "paused"]}
  }
}`

func TestSchemaValidate(t *testing.T) {
	schema := MustCompile("test", testSchema)

	tests := []struct {
		name        string
		doc         string
		valid       bool
		errorFields []string
	}{
		{name: "valid", doc: `{"name":"shop","months":12}`, valid: true},
		{name: "missing required", doc: `{"months":12}`, valid: false, errorFields: []string{"name"}},
		{name: "out of range", doc: `{"name":"shop","months":61}`, valid: false, errorFields: []string{"months"}},
		{name: "bad enum", doc: `{"name":"shop","months":3,"status":"gone"}`, valid: false, errorFields: []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := schema.Validate([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			for _, f := range tt.errorFields {
				assert.True(t, res.HasErrors(f), "expected error on %s, got %v", f, res.GetErrorMessages())
			}
		})
	}
}

func TestSchemaValidateMalformedDocument(t *testing.T) {
	schema := MustCompile("test", testSchema)
	_, err := schema.Validate([]byte(`{"name":`))
	assert.Error(t, err)
}

func TestCompileRejectsBadSchema(t *testing.T) {
	_, err := Compile("bad", `{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("owner@example.co.jp"))
	assert.False(t, ValidateEmail("owner@"))
	assert.False(t, ValidateEmail(""))
}
