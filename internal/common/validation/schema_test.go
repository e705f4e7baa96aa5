package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var pairSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"applicantId": map[string]interface{}{"type": []interface{}{"string", "integer"}, "minLength": 1},
		"productId":   map[string]interface{}{"type": []interface{}{"string", "integer"}, "minLength": 1},
	},
	"required": []interface{}{"applicantId", "productId"},
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{
			name:      "valid string ids",
			input:     map[string]interface{}{"applicantId": "A-1", "productId": "P-1"},
			wantValid: true,
		},
		{
			name:      "valid numeric id",
			input:     map[string]interface{}{"applicantId": float64(17), "productId": "P-1"},
			wantValid: true,
		},
		{
			name:      "missing product",
			input:     map[string]interface{}{"applicantId": "A-1"},
			wantField: "productId",
		},
		{
			name:      "empty applicant",
			input:     map[string]interface{}{"applicantId": "", "productId": "P-1"},
			wantField: "applicantId",
		},
		{
			name:      "wrong type",
			input:     map[string]interface{}{"applicantId": true, "productId": "P-1"},
			wantField: "applicantId",
		},
		{
			name:      "nil input",
			input:     nil,
			wantField: "applicantId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, pairSchema)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
			}
		})
	}
}

func TestValidateInput_BadSchema(t *testing.T) {
	result := ValidateInput(map[string]interface{}{}, map[string]interface{}{"type": 42})
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("(schema)"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane.doe@example.com"))
	assert.False(t, ValidateEmail("jane.doe"))
	assert.False(t, ValidateEmail(""))
}

func TestValidateActivityNaming(t *testing.T) {
	assert.NoError(t, ValidateActivityNaming("eligibility.match.evaluate"))
	assert.Error(t, ValidateActivityNaming("evaluate-eligibility"))
}

func TestStringID(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   string
		wantOK bool
	}{
		{in: "A-1", want: "A-1", wantOK: true},
		{in: "  42 ", want: "42", wantOK: true},
		{in: float64(1042), want: "1042", wantOK: true},
		{in: 7, want: "7", wantOK: true},
		{in: 1.5, wantOK: false},
		{in: "", wantOK: false},
		{in: nil, wantOK: false},
		{in: true, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := StringID(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}
