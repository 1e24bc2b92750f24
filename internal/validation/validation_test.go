package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `json:"username" validate:"required,max=10,username"`
	Password string `json:"password" validate:"required,min=6"`
	Homepage string `json:"homepage" validate:"omitempty,http_url"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
	Ignored  string `json:"-" validate:"required"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		input  sample
		fields map[string]string
	}{
		{
			name:  "valid",
			input: sample{Username: "alice.b+1", Password: "secret1", Homepage: "https://example.com", Role: "staff", Ignored: "x"},
		},
		{
			name:  "missing required",
			input: sample{Ignored: "x"},
			fields: map[string]string{
				"username": "This field is required.",
				"password": "This field is required.",
			},
		},
		{
			name:  "too long and too short",
			input: sample{Username: "abcdefghijk", Password: "abc", Ignored: "x"},
			fields: map[string]string{
				"username": "Ensure this field has no more than 10 characters.",
				"password": "Ensure this field has at least 6 characters.",
			},
		},
		{
			name:   "bad username characters",
			input:  sample{Username: "bad name!", Password: "secret1", Ignored: "x"},
			fields: map[string]string{"username": "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."},
		},
		{
			name:  "unicode username",
			input: sample{Username: "josé_名前", Password: "secret1", Ignored: "x"},
		},
		{
			name:   "currency symbol in username",
			input:  sample{Username: "bob€", Password: "secret1", Ignored: "x"},
			fields: map[string]string{"username": "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."},
		},
		{
			name:   "bad url",
			input:  sample{Username: "bob", Password: "secret1", Homepage: "not a url", Ignored: "x"},
			fields: map[string]string{"homepage": "Enter a valid URL."},
		},
		{
			name:   "oneof",
			input:  sample{Username: "bob", Password: "secret1", Role: "root", Ignored: "x"},
			fields: map[string]string{"role": "Must be one of: admin, staff."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.fields == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.fields, Fields(err))
		})
	}
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, Fields(errors.New("boom")))
	assert.Nil(t, Fields(nil))
}
