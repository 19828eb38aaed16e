package nif_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dpereira/faturacao/internal/nif"
)

func TestValidate(t *testing.T) {
	type testCase struct {
		name    string
		value   string
		wantErr error
	}

	tests := []testCase{
		{name: "EmptyIsValid", value: ""},
		{name: "BlankIsValid", value: "   "},
		{name: "Valid", value: "123456789"},
		{name: "ValidWithSpaces", value: " 123 456 789 "},
		// Weighted sum divisible by 11 makes the raw check digit 11,
		// which folds to 0.
		{name: "CheckDigitFoldsToZero", value: "111111110"},
		{name: "WrongCheckDigit", value: "123456780", wantErr: nif.ErrCheckDigit},
		{name: "TooShort", value: "12345678", wantErr: nif.ErrLength},
		{name: "TooLong", value: "1234567890", wantErr: nif.ErrLength},
		{name: "NonNumeric", value: "12345678A", wantErr: nif.ErrLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := nif.Validate(tt.value)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}
