package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	Date   string `validate:"required,datetime=2006-01-02"`
	Amount string `validate:"required"`
}

func TestValidateAccepts(t *testing.T) {
	err := Validate(sampleRequest{Date: "2023-01-15", Amount: "500.00"})
	assert.NoError(t, err)
}

func TestValidateNamesTheField(t *testing.T) {
	err := Validate(sampleRequest{Date: "15/01/2023", Amount: "500.00"})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "date"), "error should name the field: %v", err)
}

func TestValidateRequired(t *testing.T) {
	err := Validate(sampleRequest{Date: "2023-01-15"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}
