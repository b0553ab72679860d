package utils

import (
	"testing"

	"disasterguardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationServiceUsesJSONFieldNames(t *testing.T) {
	vs := NewValidationService()

	errs := vs.ValidateStruct(models.CreateDonationRequest{Type: "cheque", Amount: -5})
	require.NotEmpty(t, errs)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "required", byField["donor"].Tag)
	assert.Equal(t, "required", byField["email"].Tag)
	assert.Equal(t, "donation_type", byField["type"].Tag)
	assert.Equal(t, "gt", byField["amount"].Tag)
}

func TestValidationServiceCustomTags(t *testing.T) {
	vs := NewValidationService()

	assert.Empty(t, vs.ValidateStruct(models.CreateIncidentRequest{Type: models.IncidentTypeSOS}))
	assert.NotEmpty(t, vs.ValidateStruct(models.CreateIncidentRequest{Type: "FLOOD"}))

	assert.Empty(t, vs.ValidateStruct(models.CreateOfficerRequest{
		Name: "R. Iyer", Type: models.OfficerTypeNDRF, Phone: "+91 98765 43210",
	}))
	assert.NotEmpty(t, vs.ValidateStruct(models.CreateOfficerRequest{
		Name: "R. Iyer", Type: "Army", Phone: "+91 98765 43210",
	}))

	assert.NotEmpty(t, vs.ValidateStruct(models.SignupRequest{
		Name: "x", Email: "x@example.com", Password: "secret1", Role: "root",
	}))
}

func TestValidateWrapsServiceError(t *testing.T) {
	vs := NewValidationService()

	err := vs.Validate(models.LoginRequest{})
	require.Error(t, err)

	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 400, se.StatusCode)
	assert.Len(t, se.Details, 2)
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+91 98765 43210"))
	assert.True(t, IsValidPhone("(555) 010-0199"))
	assert.False(t, IsValidPhone("call me"))
	assert.False(t, IsValidPhone("12"))
}
