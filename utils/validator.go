package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"disasterguardian/models"

	"github.com/go-playground/validator/v10"
)

var (
	phoneStripper = regexp.MustCompile(`[\s\-().]`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type ValidationService struct {
	validator *validator.Validate
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func NewValidationService() *ValidationService {
	v := validator.New()

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Register custom validators
	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("incident_type", validateIncidentType)
	v.RegisterValidation("officer_type", validateOfficerType)
	v.RegisterValidation("donation_type", validateDonationType)
	v.RegisterValidation("role", validateRole)

	return &ValidationService{
		validator: v,
	}
}

func (vs *ValidationService) ValidateStruct(s interface{}) []ValidationError {
	var validationErrors []ValidationError

	err := vs.validator.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Field: "body", Tag: "invalid", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: vs.getErrorMessage(fe),
		})
	}
	return validationErrors
}

// Validate wraps ValidateStruct into a ServiceError for service code.
func (vs *ValidationService) Validate(s interface{}) error {
	if errs := vs.ValidateStruct(s); len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}

func (vs *ValidationService) getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email format"
	case "phone":
		return "Invalid phone number format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "incident_type":
		return "type must be SOS or RISK"
	case "officer_type":
		return "Invalid officer type"
	case "donation_type":
		return "Invalid donation type"
	case "role":
		return "role must be citizen, volunteer or admin"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// Custom validation functions
func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phoneStripper.ReplaceAllString(phone, ""))
}

func validateIncidentType(fl validator.FieldLevel) bool {
	return models.IncidentType(fl.Field().String()).Valid()
}

func validateOfficerType(fl validator.FieldLevel) bool {
	return models.OfficerType(fl.Field().String()).Valid()
}

func validateDonationType(fl validator.FieldLevel) bool {
	return models.DonationType(fl.Field().String()).Valid()
}

func validateRole(fl validator.FieldLevel) bool {
	_, ok := models.ParseRole(fl.Field().String())
	return ok
}
