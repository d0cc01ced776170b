package domain

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/vault/internal/validation"
)

// CreateRoleInput holds the fields of a new role.
type CreateRoleInput struct {
	Name        string
	Description string
}

// Validate checks the role input.
func (i CreateRoleInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			appValidation.NoWhitespace,
			validation.Length(1, 100),
		),
		validation.Field(&i.Description, validation.Length(0, 500)),
	)
	return appValidation.WrapValidationError(err)
}

// CreatePolicyInput holds the fields of a new policy.
type CreatePolicyInput struct {
	Name         string
	Description  string
	ResourceType string
	Action       string
	Effect       Effect
}

// Validate checks the policy input. Resource types and actions are free-form
// but may not be blank or padded, since matching is exact.
func (i CreatePolicyInput) Validate() error {
	err := validation.ValidateStruct(&i,
		validation.Field(&i.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			appValidation.NoWhitespace,
			validation.Length(1, 100),
		),
		validation.Field(&i.Description, validation.Length(0, 500)),
		validation.Field(&i.ResourceType,
			validation.Required.Error("resource type is required"),
			appValidation.NoWhitespace,
			validation.Length(1, 100),
		),
		validation.Field(&i.Action,
			validation.Required.Error("action is required"),
			appValidation.NoWhitespace,
			validation.Length(1, 100),
		),
		validation.Field(&i.Effect,
			validation.Required.Error("effect is required"),
			validation.In(EffectAllow, EffectDeny).Error("effect must be allow or deny"),
		),
	)
	return appValidation.WrapValidationError(err)
}
