// Package validation checks configuration structs and entry records.
//
// Struct tag validation is backed by go-playground/validator and reports
// field names by their mapstructure key:
//
//	type Config struct {
//	    Provider string `mapstructure:"provider" validate:"oneof=remote selfhosted"`
//	}
//	err := validation.Struct(cfg)
//
// Programmatic validation collects several errors before failing:
//
//	err := validation.New().RequiredUUID("id", e.ID).MaxLength("title", e.Title, 255).Validate()
package validation
