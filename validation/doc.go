// Package validation checks user input against declarative rules.
//
// Rules are plain values evaluated in order; the first failing rule decides a
// field's message:
//
//	msg := validation.ValidateField(email, validation.Required(""), validation.Email(""))
//
// Whole forms keep their declared field order and report every failing field:
//
//	res := validation.ValidateForm(values, []validation.FieldRules{
//	    validation.Field("name", validation.Required(""), validation.MaxLength(100, "")),
//	    validation.Field("email", validation.Email("")),
//	})
//	if !res.IsValid { ... }
//
// Account forms are also available as tagged structs checked with
// go-playground/validator; see ValidateStruct.
package validation
