package models

import (
	"slices"
	"strings"
)

// FieldError is a single failed rule, attributed to one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"-"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationErrors is the ordered list of every rule that failed.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the messages reported for field, in rule order.
func (v ValidationErrors) Messages(field string) []string {
	var out []string
	for _, e := range v {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// ProfileRule is one declarative check. Check returns nil when the profile passes.
type ProfileRule struct {
	Name  string
	Check func(p *Profile) *FieldError
}

// ProfileRules run in this order; every rule is evaluated on every call.
var ProfileRules = []ProfileRule{
	{Name: "gender_in_set", Check: genderInSet},
	{Name: "names_not_both_null", Check: namesNotBothNull},
	{Name: "no_boy_named_sue", Check: noBoyNamedSue},
}

// ValidateProfile evaluates all ProfileRules against p and collects the failures.
// An empty result means p is valid.
func ValidateProfile(p *Profile) ValidationErrors {
	var errs ValidationErrors
	for _, rule := range ProfileRules {
		if fe := rule.Check(p); fe != nil {
			fe.Rule = rule.Name
			errs = append(errs, *fe)
		}
	}
	return errs
}

func genderInSet(p *Profile) *FieldError {
	if p.Gender == nil || slices.Contains(Genders, *p.Gender) {
		return nil
	}
	return &FieldError{Field: "gender", Message: "not included in list"}
}

func namesNotBothNull(p *Profile) *FieldError {
	if p.FirstName != nil || p.LastName != nil {
		return nil
	}
	return &FieldError{Field: "first_name", Message: "cannot be nil if Last Name is nil!"}
}

func noBoyNamedSue(p *Profile) *FieldError {
	if p.Gender == nil || *p.Gender != GenderMale || p.FirstName == nil || *p.FirstName != "Sue" {
		return nil
	}
	return &FieldError{Field: "first_name", Message: "cannot be Sue if gender is male!"}
}
