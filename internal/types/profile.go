package types

import (
	"bytes"
	"encoding/json"
)

// CreateProfileRequest is the body of POST /api/v1/profiles. The owner is
// always the authenticated user.
type CreateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Gender    *string `json:"gender"`
	BirthYear int     `json:"birth_year"`
}

// UpdateProfileRequest is the body of PUT /api/v1/profiles/:id. Absent fields
// are kept, explicit nulls clear nullable columns.
type UpdateProfileRequest struct {
	FirstName NullableString `json:"first_name"`
	LastName  NullableString `json:"last_name"`
	Gender    NullableString `json:"gender"`
	BirthYear *int           `json:"birth_year"`
}

// NullableString distinguishes an absent JSON field (Set == false) from an
// explicit null (Set == true, Value == nil).
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the key is present.
func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// Apply writes the value into dst when the field was present.
func (n NullableString) Apply(dst **string) {
	if n.Set {
		*dst = n.Value
	}
}

// ProfileListResponse wraps the range query result.
type ProfileListResponse[T any] struct {
	MinBirthYear int `json:"min_birth_year"`
	MaxBirthYear int `json:"max_birth_year"`
	Count        int `json:"count"`
	Profiles     []T `json:"profiles"`
}
