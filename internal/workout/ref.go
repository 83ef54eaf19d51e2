package workout

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// ExerciseRef identifies a catalog exercise. A reference is either resolved
// to a canonical UUID or kept as the raw value the client sent. Raw values
// are stored as-is; they simply fail to expand against the catalog.
type ExerciseRef struct {
	id       uuid.UUID
	raw      string
	resolved bool
}

// Resolved returns a reference to a canonical identifier.
func Resolved(id uuid.UUID) ExerciseRef {
	return ExerciseRef{id: id, resolved: true}
}

// Raw returns an unresolved reference carrying value verbatim.
func Raw(value string) ExerciseRef {
	return ExerciseRef{raw: value}
}

// ResolveRef converts value into a reference, resolving it when it is a
// well-formed UUID and passing it through unchanged otherwise.
func ResolveRef(value string) ExerciseRef {
	if id, err := uuid.Parse(strings.TrimSpace(value)); err == nil {
		return Resolved(id)
	}
	return Raw(value)
}

// ID returns the canonical identifier and whether the reference is resolved.
func (r ExerciseRef) ID() (uuid.UUID, bool) {
	return r.id, r.resolved
}

// IsResolved reports whether the reference holds a canonical identifier.
func (r ExerciseRef) IsResolved() bool {
	return r.resolved
}

// IsZero reports whether the reference carries no value at all.
func (r ExerciseRef) IsZero() bool {
	return !r.resolved && r.raw == ""
}

// Equal compares two references by resolved identity.
func (r ExerciseRef) Equal(o ExerciseRef) bool {
	if r.resolved != o.resolved {
		return false
	}
	if r.resolved {
		return r.id == o.id
	}
	return r.raw == o.raw
}

// String returns the stored form of the reference.
func (r ExerciseRef) String() string {
	if r.resolved {
		return r.id.String()
	}
	return r.raw
}

// MarshalJSON encodes the reference as a string.
func (r ExerciseRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts anything RefInput accepts and resolves it.
func (r *ExerciseRef) UnmarshalJSON(b []byte) error {
	var in RefInput
	if err := in.UnmarshalJSON(b); err != nil {
		return err
	}
	*r = in.Ref()
	return nil
}

// RefInput is a client-supplied reference before resolution: a bare
// identifier string, or an object carrying one in "_id" or "id".
// JSON null and an absent field both leave it unset.
type RefInput struct {
	value string
	set   bool
}

// NewRefInput returns a set RefInput holding value.
func NewRefInput(value string) RefInput {
	return RefInput{value: value, set: true}
}

// IsSet reports whether the client supplied a value.
func (in RefInput) IsSet() bool {
	return in.set && in.value != ""
}

// Ref resolves the input.
func (in RefInput) Ref() ExerciseRef {
	return ResolveRef(in.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (in *RefInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*in = RefInput{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*in = NewRefInput(s)
		return nil
	case b[0] == '{':
		var obj struct {
			UnderscoreID *RefInput `json:"_id"`
			ID           *RefInput `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		switch {
		case obj.UnderscoreID != nil && obj.UnderscoreID.IsSet():
			*in = *obj.UnderscoreID
		case obj.ID != nil && obj.ID.IsSet():
			*in = *obj.ID
		default:
			*in = RefInput{}
		}
		return nil
	default:
		// Numbers, booleans and arrays pass through as their JSON text.
		*in = NewRefInput(string(b))
		return nil
	}
}
