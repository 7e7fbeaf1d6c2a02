package domain

import "encoding/json"

// RoleKind tags which shape a role claim arrived in.
type RoleKind uint8

const (
	// RoleKindUnknown is any entry that is neither a string nor an object.
	RoleKindUnknown RoleKind = iota
	// RoleKindName is a bare string entry such as "admin".
	RoleKindName
	// RoleKindRecord is an object entry carrying name, slug or role.
	RoleKindRecord
)

// RoleRecord is the structured form of a role claim. A nil field was absent.
type RoleRecord struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
	Role *string `json:"role,omitempty"`
}

// Role is a single role claim taken from a session token.
type Role struct {
	kind   RoleKind
	name   string
	record RoleRecord
}

// NewNameRole builds a role from a bare string.
func NewNameRole(name string) Role {
	return Role{kind: RoleKindName, name: name}
}

// NewRecordRole builds a role from a structured record.
func NewRecordRole(record RoleRecord) Role {
	return Role{kind: RoleKindRecord, record: record}
}

// Name resolves the role name: the string itself, else the first present
// field among name, slug and role, else "".
func (r Role) Name() string {
	switch r.kind {
	case RoleKindName:
		return r.name
	case RoleKindRecord:
		for _, field := range []*string{r.record.Name, r.record.Slug, r.record.Role} {
			if field != nil {
				return *field
			}
		}
	}
	return ""
}

// MarshalJSON writes the role back in the shape it was decoded from.
func (r Role) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case RoleKindName:
		return json.Marshal(r.name)
	case RoleKindRecord:
		return json.Marshal(r.record)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a bare string or an object. Any other shape decodes
// to an unknown role with an empty name instead of failing the whole token.
func (r *Role) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		*r = NewNameRole(v)
	case map[string]any:
		*r = NewRecordRole(RoleRecord{
			Name: stringField(v, "name"),
			Slug: stringField(v, "slug"),
			Role: stringField(v, "role"),
		})
	default:
		*r = Role{kind: RoleKindUnknown}
	}
	return nil
}

func stringField(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	return &s
}
