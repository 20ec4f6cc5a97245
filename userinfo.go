package checkauth

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// UserInfo wraps the decoded payload the session endpoint answered with. The
// payload is opaque: the checker never interprets it beyond decoding, and the
// accessors only offer convenient reads for common claim names.
type UserInfo struct {
	raw any
}

// NewUserInfo wraps an already decoded payload, e.g. claims produced by a
// token verifier.
func NewUserInfo(raw any) *UserInfo {
	return &UserInfo{raw: raw}
}

func decodeUserInfo(body []byte) (*UserInfo, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyResponse
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}

	return &UserInfo{raw: raw}, nil
}

// Raw returns the decoded payload as-is.
func (u *UserInfo) Raw() any {
	if u == nil {
		return nil
	}
	return u.raw
}

// Fields returns the payload as a map when it decoded into a JSON object,
// nil otherwise.
func (u *UserInfo) Fields() map[string]any {
	if u == nil {
		return nil
	}
	fields, _ := u.raw.(map[string]any)
	return fields
}

// Field looks up a top level field by name.
func (u *UserInfo) Field(name string) (any, bool) {
	fields := u.Fields()
	if fields == nil {
		return nil, false
	}
	val, ok := fields[name]
	return val, ok
}

// StringField looks up a top level string field by name, returning "" when
// the field is missing or not a string.
func (u *UserInfo) StringField(name string) string {
	val, ok := u.Field(name)
	if !ok {
		return ""
	}
	str, _ := val.(string)
	return str
}

// Username returns the first populated username-like field.
func (u *UserInfo) Username() string {
	for _, key := range []string{"username", "login", "preferred_username", "name"} {
		if val := u.StringField(key); val != "" {
			return val
		}
	}
	return ""
}

// Email returns the email field when present.
func (u *UserInfo) Email() string {
	return u.StringField("email")
}

// Subject returns the first populated subject-like field. Numeric ids are
// formatted as their decimal representation.
func (u *UserInfo) Subject() string {
	for _, key := range []string{"sub", "id", "user_id"} {
		val, ok := u.Field(key)
		if !ok {
			continue
		}
		if str := stringify(val); str != "" {
			return str
		}
	}
	return ""
}

func stringify(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
