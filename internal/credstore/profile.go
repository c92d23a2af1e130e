package credstore

import (
	"encoding/json"
	"fmt"
)

// Profile is the user record returned by the auth backend at login and
// kept verbatim under KeyUser. Fields the portal does not know about are
// preserved in Extra so a round trip never drops them.
type Profile struct {
	ID       json.RawMessage `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Username string          `json:"username,omitempty"`
	Role     string          `json:"role"`
	Status   string          `json:"status,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var profileFields = map[string]struct{}{
	"id": {}, "name": {}, "username": {}, "role": {}, "status": {},
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	type plain Profile
	var known plain
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for k := range profileFields {
		delete(all, k)
	}
	if len(all) > 0 {
		known.Extra = all
	}

	*p = Profile(known)
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	b, err := json.Marshal(plain(p))
	if err != nil || len(p.Extra) == 0 {
		return b, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, known := profileFields[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// ParseProfile decodes the serialized profile stored under KeyUser.
func ParseProfile(raw string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("credstore: parse profile: %w", err)
	}
	return p, nil
}
