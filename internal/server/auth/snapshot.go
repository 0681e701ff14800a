package auth

import (
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/server/models"
	"github.com/fxamacker/cbor/v2"
)

// snapshot is the signed part of a token. It carries no credential material.
type snapshot struct {
	Username string   `cbor:"username"`
	Expires  int64    `cbor:"expires"` // unix milliseconds, 0 when unset
	Roles    []string `cbor:"roles"`
}

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode
)

func init() {
	var err error

	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("auth: CBOR encoder initialization failed: " + err.Error())
	}

	snapshotDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxArrayElements:  64,
		MaxMapPairs:       16,
		MaxNestedLevels:   4,
	}.DecMode()
	if err != nil {
		panic("auth: CBOR decoder initialization failed: " + err.Error())
	}
}

func snapshotOf(u *models.User) (snapshot, error) {
	roles, err := u.Roles()
	if err != nil {
		return snapshot{}, err
	}

	s := snapshot{Username: u.Username, Roles: make([]string, 0, len(roles))}
	if !u.ExpiresAt.IsZero() {
		s.Expires = u.ExpiresAt.UnixMilli()
	}
	for _, r := range roles {
		s.Roles = append(s.Roles, r.String())
	}
	return s, nil
}

func (s snapshot) marshal() ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

func unmarshalSnapshot(b []byte) (snapshot, error) {
	var s snapshot
	err := snapshotDecMode.Unmarshal(b, &s)
	return s, err
}

// user rebuilds the principal. Unknown role names fail the whole decode.
func (s snapshot) user() (*models.User, error) {
	u := &models.User{Username: s.Username}
	if s.Expires != 0 {
		u.ExpiresAt = time.UnixMilli(s.Expires)
	}
	for _, name := range s.Roles {
		r, err := models.ParseRole(name)
		if err != nil {
			return nil, err
		}
		u.GrantRole(r)
	}
	return u, nil
}
