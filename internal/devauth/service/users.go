package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aussiebroadwan/sdaportal/pkg/cryptox"
)

var ErrUserNotFound = errors.New("devauth: user not found")

// User is a seeded account. PasswordHash is an Argon2id PHC string.
type User struct {
	ID           int
	Name         string
	Username     string
	Role         string
	Status       string
	PasswordHash string
}

// UserSpec is one entry of the seed list before hashing.
type UserSpec struct {
	Username string
	Password string
	Role     string
	Name     string
}

// ParseUserSpecs reads "username:password:role[:name]" entries separated by
// ';'. Blank entries are skipped.
func ParseUserSpecs(s string) ([]UserSpec, error) {
	var out []UserSpec
	for i, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("devauth: user entry %d: want username:password:role[:name]", i+1)
		}
		spec := UserSpec{
			Username: strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     strings.TrimSpace(parts[2]),
		}
		if len(parts) == 4 {
			spec.Name = strings.TrimSpace(parts[3])
		}
		if spec.Username == "" || spec.Password == "" || spec.Role == "" {
			return nil, fmt.Errorf("devauth: user entry %d: username, password and role are required", i+1)
		}
		if spec.Name == "" {
			spec.Name = spec.Username
		}
		out = append(out, spec)
	}
	return out, nil
}

// UserDirectory is the in-memory account list.
type UserDirectory struct {
	mu         sync.RWMutex
	byUsername map[string]User
	byID       map[int]User
}

// NewUserDirectory hashes each spec's password and assigns IDs in order
// starting at 1.
func NewUserDirectory(h *cryptox.Hasher, specs []UserSpec) (*UserDirectory, error) {
	d := &UserDirectory{
		byUsername: make(map[string]User, len(specs)),
		byID:       make(map[int]User, len(specs)),
	}
	for i, spec := range specs {
		if _, dup := d.byUsername[spec.Username]; dup {
			return nil, fmt.Errorf("devauth: duplicate username %q", spec.Username)
		}
		hash, err := h.Hash(spec.Password)
		if err != nil {
			return nil, fmt.Errorf("devauth: hash password for %q: %w", spec.Username, err)
		}
		u := User{
			ID:           i + 1,
			Name:         spec.Name,
			Username:     spec.Username,
			Role:         spec.Role,
			Status:       "active",
			PasswordHash: hash,
		}
		d.byUsername[u.Username] = u
		d.byID[u.ID] = u
	}
	return d, nil
}

func (d *UserDirectory) ByUsername(username string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byUsername[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// ByID looks up a user by the decimal ID carried in a token subject.
func (d *UserDirectory) ByID(id string) (User, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[n]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// List returns every user ordered by ID.
func (d *UserDirectory) List() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]User, 0, len(d.byID))
	for _, u := range d.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *UserDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
