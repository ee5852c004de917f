package user

import "errors"

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"` // never expose hash in JSON
}

var (
	ErrNotFound = errors.New("user not found")
	// returned by stores when the unique email index rejects a write
	ErrEmailTaken = errors.New("email already taken")
)

type CreateParams struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,notblank"`
	LastName  string `json:"last_name" binding:"required,notblank"`
	Password  string `json:"password" binding:"required,notblank,min=6"`
}

// UpdateParams is a partial update. Nil fields are left untouched.
type UpdateParams struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,notblank"`
	LastName  *string `json:"last_name" binding:"omitempty,notblank"`
	Password  *string `json:"password" binding:"omitempty,notblank,min=6"`
}

func (p UpdateParams) IsEmpty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.Password == nil
}

// Patch is what a store persists: UpdateParams with the password already hashed.
type Patch struct {
	Email        *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
}

// Apply merges the present fields of p into u.
func (p Patch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	return u
}
