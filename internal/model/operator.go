package model

import "time"

// Operator represents a row in the `operators` table: a person allowed to
// run a check-in station or administer credentials.  The password is stored
// as a bcrypt hash.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login address.
//  PasswordHash – bcrypt hashed password.
//  Role         – STAFF (stations) or ADMIN (issuance, cancel, no-show override).
//  IsActive     – disabled operators cannot log in.
//  CreatedAt    – timestamp of creation.
type Operator struct {
    ID           uint64    // operators.id
    Email        string    // operators.email
    PasswordHash string    // operators.password_hash
    Role         string    // operators.role
    IsActive     bool      // operators.is_active
    CreatedAt    time.Time // operators.created_at
}

// Operator roles carried in the JWT "role" claim.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)
