package library

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a bcrypt hash for storage in the member record.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// AuthenticateMember verifies a member's password against the stored
// hash.
func (d *Database) AuthenticateMember(id int64, password string) error {
	member, err := d.GetMember(id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password for member %s", member.Username)
	}
	return nil
}

// ResetPassword replaces a member's credential after verifying the old
// one.
func (d *Database) ResetPassword(id int64, oldPassword, newPassword string) error {
	if err := d.AuthenticateMember(id, oldPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return d.setPasswordHash(id, hash)
}
