package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPasswordPlain(t *testing.T) {
	if !VerifyPassword("hunter2", "hunter2") {
		t.Error("matching plain password rejected")
	}
	if VerifyPassword("hunter2", "wrong") {
		t.Error("wrong plain password accepted")
	}
	if VerifyPassword("", "anything") {
		t.Error("empty configured password accepted")
	}
}

func TestVerifyPasswordBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	if !VerifyPassword(string(hash), "hunter2") {
		t.Error("matching bcrypt password rejected")
	}
	if VerifyPassword(string(hash), "wrong") {
		t.Error("wrong bcrypt password accepted")
	}
}

func TestVerifyUsername(t *testing.T) {
	if !VerifyUsername("admin", "admin") {
		t.Error("matching username rejected")
	}
	if VerifyUsername("admin", "Admin") {
		t.Error("case-different username accepted")
	}
	if VerifyUsername("", "") {
		t.Error("empty configured username accepted")
	}
}
