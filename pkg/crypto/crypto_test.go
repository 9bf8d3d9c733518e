package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("orchid-paper-42")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if !VerifyPassword(hash, "orchid-paper-42") {
		t.Fatal("expected password verification to succeed")
	}

	if VerifyPassword(hash, "incorrect") {
		t.Fatal("expected password verification to fail")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	key := bytes.Repeat([]byte{0x1}, 32)
	plaintext := []byte("smtp-app-password")

	encoded, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if strings.Contains(encoded, "smtp-app-password") {
		t.Fatal("expected ciphertext to hide the plaintext")
	}

	decrypted, err := Decrypt(encoded, key)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}

	if !bytes.Equal(plaintext, decrypted) {
		t.Fatalf("expected decrypted plaintext to match original, got %s", decrypted)
	}
}

func TestEncryptDecrypt16ByteKey(t *testing.T) {
	key := []byte("0123456789abcdef")

	encoded, err := Encrypt([]byte("imap-password"), key)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	decrypted, err := Decrypt(encoded, key)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}
	if string(decrypted) != "imap-password" {
		t.Fatalf("unexpected plaintext %q", decrypted)
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	keyA := bytes.Repeat([]byte{0x1}, 32)
	keyB := bytes.Repeat([]byte{0x2}, 32)

	encoded, err := Encrypt([]byte("aws-secret-key"), keyA)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	if _, err := Decrypt(encoded, keyB); err == nil {
		t.Fatal("expected decryption with the wrong key to fail")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(18)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if len(token) == 0 {
		t.Fatal("expected token to be non-empty")
	}

	// Tokens land in a plus-addressed local part; they must stay URL-safe.
	if strings.ContainsAny(token, "+/=") {
		t.Fatalf("expected URL-safe token, got %q", token)
	}

	other, err := GenerateToken(18)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatal("expected tokens to be random")
	}
}
