package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// テストではbcrypt.MinCostを使い、テスト実行時間を抑える
func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}

	if hash == "correct horse battery staple" {
		t.Error("hash must not equal plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash = %q, want bcrypt format", hash)
	}

	if !h.Verify("correct horse battery staple", hash) {
		t.Error("Verify should succeed with correct password")
	}
	if h.Verify("wrong password", hash) {
		t.Error("Verify should fail with wrong password")
	}
}

// 同じパスワードでもソルトにより毎回異なるハッシュが生成される
func TestPasswordHasher_HashesAreSalted(t *testing.T) {
	h := newTestHasher()

	hash1, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}
	hash2, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash error = %v", err)
	}

	if hash1 == hash2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestPasswordHasher_EmptyPassword(t *testing.T) {
	h := newTestHasher()

	if _, err := h.Hash(""); err == nil {
		t.Error("expected error for empty password")
	}
}

// 不正なハッシュ形式でもpanicせずfalseを返す
func TestPasswordHasher_VerifyInvalidHash(t *testing.T) {
	h := newTestHasher()

	if h.Verify("password", "not-a-bcrypt-hash") {
		t.Error("Verify should fail for invalid hash format")
	}
	if h.Verify("password", "") {
		t.Error("Verify should fail for empty hash")
	}
}

func TestNewPasswordHasher_OutOfRangeCostFallsBack(t *testing.T) {
	h := NewPasswordHasher(100)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}

	h = NewPasswordHasher(-1)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}
}
