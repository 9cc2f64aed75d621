package passhash

import (
	"strings"
	"testing"
)

func TestArgon2id_HashAndVerify(t *testing.T) {
	hasher := NewArgon2id()

	t.Run("round-trips a password", func(t *testing.T) {
		encoded, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}

		ok, err := hasher.Verify(encoded, "abc123")
		if err != nil {
			t.Fatalf("Verify() unexpected error: %v", err)
		}
		if !ok {
			t.Error("Verify() = false for the correct password")
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		encoded, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}

		ok, err := hasher.Verify(encoded, "wrong")
		if err != nil {
			t.Fatalf("Verify() unexpected error: %v", err)
		}
		if ok {
			t.Error("Verify() = true for a wrong password")
		}
	})

	t.Run("rejects empty candidate against a real hash", func(t *testing.T) {
		encoded, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}

		ok, err := hasher.Verify(encoded, "")
		if err != nil {
			t.Fatalf("Verify() unexpected error: %v", err)
		}
		if ok {
			t.Error("Verify() = true for an empty password")
		}
	})

	t.Run("salts hashes independently", func(t *testing.T) {
		first, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}
		second, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}
		if first == second {
			t.Error("two hashes of the same password are identical; salt is not random")
		}
	})

	t.Run("encodes the standard argon2id format", func(t *testing.T) {
		encoded, err := hasher.Hash("abc123")
		if err != nil {
			t.Fatalf("Hash() unexpected error: %v", err)
		}
		if !strings.HasPrefix(encoded, "$argon2id$v=") {
			t.Errorf("encoded hash %q missing argon2id prefix", encoded)
		}
		if parts := strings.Split(encoded, "$"); len(parts) != 6 {
			t.Errorf("encoded hash has %d segments, want 6", len(parts))
		}
	})
}

func TestArgon2id_Verify_Malformed(t *testing.T) {
	hasher := NewArgon2id()

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty string", ""},
		{"not a hash at all", "hunter2"},
		{"bcrypt-looking hash", "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"},
		{"wrong algorithm tag", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5"},
		{"missing segments", "$argon2id$v=19$m=65536,t=1,p=4"},
		{"bad parameter block", "$argon2id$v=19$m=sixty-four$c2FsdA$a2V5"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$a2V5"},
		{"bad key encoding", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.encoded, "abc123")
			if err == nil {
				t.Error("Verify() expected error for malformed hash, got nil")
			}
			if ok {
				t.Error("Verify() = true for malformed hash")
			}
		})
	}
}
