package service

import "testing"

func TestLockTokenRoundTrip(t *testing.T) {
	raw, err := MintLockToken()
	if err != nil {
		t.Fatal(err)
	}
	if raw == "" {
		t.Fatal("minted empty token")
	}

	hash := HashLockToken(raw)
	if hash == raw {
		t.Fatal("stored hash must not equal the raw token")
	}
	if !VerifyLockToken(hash, raw) {
		t.Error("freshly minted token must verify against its own hash")
	}
}

func TestVerifyLockTokenRejects(t *testing.T) {
	raw, err := MintLockToken()
	if err != nil {
		t.Fatal(err)
	}
	other, err := MintLockToken()
	if err != nil {
		t.Fatal(err)
	}
	hash := HashLockToken(raw)

	if VerifyLockToken(hash, other) {
		t.Error("different token must not verify")
	}
	if VerifyLockToken(hash, "") {
		t.Error("empty token must not verify")
	}
	if VerifyLockToken("", raw) {
		t.Error("empty stored hash must not verify")
	}
	if VerifyLockToken(hash, raw+"x") {
		t.Error("tampered token must not verify")
	}
}

func TestMintLockTokenUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		raw, err := MintLockToken()
		if err != nil {
			t.Fatal(err)
		}
		if _, dup := seen[raw]; dup {
			t.Fatal("minted duplicate token")
		}
		seen[raw] = struct{}{}
	}
}
