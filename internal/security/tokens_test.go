package security

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"
)

func TestTokenCodec_EncodeDecode(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	token, err := c.Encode(map[string]any{ClaimSessionID: int64(42)}, TokenTypeAuth)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if token == "" {
		t.Fatal("token empty")
	}
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if TypeOf(claims) != TokenTypeAuth {
		t.Errorf("type = %q, want %q", TypeOf(claims), TokenTypeAuth)
	}
	sid, ok := IntClaim(claims, ClaimSessionID)
	if !ok || sid != 42 {
		t.Errorf("sid = %d, ok = %v, want 42", sid, ok)
	}
	if claims["iss"] != TestIssuer {
		t.Errorf("iss = %v, want %q", claims["iss"], TestIssuer)
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Error("jti should be set")
	}
}

func TestTokenCodec_EncodeRejectsReservedAndNonPrimitive(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	if _, err := c.Encode(map[string]any{"type": "activation"}, TokenTypeAuth); err == nil {
		t.Error("overriding the type claim must fail")
	}
	if _, err := c.Encode(map[string]any{"nested": map[string]any{"a": 1}}, TokenTypeAuth); err == nil {
		t.Error("non-primitive claim must fail")
	}
}

func TestTokenCodec_DecodeGarbage(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	inputs := []string{
		"",
		"invalid-token",
		"a.b.c",
		"...",
		"eyJhbGciOiJub25lIn0.eyJ0eXBlIjoiYXV0aCJ9.",
		strings.Repeat("A", 4096),
		"\x00\xff.\x01.\x02",
	}
	for _, in := range inputs {
		claims, err := c.Decode(in)
		if err != ErrMalformedToken {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedToken", in, err)
		}
		if claims != nil {
			t.Errorf("Decode(%q) returned claims on failure", in)
		}
	}
}

func TestTokenCodec_TamperedByteIsMalformed(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	token, err := c.Encode(map[string]any{ClaimSessionID: int64(1)}, TokenTypeAuth)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(token); i++ {
		// The last character of a segment may carry only padding bits; skip those and separators.
		if token[i] == '.' || i+1 == len(token) || token[i+1] == '.' {
			continue
		}
		repl := alphabet[(strings.IndexByte(alphabet, token[i])+1)%len(alphabet)]
		tampered := token[:i] + string(repl) + token[i+1:]
		if _, err := c.Decode(tampered); err != ErrMalformedToken {
			t.Fatalf("tampered at %d: err = %v, want ErrMalformedToken", i, err)
		}
	}
}

func TestTokenCodec_WrongIssuerOrKey(t *testing.T) {
	c, err := NewTestTokenCodec()
	if err != nil {
		t.Fatalf("NewTestTokenCodec: %v", err)
	}
	other, err := NewTokenCodec(c.privateKey, c.publicKey, "someone-else")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, err := other.Encode(map[string]any{ClaimSessionID: int64(1)}, TokenTypeAuth)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(token); err != ErrMalformedToken {
		t.Errorf("foreign issuer: err = %v, want ErrMalformedToken", err)
	}

	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	ecCodec, err := NewTokenCodec(ecKey, ecKey.Public(), TestIssuer)
	if err != nil {
		t.Fatalf("NewTokenCodec ecdsa: %v", err)
	}
	ecToken, err := ecCodec.Encode(map[string]any{ClaimSessionID: int64(1)}, TokenTypeAuth)
	if err != nil {
		t.Fatalf("Encode ecdsa: %v", err)
	}
	if _, err := c.Decode(ecToken); err != ErrMalformedToken {
		t.Errorf("token signed by another key/alg: err = %v, want ErrMalformedToken", err)
	}
	if _, err := ecCodec.Decode(ecToken); err != nil {
		t.Errorf("ecdsa codec should decode its own token: %v", err)
	}
}

func TestTokenCodec_Ed25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	c, err := NewTokenCodec(priv, pub, TestIssuer)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, err := c.Encode(map[string]any{ClaimUserID: int64(9)}, TokenTypeActivation)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	claims, err := c.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if TypeOf(claims) != TokenTypeActivation {
		t.Errorf("type = %q, want activation", TypeOf(claims))
	}
}

func TestIntClaim(t *testing.T) {
	testCases := []struct {
		name  string
		value any
		want  int64
		ok    bool
	}{
		{"integral float", float64(7), 7, true},
		{"fractional", 7.5, 0, false},
		{"zero", float64(0), 0, false},
		{"negative", float64(-3), 0, false},
		{"string", "7", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims := map[string]any{}
			if tc.value != nil {
				claims["sid"] = tc.value
			}
			got, ok := IntClaim(claims, "sid")
			if got != tc.want || ok != tc.ok {
				t.Errorf("IntClaim = (%d, %v), want (%d, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}
