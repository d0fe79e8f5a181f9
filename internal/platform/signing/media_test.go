package signing

import (
	"strings"
	"testing"
	"time"
)

func TestSignVerify(t *testing.T) {
	s := New("test-secret")
	exp := time.Now().Add(time.Hour)
	signed := s.Sign("https://cdn.example/v.mp4", "user-1", exp)

	if !s.Verify(signed.URL, signed.UID, signed.Exp, signed.Sig) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerify_Expired(t *testing.T) {
	s := New("test-secret")
	exp := time.Now().Add(-time.Minute)
	signed := s.Sign("https://cdn.example/v.mp4", "user-1", exp)

	if s.Verify(signed.URL, signed.UID, signed.Exp, signed.Sig) {
		t.Fatal("expected expired signature to fail")
	}
}

func TestVerify_WrongUser(t *testing.T) {
	s := New("test-secret")
	exp := time.Now().Add(time.Hour)
	signed := s.Sign("https://cdn.example/v.mp4", "user-1", exp)

	if s.Verify(signed.URL, "user-2", signed.Exp, signed.Sig) {
		t.Fatal("expected signature bound to another user to fail")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	signed := New("secret-a").Sign("https://cdn.example/v.mp4", "user-1", exp)

	if New("secret-b").Verify(signed.URL, signed.UID, signed.Exp, signed.Sig) {
		t.Fatal("expected signature from another secret to fail")
	}
}

func TestSignedSourceURL_RoundTrip(t *testing.T) {
	s := New("test-secret")
	src := "https://cdn.example/v.mp4?quality=hd"

	signed, err := s.SignedSourceURL(src, "user-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	for _, param := range []string{"exp=", "uid=", "sig="} {
		if !strings.Contains(signed, param) {
			t.Fatalf("expected %q in signed url %q", param, signed)
		}
	}

	bare, err := s.VerifySourceURL(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if bare != src {
		t.Fatalf("expected bare url %q, got %q", src, bare)
	}
}

func TestVerifySourceURL_Tampered(t *testing.T) {
	s := New("test-secret")
	signed, err := s.SignedSourceURL("https://cdn.example/v.mp4", "user-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := strings.Replace(signed, "v.mp4", "other.mp4", 1)
	if _, err := s.VerifySourceURL(tampered); err == nil {
		t.Fatal("expected tampered url to fail verification")
	}
}

func TestVerifySourceURL_MissingParams(t *testing.T) {
	s := New("test-secret")
	if _, err := s.VerifySourceURL("https://cdn.example/v.mp4"); err == nil {
		t.Fatal("expected unsigned url to fail verification")
	}
}
