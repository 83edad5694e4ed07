package gate

import (
	"errors"
	"testing"
)

type mockState struct {
	admin    [20]byte
	adminSet bool
}

func (m *mockState) AdminGet() ([20]byte, bool, error) { return m.admin, m.adminSet, nil }

func (m *mockState) AdminPut(addr [20]byte) error {
	m.admin = addr
	m.adminSet = true
	return nil
}

func TestAuthorizeBeforeAdminSet(t *testing.T) {
	g := New(&mockState{})
	if _, err := g.Authorize([20]byte{0x01}); !errors.Is(err, ErrAdminUnset) {
		t.Fatalf("got %v, want %v", err, ErrAdminUnset)
	}
	if _, err := g.Admin(); !errors.Is(err, ErrAdminUnset) {
		t.Fatalf("got %v, want %v", err, ErrAdminUnset)
	}
}

func TestAuthorize(t *testing.T) {
	g := New(&mockState{})
	admin := [20]byte{0xAD}
	if err := g.SetAdmin(admin); err != nil {
		t.Fatalf("set admin: %v", err)
	}

	cap, err := g.Authorize(admin)
	if err != nil {
		t.Fatalf("authorize admin: %v", err)
	}
	if !cap.Valid() {
		t.Fatal("capability not valid")
	}
	if cap.Holder() != admin {
		t.Fatal("capability holder mismatch")
	}

	if _, err := g.Authorize([20]byte{0x99}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("authorize stranger: got %v, want %v", err, ErrUnauthorized)
	}
}

func TestZeroCapabilityIsInvalid(t *testing.T) {
	var cap Capability
	if cap.Valid() {
		t.Fatal("zero capability reports valid")
	}
}
