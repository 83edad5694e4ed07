package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 20)
	addr, err := NewAddress(raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(AucPrefix)) {
		t.Fatalf("encoded address missing prefix: %q", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), raw) {
		t.Fatal("round trip mutated the payload")
	}
	if decoded.Array() != addr.Array() {
		t.Fatal("array form mismatch")
	}
}

func TestNewAddressRejectsWrongLength(t *testing.T) {
	if _, err := NewAddress([]byte{0x01}); err == nil {
		t.Fatal("short payload accepted")
	}
	if _, err := NewAddress(bytes.Repeat([]byte{0x01}, 32)); err == nil {
		t.Fatal("long payload accepted")
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("bc1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"); err == nil {
		t.Fatal("foreign prefix accepted")
	}
	if _, err := DecodeAddress("not-bech32"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestKeyToAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	if len(addr.Bytes()) != 20 {
		t.Fatalf("derived address length: %d", len(addr.Bytes()))
	}

	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore key: %v", err)
	}
	if restored.PubKey().Address().Array() != addr.Array() {
		t.Fatal("restored key derives a different address")
	}
}
