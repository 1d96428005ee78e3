package identitycodec_test

import (
	"crypto/rand"
	"testing"

	domain "bitchat/internal/domain"
	"bitchat/internal/identitycodec"
)

// fixtures is a frozen (pubkey, hash_id, checksum) table recomputed against
// this implementation, per spec.md §8's round-trip requirement.
var fixtures = []struct {
	pk       [32]byte
	hashID   string
	checksum string
}{
	{pk: [32]byte{}, hashID: "EUP9QDHT", checksum: "UP"},
	{pk: fill(0xFF), hashID: "QZD38YJH", checksum: "KE"},
	{pk: sequential(), hashID: "EE8XVCD8", checksum: "UT"},
	{pk: lead(1), hashID: "29AHQHB7", checksum: "6X"},
	{pk: lead(2), hashID: "CYXHN3GW", checksum: "VP"},
}

func fill(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func sequential() [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func lead(b byte) [32]byte {
	var out [32]byte
	out[0] = b
	return out
}

func TestHashID_Fixtures(t *testing.T) {
	for _, f := range fixtures {
		got := identitycodec.HashID(f.pk)
		if string(got) != f.hashID {
			t.Fatalf("HashID(%x) = %s, want %s", f.pk, got, f.hashID)
		}
	}
}

// TestHashID_KnownIndex31Trigger is the concrete repro of the panic this
// alphabet used to have at index 31: sha256(pk)[:5] = fa282a9c59, whose
// first 5-bit group is 11111 (31).
func TestHashID_KnownIndex31Trigger(t *testing.T) {
	var pk [32]byte
	pk[31] = 0x24
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("HashID(%x) panicked: %v", pk, r)
		}
	}()
	got := identitycodec.HashID(pk)
	if !identitycodec.IsValidHashID(string(got)) {
		t.Fatalf("HashID(%x) = %q is not a valid hash id", pk, got)
	}
}

// TestHashID_RandomKeys_NeverPanicsAndRoundTrips exercises encodeBase32
// over many random 32-byte keys rather than a handful of fixed fixtures,
// so a 5-bit index landing outside the alphabet is caught regardless of
// which bytes trigger it.
func TestHashID_RandomKeys_NeverPanicsAndRoundTrips(t *testing.T) {
	for i := 0; i < 4000; i++ {
		var pk [32]byte
		if _, err := rand.Read(pk[:]); err != nil {
			t.Fatalf("rand.Read: %v", err)
		}

		hid := identitycodec.HashID(pk)
		if !identitycodec.IsValidHashID(string(hid)) {
			t.Fatalf("HashID(%x) = %q is not a valid hash id", pk, hid)
		}

		uri := identitycodec.QRURI(pk)
		got, err := identitycodec.ParseQRURI(uri)
		if err != nil {
			t.Fatalf("ParseQRURI(%s): %v", uri, err)
		}
		if got != hid {
			t.Fatalf("round trip mismatch for %x: got %s, want %s", pk, got, hid)
		}
	}
}

func TestQRURI_RoundTrip(t *testing.T) {
	for _, f := range fixtures {
		uri := identitycodec.QRURI(f.pk)
		want := "bitchat://add/" + f.hashID + "/" + f.checksum
		if uri != want {
			t.Fatalf("QRURI(%x) = %s, want %s", f.pk, uri, want)
		}
		got, err := identitycodec.ParseQRURI(uri)
		if err != nil {
			t.Fatalf("ParseQRURI(%s): %v", uri, err)
		}
		if got != domain.HashID(f.hashID) {
			t.Fatalf("ParseQRURI(%s) = %s, want %s", uri, got, f.hashID)
		}
	}
}

func TestParseQRURI_CorruptedChecksumRejected(t *testing.T) {
	uri := "bitchat://add/EUP9QDHT/XX"
	if _, err := identitycodec.ParseQRURI(uri); err != identitycodec.ErrChecksumMismatch {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestParseQRURI_MalformedRejected(t *testing.T) {
	cases := []string{
		"bitchat://add/EUP9QDHT",
		"bitchat://add/EUP9QDHT/UP/extra",
		"bitchat://add/TOOLONGHASH/UP",
		"bitchat://add/eup9qdht/UP", // wrong case not in alphabet
		"http://add/EUP9QDHT/UP",
	}
	for _, c := range cases {
		if _, err := identitycodec.ParseQRURI(c); err != identitycodec.ErrMalformedURI {
			t.Fatalf("ParseQRURI(%q) = %v, want ErrMalformedURI", c, err)
		}
	}
}

func TestIsValidHashID(t *testing.T) {
	if !identitycodec.IsValidHashID("EUP9QDHT") {
		t.Fatal("expected valid")
	}
	if identitycodec.IsValidHashID("EUP9QDH") {
		t.Fatal("expected invalid (too short)")
	}
	if identitycodec.IsValidHashID("EUP9QD0T") {
		t.Fatal("expected invalid (contains 0)")
	}
}

func TestEveryCorruptedCharacterRejectsURI(t *testing.T) {
	base := "bitchat://add/EUP9QDHT/UP"
	for i, r := range base {
		if r == ':' || r == '/' {
			continue
		}
		corrupted := []rune(base)
		// rotate within the bitchat alphabet to guarantee a different,
		// still-structurally-valid character where applicable.
		corrupted[i] = rotate(r)
		s := string(corrupted)
		if s == base {
			continue
		}
		if _, err := identitycodec.ParseQRURI(s); err == nil {
			t.Fatalf("corrupting index %d (%q) unexpectedly parsed", i, s)
		}
	}
}

func rotate(r rune) rune {
	idx := -1
	for i, a := range identitycodec.Alphabet {
		if a == r {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 'A'
	}
	return []rune(identitycodec.Alphabet)[(idx+1)%len(identitycodec.Alphabet)]
}
