package handshake

import (
	"encoding/binary"
	"errors"

	domain "bitchat/internal/domain"
)

// errMalformedPacket is returned by decodePacket when the wire framing is
// shorter than its own declared lengths.
var errMalformedPacket = errors.New("handshake: malformed packet")

// encodePacket frames a RatchetHeader and ciphertext as:
//
//	[1 byte dh_pub len][dh_pub][4 bytes pn][4 bytes n][ciphertext]
//
// The DH public key length is framed explicitly rather than assumed fixed
// at 32 bytes so the wire format tolerates a future rekey to a larger
// curve without a version bump.
func encodePacket(h domain.RatchetHeader, ciphertext []byte) []byte {
	out := make([]byte, 0, 1+len(h.DiffieHellmanPublicKey)+8+len(ciphertext))
	out = append(out, byte(len(h.DiffieHellmanPublicKey)))
	out = append(out, h.DiffieHellmanPublicKey...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.PreviousChainLength)
	out = append(out, b[:]...)
	binary.BigEndian.PutUint32(b[:], h.MessageIndex)
	out = append(out, b[:]...)
	out = append(out, ciphertext...)
	return out
}

func decodePacket(packet []byte) (domain.RatchetHeader, []byte, error) {
	if len(packet) < 1 {
		return domain.RatchetHeader{}, nil, errMalformedPacket
	}
	n := int(packet[0])
	if len(packet) < 1+n+8 {
		return domain.RatchetHeader{}, nil, errMalformedPacket
	}
	dhPub := packet[1 : 1+n]
	pn := binary.BigEndian.Uint32(packet[1+n : 1+n+4])
	idx := binary.BigEndian.Uint32(packet[1+n+4 : 1+n+8])
	ct := packet[1+n+8:]

	return domain.RatchetHeader{
		DiffieHellmanPublicKey: dhPub,
		PreviousChainLength:    pn,
		MessageIndex:           idx,
	}, ct, nil
}
