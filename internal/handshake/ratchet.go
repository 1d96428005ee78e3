package handshake

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	domain "bitchat/internal/domain"
	"bitchat/internal/util/memzero"
)

const (
	aeadKeySize  = 32
	nonceSize    = chacha20poly1305.NonceSize
	maxSkippedMK = 1000
)

var (
	errSkippedKeyNotFound = errors.New("handshake: skipped message key not found")
	errChainUninitialised = errors.New("handshake: ratchet chain key is uninitialised")
)

// ratchetInitAsInitiator seeds the sending chain from root using a fresh
// ratchet key pair and the peer's identity public key as the initial peer
// ratchet pub.
func ratchetInitAsInitiator(root []byte, peerIdentity domain.X25519Public) (domain.RatchetState, error) {
	priv, pub, err := newRatchetKeyPair()
	if err != nil {
		return domain.RatchetState{}, err
	}

	dhOut, err := x25519(priv, peerIdentity)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRK, sendCK := kdfRootKey(root, dhOut[:])
	memzero.Zero(dhOut[:])

	return domain.RatchetState{
		RootKey:                 newRK,
		DiffieHellmanPrivate:    priv,
		DiffieHellmanPublic:     pub,
		PeerDiffieHellmanPublic: peerIdentity,
		SendChainKey:            sendCK,
		ReceiveChainKey:         nil,
		SendMessageIndex:        0,
		ReceiveMessageIndex:     0,
		PreviousChainLength:     0,
		SkippedKeys:             make(map[string][]byte),
	}, nil
}

// ratchetInitAsResponder seeds the receiving chain from root using our
// identity private key and the sender's ratchet public key.
func ratchetInitAsResponder(root []byte, ourIDPriv domain.X25519Private, senderRatchetPub domain.X25519Public) (domain.RatchetState, error) {
	priv, pub, err := newRatchetKeyPair()
	if err != nil {
		return domain.RatchetState{}, err
	}

	dhOut, err := x25519(ourIDPriv, senderRatchetPub)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRK, recvCK := kdfRootKey(root, dhOut[:])
	memzero.Zero(dhOut[:])

	return domain.RatchetState{
		RootKey:                 newRK,
		DiffieHellmanPrivate:    priv,
		DiffieHellmanPublic:     pub,
		PeerDiffieHellmanPublic: senderRatchetPub,
		SendChainKey:            nil,
		ReceiveChainKey:         recvCK,
		SendMessageIndex:        0,
		ReceiveMessageIndex:     0,
		PreviousChainLength:     0,
		SkippedKeys:             make(map[string][]byte),
	}, nil
}

// ratchetEncrypt produces a header and ciphertext, auto-stepping the DH
// ratchet on the first send after responding.
func ratchetEncrypt(st *domain.RatchetState, ad, plaintext []byte) (domain.RatchetHeader, []byte, error) {
	if len(st.SendChainKey) == 0 {
		st.PreviousChainLength = st.SendMessageIndex
		st.SendMessageIndex = 0

		newPriv, newPub, err := newRatchetKeyPair()
		if err != nil {
			return domain.RatchetHeader{}, nil, err
		}

		dhOut, err := x25519(newPriv, st.PeerDiffieHellmanPublic)
		if err != nil {
			return domain.RatchetHeader{}, nil, err
		}
		rk2, sendCK := kdfRootKey(st.RootKey, dhOut[:])
		memzero.Zero(dhOut[:])

		st.RootKey = rk2
		st.DiffieHellmanPrivate, st.DiffieHellmanPublic = newPriv, newPub
		st.SendChainKey = sendCK
	}

	mk, err := kdfChainKeySend(st)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	h := domain.RatchetHeader{
		DiffieHellmanPublicKey: st.DiffieHellmanPublic.Slice(),
		PreviousChainLength:    st.PreviousChainLength,
		MessageIndex:           st.SendMessageIndex,
	}

	ct, err := seal(mk, h, ad, plaintext)
	memzero.Zero(mk)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	st.SendMessageIndex++
	return h, ct, nil
}

// ratchetDecrypt handles skipped keys, performs a DH ratchet step on a new
// remote ratchet public key, then opens the message.
func ratchetDecrypt(st *domain.RatchetState, ad []byte, header domain.RatchetHeader, ciphertext []byte) ([]byte, error) {
	if equal32(st.PeerDiffieHellmanPublic[:], header.DiffieHellmanPublicKey) {
		skipUntil(st, header.MessageIndex)
		keyID := skippedKeyID(st.PeerDiffieHellmanPublic, header.MessageIndex)
		if mk, ok := st.SkippedKeys[keyID]; ok {
			delete(st.SkippedKeys, keyID)
			pt, err := open(mk, header, ad, ciphertext)
			memzero.Zero(mk)
			if err != nil {
				return nil, err
			}
			st.ReceiveMessageIndex = header.MessageIndex + 1
			return pt, nil
		}
	}

	if !equal32(st.PeerDiffieHellmanPublic[:], header.DiffieHellmanPublicKey) {
		skipUntil(st, header.PreviousChainLength)

		var newPeer domain.X25519Public
		copy(newPeer[:], header.DiffieHellmanPublicKey)

		dhOut, err := x25519(st.DiffieHellmanPrivate, newPeer)
		if err != nil {
			return nil, err
		}
		rk2, recvCK := kdfRootKey(st.RootKey, dhOut[:])
		memzero.Zero(dhOut[:])

		newPriv, newPub, err := newRatchetKeyPair()
		if err != nil {
			return nil, err
		}

		dh2, err := x25519(newPriv, newPeer)
		if err != nil {
			return nil, err
		}
		rk3, sendCK := kdfRootKey(rk2, dh2[:])
		memzero.Zero(dh2[:])

		st.PreviousChainLength = st.SendMessageIndex
		st.SendMessageIndex, st.ReceiveMessageIndex = 0, 0
		st.RootKey = rk3
		st.DiffieHellmanPrivate, st.DiffieHellmanPublic = newPriv, newPub
		st.PeerDiffieHellmanPublic = newPeer
		st.SendChainKey, st.ReceiveChainKey = sendCK, recvCK
	}

	mk, err := kdfChainKeyRecv(st)
	if err != nil {
		return nil, err
	}
	pt, err := open(mk, header, ad, ciphertext)
	memzero.Zero(mk)
	if err != nil {
		return nil, err
	}
	st.ReceiveMessageIndex++
	return pt, nil
}

// --- helpers ---

func newRatchetKeyPair() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pubBytes, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pubBytes)
	return
}

func seal(mk []byte, header domain.RatchetHeader, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], header.MessageIndex)
	return aead.Seal(nil, nonce, plaintext, append(ad, headerBytes(header)...)), nil
}

func open(mk []byte, header domain.RatchetHeader, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], header.MessageIndex)
	return aead.Open(nil, nonce, ciphertext, append(ad, headerBytes(header)...))
}

func headerBytes(h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(h.DiffieHellmanPublicKey)+8)
	out = append(out, h.DiffieHellmanPublicKey...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.PreviousChainLength)
	out = append(out, b[:]...)
	binary.BigEndian.PutUint32(b[:], h.MessageIndex)
	out = append(out, b[:]...)
	return out
}

func x25519(priv domain.X25519Private, pub domain.X25519Public) ([32]byte, error) {
	res, err := curve25519.X25519(priv.Slice(), pub.Slice())
	var out [32]byte
	if err != nil {
		return out, err
	}
	copy(out[:], res)
	return out, nil
}

// HKDF-based KDFs with labels, per the Double Ratchet spec.
func kdfRootKey(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, []byte("DR|rk"))
	newRK = make([]byte, 32)
	ck = make([]byte, 32)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return
}

func kdfChainKey(ck []byte) (nextCK, mk []byte) {
	r := hkdf.New(sha256.New, ck, nil, []byte("DR|ck"))
	nextCK = make([]byte, 32)
	mk = make([]byte, 32)
	_, _ = io.ReadFull(r, nextCK)
	_, _ = io.ReadFull(r, mk)
	return
}

func kdfChainKeySend(st *domain.RatchetState) ([]byte, error) {
	if len(st.SendChainKey) == 0 {
		return nil, errChainUninitialised
	}
	nextCK, mk := kdfChainKey(st.SendChainKey)
	st.SendChainKey = nextCK
	return mk, nil
}

func kdfChainKeyRecv(st *domain.RatchetState) ([]byte, error) {
	if len(st.ReceiveChainKey) == 0 {
		return nil, errChainUninitialised
	}
	nextCK, mk := kdfChainKey(st.ReceiveChainKey)
	st.ReceiveChainKey = nextCK
	return mk, nil
}

func skippedKeyID(peer domain.X25519Public, n uint32) string {
	b := make([]byte, 32+4)
	copy(b, peer[:])
	binary.BigEndian.PutUint32(b[32:], n)
	return string(b)
}

// skipUntil derives and stores message keys up to pn with a hard cap.
func skipUntil(st *domain.RatchetState, pn uint32) {
	for st.ReceiveMessageIndex < pn {
		mk, err := kdfChainKeyRecv(st)
		if err != nil {
			return
		}
		if len(st.SkippedKeys) >= maxSkippedMK {
			for k := range st.SkippedKeys {
				delete(st.SkippedKeys, k)
				break
			}
		}
		st.SkippedKeys[skippedKeyID(st.PeerDiffieHellmanPublic, st.ReceiveMessageIndex)] = mk
		st.ReceiveMessageIndex++
	}
}

func equal32(a, b []byte) bool {
	if len(a) != 32 || len(b) != 32 {
		return false
	}
	var v byte
	for i := 0; i < 32; i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
