package handshake

import (
	"path/filepath"
	"sync"

	domain "bitchat/internal/domain"
)

const (
	signedPreKeysFile = "handshake_spk.json"
	oneTimeKeysFile    = "handshake_opk.json"
	preKeyMetaFile      = "handshake_prekey_meta.json"
)

// PreKeyFileStore persists signed and one-time pre-key material to disk.
type PreKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPreKeyFileStore returns a PreKeyFileStore rooted at dir.
func NewPreKeyFileStore(dir string) *PreKeyFileStore {
	return &PreKeyFileStore{dir: dir}
}

type signedPreKeyRecord struct {
	Priv domain.X25519Private `json:"priv"`
	Pub  domain.X25519Public  `json:"pub"`
	Sig  []byte               `json:"sig"`
}

type oneTimeKeyRecord struct {
	Priv domain.X25519Private `json:"priv"`
	Pub  domain.X25519Public  `json:"pub"`
}

type preKeyMetaRecord struct {
	CurrentSignedPreKeyID domain.SignedPreKeyID `json:"current_signed_pre_key_id"`
}

func (s *PreKeyFileStore) SaveSignedPreKey(id domain.SignedPreKeyID, priv domain.X25519Private, pub domain.X25519Public, sig []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, signedPreKeysFile)
	m := map[domain.SignedPreKeyID]signedPreKeyRecord{}
	_ = readJSON(path, &m)
	m[id] = signedPreKeyRecord{Priv: priv, Pub: pub, Sig: sig}
	return writeJSON(path, m, 0o600)
}

func (s *PreKeyFileStore) LoadSignedPreKey(id domain.SignedPreKeyID) (priv domain.X25519Private, pub domain.X25519Public, sig []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, signedPreKeysFile)
	m := map[domain.SignedPreKeyID]signedPreKeyRecord{}
	if err = readJSON(path, &m); err != nil {
		return priv, pub, nil, false, err
	}
	r, ok := m[id]
	if !ok {
		return priv, pub, nil, false, nil
	}
	return r.Priv, r.Pub, r.Sig, true, nil
}

func (s *PreKeyFileStore) SaveOneTimePreKeys(pairs []domain.OneTimePreKeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, oneTimeKeysFile)
	m := map[domain.OneTimePreKeyID]oneTimeKeyRecord{}
	_ = readJSON(path, &m)
	for _, p := range pairs {
		m[p.ID] = oneTimeKeyRecord{Priv: p.Priv, Pub: p.Pub}
	}
	return writeJSON(path, m, 0o600)
}

func (s *PreKeyFileStore) ConsumeOneTimePreKey(id domain.OneTimePreKeyID) (priv domain.X25519Private, pub domain.X25519Public, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, oneTimeKeysFile)
	m := map[domain.OneTimePreKeyID]oneTimeKeyRecord{}
	if err = readJSON(path, &m); err != nil {
		return priv, pub, false, err
	}
	r, ok := m[id]
	if !ok {
		return priv, pub, false, nil
	}
	delete(m, id)
	if err = writeJSON(path, m, 0o600); err != nil {
		return priv, pub, false, err
	}
	return r.Priv, r.Pub, true, nil
}

func (s *PreKeyFileStore) ListOneTimePreKeyPublics() ([]domain.OneTimePreKeyPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, oneTimeKeysFile)
	m := map[domain.OneTimePreKeyID]oneTimeKeyRecord{}
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}

	out := make([]domain.OneTimePreKeyPublic, 0, len(m))
	for id, r := range m {
		out = append(out, domain.OneTimePreKeyPublic{ID: id, Pub: r.Pub})
	}
	return out, nil
}

func (s *PreKeyFileStore) SetCurrentSignedPreKeyID(id domain.SignedPreKeyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, preKeyMetaFile)
	return writeJSON(path, preKeyMetaRecord{CurrentSignedPreKeyID: id}, 0o600)
}

func (s *PreKeyFileStore) CurrentSignedPreKeyID() (domain.SignedPreKeyID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, preKeyMetaFile)
	var meta preKeyMetaRecord
	if err := readJSON(path, &meta); err != nil {
		return "", false, err
	}
	if meta.CurrentSignedPreKeyID == "" {
		return "", false, nil
	}
	return meta.CurrentSignedPreKeyID, true, nil
}

var _ domain.PreKeyStore = (*PreKeyFileStore)(nil)
