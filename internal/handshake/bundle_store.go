package handshake

import (
	"path/filepath"
	"sync"

	domain "bitchat/internal/domain"
)

const bundleCacheFile = "handshake_bundles.json"

// PreKeyBundleFileStore caches pre-key bundles fetched for peers so a
// repeat handshake attempt doesn't need the relay round trip.
type PreKeyBundleFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPreKeyBundleFileStore returns a PreKeyBundleFileStore rooted at dir.
func NewPreKeyBundleFileStore(dir string) *PreKeyBundleFileStore {
	return &PreKeyBundleFileStore{dir: dir}
}

func (s *PreKeyBundleFileStore) SavePreKeyBundle(bundle domain.PreKeyBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, bundleCacheFile)
	m := map[domain.PeerAddress]domain.PreKeyBundle{}
	_ = readJSON(path, &m)
	m[bundle.Peer] = bundle
	return writeJSON(path, m, 0o600)
}

func (s *PreKeyBundleFileStore) LoadPreKeyBundle(peer domain.PeerAddress) (domain.PreKeyBundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, bundleCacheFile)
	m := map[domain.PeerAddress]domain.PreKeyBundle{}
	if err := readJSON(path, &m); err != nil {
		return domain.PreKeyBundle{}, false, err
	}
	b, ok := m[peer]
	return b, ok, nil
}

var _ domain.PreKeyBundleStore = (*PreKeyBundleFileStore)(nil)
