package handshake

import (
	"path/filepath"
	"sync"

	domain "bitchat/internal/domain"
)

const ratchetConversationsFile = "handshake_ratchets.json"

// RatchetFileStore persists per-peer Double Ratchet state to disk.
type RatchetFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewRatchetFileStore returns a RatchetFileStore rooted at dir.
func NewRatchetFileStore(dir string) *RatchetFileStore {
	return &RatchetFileStore{dir: dir}
}

func (s *RatchetFileStore) SaveConversation(peer domain.PeerAddress, conv domain.RatchetConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, ratchetConversationsFile)
	m := map[domain.PeerAddress]domain.RatchetConversation{}
	_ = readJSON(path, &m)
	m[peer] = conv
	return writeJSON(path, m, 0o600)
}

func (s *RatchetFileStore) LoadConversation(peer domain.PeerAddress) (domain.RatchetConversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, ratchetConversationsFile)
	m := map[domain.PeerAddress]domain.RatchetConversation{}
	if err := readJSON(path, &m); err != nil {
		return domain.RatchetConversation{}, false, err
	}
	c, ok := m[peer]
	return c, ok, nil
}

var _ domain.RatchetStore = (*RatchetFileStore)(nil)
