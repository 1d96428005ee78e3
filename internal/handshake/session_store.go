package handshake

import (
	"path/filepath"
	"sync"

	domain "bitchat/internal/domain"
)

const handshakeSessionsFile = "handshake_sessions.json"

// HandshakeSessionFileStore persists established X3DH sessions to disk, so
// a reconnect to a peer skips the X3DH step and reuses the derived root
// key to seed the Double Ratchet.
type HandshakeSessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewHandshakeSessionFileStore returns a HandshakeSessionFileStore rooted at dir.
func NewHandshakeSessionFileStore(dir string) *HandshakeSessionFileStore {
	return &HandshakeSessionFileStore{dir: dir}
}

func (s *HandshakeSessionFileStore) SaveSession(peer domain.PeerAddress, session domain.HandshakeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, handshakeSessionsFile)
	m := map[domain.PeerAddress]domain.HandshakeSession{}
	_ = readJSON(path, &m)
	m[peer] = session
	return writeJSON(path, m, 0o600)
}

func (s *HandshakeSessionFileStore) LoadSession(peer domain.PeerAddress) (domain.HandshakeSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, handshakeSessionsFile)
	m := map[domain.PeerAddress]domain.HandshakeSession{}
	if err := readJSON(path, &m); err != nil {
		return domain.HandshakeSession{}, false, err
	}
	session, ok := m[peer]
	return session, ok, nil
}

var _ domain.HandshakeSessionStore = (*HandshakeSessionFileStore)(nil)
