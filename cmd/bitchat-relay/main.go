package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	domain "bitchat/internal/domain"
	"bitchat/internal/logging"
)

// store is the relay's entire state: a per-recipient envelope queue and a
// per-username canary. Lost on process exit, same as the teacher's
// in-memory prekey registry — this relay never sees plaintext or private
// keys, only ciphertext and the account canary.
type store struct {
	mu      sync.RWMutex
	queues  map[string][]domain.RelayEnvelope
	canary  map[string]string
}

func newStore() *store {
	return &store{
		queues: make(map[string][]domain.RelayEnvelope),
		canary: make(map[string]string),
	}
}

func (s *store) enqueue(env domain.RelayEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[env.ToPubKeyHex] = append(s.queues[env.ToPubKeyHex], env)
}

func (s *store) fetch(toPubKeyHex string) []domain.RelayEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.RelayEnvelope(nil), s.queues[toPubKeyHex]...)
}

func (s *store) canaryFor(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.canary[username]; ok {
		return c
	}
	c := randomCanary()
	s.canary[username] = c
	return c
}

func randomCanary() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

type server struct {
	store *store
	log   zerolog.Logger
}

func (srv *server) handleMsg(w http.ResponseWriter, r *http.Request) {
	pubKeyHex := strings.TrimPrefix(r.URL.Path, "/msg/")
	switch r.Method {
	case http.MethodPost:
		var env domain.RelayEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if env.Timestamp == 0 {
			env.Timestamp = time.Now().UnixMilli()
		}
		env.ToPubKeyHex = pubKeyHex
		srv.store.enqueue(env)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		envs := srv.store.fetch(pubKeyHex)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(envs)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (srv *server) handleCanary(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/account/")
	username := strings.TrimSuffix(path, "/canary")
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	canary := srv.store.canaryFor(username)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"canary": canary})
}

func (srv *server) logged(name string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		srv.log.Info().
			Str("handler", name).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("relay request")
	}
}

func main() {
	log := logging.New("info")
	srv := &server{store: newStore(), log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/msg/", srv.logged("msg", srv.handleMsg))
	mux.HandleFunc("/account/", srv.logged("canary", srv.handleCanary))

	log.Info().Str("addr", ":8080").Msg("relay listening")
	if err := http.ListenAndServe(":8080", mux); err != nil {
		log.Fatal().Err(err).Msg("relay server exited")
	}
}
