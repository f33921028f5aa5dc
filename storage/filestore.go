// Package storage provides persistent TokenStore implementations.
package storage

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/dashlite/go-admin-client/session"
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var _ session.TokenStore = (*FileStore)(nil)

// FileStore persists the session record as a single JSON document on disk,
// surviving process restarts the way the browser's local storage survives
// reloads. Writes go through a temp file and a rename, so a reader never
// observes a half-written document.
type FileStore struct {
	path       string
	passphrase string
	lock       sync.Mutex
}

// record mirrors the persisted key layout shared with other clients of the
// same API.
type record struct {
	AccessToken  string        `json:"auth_access_token,omitempty"`
	RefreshToken string        `json:"auth_refresh_token,omitempty"`
	User         *session.User `json:"logged_user,omitempty"`
}

// FileStoreOption defines a function type to modify the FileStore.
type FileStoreOption func(*FileStore)

// WithPassphrase encrypts the document at rest: a scrypt-derived key seals it
// with secretbox. Tokens are bearer credentials, and some deployments cannot
// leave them in plaintext on shared disks.
func WithPassphrase(passphrase string) FileStoreOption {
	return func(fs *FileStore) {
		fs.passphrase = passphrase
	}
}

// NewFileStore creates a FileStore at the given path, creating the parent
// folder when needed.
func NewFileStore(path string, options ...FileStoreOption) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("[NewFileStore] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] create data folder")
	}

	fs := &FileStore{path: path}
	for _, opt := range options {
		opt(fs)
	}
	return fs, nil
}

func (fs *FileStore) SaveTokens(accessToken, refreshToken string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	rec := fs.read()
	rec.AccessToken = accessToken
	rec.RefreshToken = refreshToken
	return errors.Wrap(fs.write(rec), "[FileStore.SaveTokens]")
}

func (fs *FileStore) AccessToken() string {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.read().AccessToken
}

func (fs *FileStore) RefreshToken() string {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.read().RefreshToken
}

func (fs *FileStore) SaveUser(user *session.User) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	rec := fs.read()
	rec.User = user
	return errors.Wrap(fs.write(rec), "[FileStore.SaveUser]")
}

func (fs *FileStore) User() *session.User {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.read().User
}

// Clear removes every persisted key at once by deleting the document.
func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove document")
	}
	return nil
}

// read fails soft: a missing, undecryptable or malformed document is an
// empty record.
func (fs *FileStore) read() record {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return record{}
	}

	if fs.passphrase != "" {
		data, err = fs.open(data)
		if err != nil {
			log.Err(err).Str("path", fs.path).Msg("Token store: cannot decrypt document, treating as empty")
			return record{}
		}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Err(err).Str("path", fs.path).Msg("Token store: malformed document, treating as empty")
		return record{}
	}
	return rec
}

func (fs *FileStore) write(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}

	if fs.passphrase != "" {
		data, err = fs.seal(data)
		if err != nil {
			return err
		}
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "write temp document")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "rename document")
	}
	return nil
}

// seal produces salt || nonce || box.
func (fs *FileStore) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "generate salt")
	}
	key, err := deriveKey(fs.passphrase, salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.Wrap(err, "generate nonce")
	}

	out := make([]byte, 0, saltLength+nonceLength+len(plaintext)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plaintext, &nonce, key), nil
}

func (fs *FileStore) open(data []byte) ([]byte, error) {
	if len(data) < saltLength+nonceLength {
		return nil, errors.New("sealed document too short")
	}
	key, err := deriveKey(fs.passphrase, data[:saltLength])
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	copy(nonce[:], data[saltLength:saltLength+nonceLength])

	plaintext, ok := secretbox.Open(nil, data[saltLength+nonceLength:], &nonce, key)
	if !ok {
		return nil, errors.New("sealed document failed to open")
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte) (*[keyLength]byte, error) {
	raw, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, errors.Wrap(err, "scrypt.Key")
	}
	var key [keyLength]byte
	copy(key[:], raw)
	return &key, nil
}
