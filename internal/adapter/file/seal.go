package file

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// envelope is the on-disk form of a sealed snapshot.
type envelope struct {
	V     int    `json:"v"`
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

type sealer struct {
	passphrase []byte
}

func newSealer(passphrase string) *sealer {
	return &sealer{passphrase: []byte(passphrase)}
}

func (s *sealer) key(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// seal encrypts plain with a fresh salt and nonce. The namespace is bound as
// additional data so a file copied to another namespace fails to open.
func (s *sealer) seal(namespace string, plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(s.key(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	env := envelope{
		V:     envelopeVersion,
		Salt:  salt,
		Nonce: nonce,
		Data:  aead.Seal(nil, nonce, plain, []byte(namespace)),
	}
	return json.Marshal(env)
}

func (s *sealer) open(namespace string, sealed []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, fmt.Errorf("not a sealed snapshot: %w", err)
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.V)
	}
	if len(env.Salt) != saltSize || len(env.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, errors.New("malformed envelope")
	}
	aead, err := chacha20poly1305.NewX(s.key(env.Salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, env.Nonce, env.Data, []byte(namespace))
	if err != nil {
		return nil, errors.New("wrong passphrase or tampered snapshot")
	}
	return plain, nil
}
