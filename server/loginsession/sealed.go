package loginsession

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-matchmaking-backoffice/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedRepo encrypts tokens before handing sessions to the wrapped repo,
// so a leaked store does not leak API credentials.
type SealedRepo struct {
	repo Repo
	key  [32]byte
}

var _ Repo = (*SealedRepo)(nil)

// NewSealedRepo derives the sealing key from secret; secret must not be empty
func NewSealedRepo(repo Repo, secret string) (*SealedRepo, error) {
	if secret == "" {
		return nil, fmt.Errorf("[NewSealedRepo] secret is required")
	}
	return &SealedRepo{repo: repo, key: sha256.Sum256([]byte(secret))}, nil
}

func (r *SealedRepo) Upsert(ctx context.Context, sessionID string, session Session) error {
	sealed, err := r.seal(session.Token)
	if err != nil {
		return err
	}
	session.Token = sealed
	return r.repo.Upsert(ctx, sessionID, session)
}

func (r *SealedRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	session, err := r.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	token, err := r.open(session.Token)
	if err != nil {
		// A token sealed with a rotated secret is as good as no token
		return Session{}, errors.Join(errors.ErrSlotEmpty, err)
	}
	session.Token = token
	return session, nil
}

func (r *SealedRepo) Delete(ctx context.Context, sessionID string) error {
	return r.repo.Delete(ctx, sessionID)
}

func (r *SealedRepo) seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("[SealedRepo.seal] nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &r.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (r *SealedRepo) open(sealed string) (string, error) {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("[SealedRepo.open] decode: %w", err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("[SealedRepo.open] sealed token too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &r.key)
	if !ok {
		return "", fmt.Errorf("[SealedRepo.open] authentication failed")
	}
	return string(plain), nil
}
