package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/campus-api/internal/models"
	"github.com/noah-isme/campus-api/pkg/storage"
)

const tokensFile = "tokens.json"

// TokenStore persists issued access tokens.
type TokenStore interface {
	Put(ctx context.Context, token string, record models.Token) error
	Get(ctx context.Context, token string) (*models.Token, error)
	Delete(ctx context.Context, token string) error
}

// TokenFileRepository keeps every token in a single JSON map.
type TokenFileRepository struct {
	mu sync.Mutex
	fs *storage.LocalStorage
}

// NewTokenFileRepository ensures tokens.json exists.
func NewTokenFileRepository(fs *storage.LocalStorage) (*TokenFileRepository, error) {
	if err := fs.EnsureJSON(tokensFile, map[string]models.Token{}); err != nil {
		return nil, err
	}
	return &TokenFileRepository{fs: fs}, nil
}

func (r *TokenFileRepository) load() (map[string]models.Token, error) {
	tokens := map[string]models.Token{}
	if err := r.fs.ReadJSON(tokensFile, &tokens); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return nil, err
	}
	if tokens == nil {
		tokens = map[string]models.Token{}
	}
	return tokens, nil
}

// Put stores the token record.
func (r *TokenFileRepository) Put(_ context.Context, token string, record models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens, err := r.load()
	if err != nil {
		return err
	}
	tokens[token] = record
	return r.fs.WriteJSON(tokensFile, tokens)
}

// Get returns the record for token or ErrNotFound.
func (r *TokenFileRepository) Get(_ context.Context, token string) (*models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens, err := r.load()
	if err != nil {
		return nil, err
	}
	record, ok := tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	return &record, nil
}

// Delete removes token. Unknown tokens are ignored.
func (r *TokenFileRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := tokens[token]; !ok {
		return nil
	}
	delete(tokens, token)
	return r.fs.WriteJSON(tokensFile, tokens)
}
