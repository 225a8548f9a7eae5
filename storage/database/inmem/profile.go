package inmemdb

import (
	"context"

	"github.com/KushalGupta-07/Smart-Admission-System/core"
	"github.com/KushalGupta-07/Smart-Admission-System/core/profile"
)

type profileRepository struct {
	db *DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, userID string, exec ...core.DBExecutor) (profile.Profile, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	p, ok := repo.db.profiles[userID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	res := *p
	if usr, ok := repo.db.users[userID]; ok {
		res.Email = usr.Email
	}
	return res, nil
}

func (repo *profileRepository) UpsertProfile(ctx context.Context, p profile.Profile, exec ...core.DBExecutor) (profile.Profile, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if orig, ok := repo.db.profiles[p.UserID]; ok {
		p.CreatedAt = orig.CreatedAt
	}
	if usr, ok := repo.db.users[p.UserID]; ok {
		p.Email = usr.Email
	}
	repo.db.profiles[p.UserID] = &p
	return p, nil
}
