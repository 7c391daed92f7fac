package memory

import (
	"context"
	"fmt"

	"github.com/example/xiaoyuanbao/internal/datamodels/user"
	"github.com/example/xiaoyuanbao/internal/idgen"
)

type userRepo struct {
	guard
}

func (r *userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	defer r.lock()()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByIDs(_ context.Context, ids []string) (map[string]*user.User, error) {
	defer r.lock()()
	out := make(map[string]*user.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out[id] = summaryUser(u)
		}
	}
	return out, nil
}

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	defer r.lock()()
	if u.ID == "" {
		u.ID = idgen.New()
	}
	if _, ok := r.s.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	for _, other := range r.s.users {
		if u.Phone != "" && other.Phone == u.Phone {
			return fmt.Errorf("phone %s already registered", u.Phone)
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *userRepo) CreateSchool(_ context.Context, sc *user.School) error {
	defer r.lock()()
	if sc.ID == "" {
		sc.ID = idgen.New()
	}
	cp := *sc
	r.s.schools[sc.ID] = &cp
	return nil
}
