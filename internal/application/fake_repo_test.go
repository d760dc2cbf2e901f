package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
)

// memRepo is an in-memory UserRepository with injectable failures.
type memRepo struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*entity.User
	calls  int
	getErr error
	updErr error
	lstErr error
	cntErr error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*entity.User{}}
}

func (m *memRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, x := range m.users {
		if x.Email == u.Email || x.Username == u.Username {
			return fmt.Errorf("create user: %w", repo.ErrDuplicate)
		}
	}
	m.seq++
	u.ID = fmt.Sprintf("u%03d", m.seq)
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.updErr != nil {
		return m.updErr
	}
	if _, ok := m.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) matching(f repo.UserFilter) []*entity.User {
	out := make([]*entity.User, 0, len(m.users))
	for _, u := range m.users {
		if f.Deleted == nil || *f.Deleted == u.Deleted {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRepo) List(_ context.Context, f repo.UserFilter, skip, limit int64) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.lstErr != nil {
		return nil, m.lstErr
	}
	all := m.matching(f)
	if skip >= int64(len(all)) {
		return []*entity.User{}, nil
	}
	end := skip + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[skip:end], nil
}

func (m *memRepo) Count(_ context.Context, f repo.UserFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.cntErr != nil {
		return 0, m.cntErr
	}
	return int64(len(m.matching(f))), nil
}

type recordedJobs struct {
	jobs []any
	err  error
}

func (r *recordedJobs) PublishJSON(_ context.Context, body any) error {
	if r.err != nil {
		return r.err
	}
	r.jobs = append(r.jobs, body)
	return nil
}
