package repository

import (
	"context"
	"fmt"

	"urldash/internal/models"
)

type recordedQuery struct {
	dest string
	q    Query
}

// fakeStore is an in-memory DataStore that understands the handful of
// lookups the users and servers repositories issue and records every call.
type fakeStore struct {
	users   []*models.User
	servers []*models.Server

	finds    []recordedQuery
	firsts   []recordedQuery
	counts   []recordedQuery
	created  []any
	saved    []any
	deleted  []any
	cleared  []string
	appended []any

	commits   int
	rollbacks int

	findErr  error
	firstErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) addUser(publicID string, role models.Role) *models.User {
	u := &models.User{ID: uint(len(f.users) + 1), PublicID: publicID, Username: publicID, Role: role}
	f.users = append(f.users, u)
	return u
}

func (f *fakeStore) addServer(publicID string, owners ...*models.User) *models.Server {
	s := &models.Server{
		ID:       uint(len(f.servers) + 1),
		PublicID: publicID,
		Name:     "Server " + publicID,
		BaseURL:  "https://" + publicID + ".example.com",
		APIKey:   "key-" + publicID,
	}
	for _, o := range owners {
		s.Users = append(s.Users, *o)
	}
	f.servers = append(f.servers, s)
	return s
}

func condArg(q Query, expr string) (any, bool) {
	for _, c := range q.Where {
		if c.Expr == expr && len(c.Args) > 0 {
			return c.Args[0], true
		}
	}
	return nil, false
}

func ownedBy(s *models.Server, userID string) bool {
	for _, u := range s.Users {
		if u.PublicID == userID {
			return true
		}
	}
	return false
}

func (f *fakeStore) matchServers(q Query) []models.Server {
	var out []models.Server
	owner, byOwner := condArg(q, ownedByUser)
	id, byID := condArg(q, "servers.public_id = ?")
	ids, byIDs := condArg(q, "servers.public_id IN ?")
	for _, s := range f.servers {
		if byOwner && !ownedBy(s, owner.(string)) {
			continue
		}
		if byID && s.PublicID != id.(string) {
			continue
		}
		if byIDs {
			found := false
			for _, want := range ids.([]string) {
				if want == s.PublicID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if len(q.AnyOf) > 0 {
			// Search terms are not evaluated; the fake never matches them.
			continue
		}
		out = append(out, *s)
	}
	return out
}

func (f *fakeStore) Find(_ context.Context, dest any, q Query) error {
	f.finds = append(f.finds, recordedQuery{dest: fmt.Sprintf("%T", dest), q: q})
	if f.findErr != nil {
		return f.findErr
	}
	switch d := dest.(type) {
	case *[]models.Server:
		*d = append(*d, f.matchServers(q)...)
	case *[]models.User:
		for _, u := range f.users {
			*d = append(*d, *u)
		}
	}
	return nil
}

func (f *fakeStore) First(_ context.Context, dest any, q Query) error {
	f.firsts = append(f.firsts, recordedQuery{dest: fmt.Sprintf("%T", dest), q: q})
	if f.firstErr != nil {
		return f.firstErr
	}
	switch d := dest.(type) {
	case *models.User:
		id, _ := condArg(q, "users.public_id = ?")
		for _, u := range f.users {
			if u.PublicID == id {
				*d = *u
				return nil
			}
		}
	case *models.Server:
		if found := f.matchServers(q); len(found) > 0 {
			*d = found[0]
			return nil
		}
	}
	return ErrNoRows
}

func (f *fakeStore) Count(_ context.Context, model any, q Query) (int64, error) {
	f.counts = append(f.counts, recordedQuery{dest: fmt.Sprintf("%T", model), q: q})
	if _, ok := model.(*models.User); ok {
		return int64(len(f.users)), nil
	}
	return 0, nil
}

func (f *fakeStore) Create(_ context.Context, value any) error {
	f.created = append(f.created, value)
	switch v := value.(type) {
	case *models.User:
		v.ID = uint(len(f.users) + 1)
		f.users = append(f.users, v)
	case *models.Server:
		v.ID = uint(len(f.servers) + 1)
		f.servers = append(f.servers, v)
	}
	return nil
}

func (f *fakeStore) Save(_ context.Context, value any) error {
	f.saved = append(f.saved, value)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, value any) error {
	f.deleted = append(f.deleted, value)
	return nil
}

func (f *fakeStore) AppendAssociation(_ context.Context, _ any, name string, values any) error {
	f.appended = append(f.appended, values)
	return nil
}

func (f *fakeStore) ClearAssociation(_ context.Context, _ any, name string) error {
	f.cleared = append(f.cleared, name)
	return nil
}

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx DataStore) error) error {
	if err := fn(f); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func (f *fakeStore) findsOf(dest string) []recordedQuery {
	var out []recordedQuery
	for _, rq := range f.finds {
		if rq.dest == dest {
			out = append(out, rq)
		}
	}
	return out
}

func (f *fakeStore) mutations() int {
	return len(f.created) + len(f.saved) + len(f.deleted) + len(f.cleared) + len(f.appended)
}
