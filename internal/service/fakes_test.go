package service

import (
	"context"
	"errors"
	"etape/training-hub/internal/domain"
	"etape/training-hub/internal/repository"
	"etape/training-hub/internal/storage"
	"etape/training-hub/internal/strava"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBoom = errors.New("boom")

// --- users ---

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{users: map[primitive.ObjectID]*domain.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if strings.EqualFold(x.Email, u.Email) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.Email = strings.ToLower(u.Email)
	cp := *u
	f.users[u.ID] = &cp
	return u.ID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) SearchCoaches(_ context.Context, q string, _ repository.Page) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	q = strings.ToLower(q)
	for _, u := range f.users {
		if !u.CanCoach() || !u.CanSignIn() {
			continue
		}
		if strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(u.Email, q) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id primitive.ObjectID, role domain.Role) error {
	return f.update(id, func(u *domain.User) { u.Role = role })
}

func (f *fakeUsers) SetLocked(_ context.Context, id primitive.ObjectID, locked bool) error {
	return f.update(id, func(u *domain.User) { u.IsLocked = locked })
}

func (f *fakeUsers) update(id primitive.ObjectID, fn func(*domain.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if role == "" || u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) CountSignInAdmins(_ context.Context, exclude primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.IsAdmin() && u.CanSignIn() && u.ID != exclude {
			n++
		}
	}
	return n, nil
}

// --- requests and assignments ---

type fakeRequests struct {
	mu   sync.Mutex
	reqs []*domain.TrainerRequest
}

func (f *fakeRequests) Create(_ context.Context, r *domain.TrainerRequest) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = primitive.NewObjectID()
	cp := *r
	f.reqs = append(f.reqs, &cp)
	return r.ID, nil
}

func (f *fakeRequests) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequests) FindPending(_ context.Context, athleteID, trainerID primitive.ObjectID) (*domain.TrainerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.AthleteID == athleteID && r.TrainerID == trainerID && r.IsPending() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequests) list(match func(*domain.TrainerRequest) bool) []domain.TrainerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TrainerRequest
	for _, r := range f.reqs {
		if match(r) {
			out = append(out, *r)
		}
	}
	return out
}

func (f *fakeRequests) ListByTrainer(_ context.Context, id primitive.ObjectID) ([]domain.TrainerRequest, error) {
	return f.list(func(r *domain.TrainerRequest) bool { return r.TrainerID == id }), nil
}

func (f *fakeRequests) ListByAthlete(_ context.Context, id primitive.ObjectID) ([]domain.TrainerRequest, error) {
	return f.list(func(r *domain.TrainerRequest) bool { return r.AthleteID == id }), nil
}

func (f *fakeRequests) Resolve(_ context.Context, req *domain.TrainerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reqs {
		if r.ID == req.ID && r.IsPending() {
			r.Status = req.Status
			r.RespondedAt = req.RespondedAt
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeAssignments struct {
	mu   sync.Mutex
	list []*domain.TrainerAssignment
}

func (f *fakeAssignments) assign(trainerID, athleteID primitive.ObjectID) *domain.TrainerAssignment {
	a := &domain.TrainerAssignment{ID: primitive.NewObjectID(), TrainerID: trainerID, AthleteID: athleteID, IsActive: true}
	f.list = append(f.list, a)
	return a
}

func (f *fakeAssignments) Create(_ context.Context, a *domain.TrainerAssignment) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	cp := *a
	f.list = append(f.list, &cp)
	return a.ID, nil
}

func (f *fakeAssignments) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainerAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.list {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAssignments) FindActive(_ context.Context, trainerID, athleteID primitive.ObjectID) (*domain.TrainerAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.list {
		if a.IsActive && a.TrainerID == trainerID && a.AthleteID == athleteID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAssignments) filter(match func(*domain.TrainerAssignment) bool) []domain.TrainerAssignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TrainerAssignment
	for _, a := range f.list {
		if match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (f *fakeAssignments) ListActiveByTrainer(_ context.Context, id primitive.ObjectID) ([]domain.TrainerAssignment, error) {
	return f.filter(func(a *domain.TrainerAssignment) bool { return a.IsActive && a.TrainerID == id }), nil
}

func (f *fakeAssignments) ListActiveByAthlete(_ context.Context, id primitive.ObjectID) ([]domain.TrainerAssignment, error) {
	return f.filter(func(a *domain.TrainerAssignment) bool { return a.IsActive && a.AthleteID == id }), nil
}

func (f *fakeAssignments) List(_ context.Context, activeOnly bool) ([]domain.TrainerAssignment, error) {
	return f.filter(func(a *domain.TrainerAssignment) bool { return !activeOnly || a.IsActive }), nil
}

func (f *fakeAssignments) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.list {
		if a.ID == id {
			a.IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAssignments) DeactivateForUser(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.list {
		if a.Involves(id) {
			a.IsActive = false
		}
	}
	return nil
}

func (f *fakeAssignments) CountActive(ctx context.Context) (int64, error) {
	list, _ := f.List(ctx, true)
	return int64(len(list)), nil
}

// --- plans ---

type fakePlans struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*domain.TrainingPlan
	fail  error // returned by Create when set
}

func newFakePlans() *fakePlans {
	return &fakePlans{plans: map[primitive.ObjectID]*domain.TrainingPlan{}}
}

func (f *fakePlans) Create(_ context.Context, p *domain.TrainingPlan) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return primitive.NilObjectID, f.fail
	}
	p.ID = primitive.NewObjectID()
	cp := *p
	f.plans[p.ID] = &cp
	return p.ID, nil
}

func (f *fakePlans) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlans) List(_ context.Context, filter repository.PlanFilter) ([]domain.TrainingPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TrainingPlan
	for _, p := range f.plans {
		if filter.TrainerID != nil && p.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.AthleteID != nil && p.AthleteID != *filter.AthleteID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlans) FindActiveForAthlete(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.plans {
		if p.AthleteID == id && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePlans) Update(_ context.Context, p *domain.TrainingPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakePlans) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.plans, id)
	return nil
}

func (f *fakePlans) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.plans)), nil
}

// --- owned records ---

type recordPtr[T any] interface {
	*T
	domain.Record
}

// fakeOwned keeps records in insertion order. date, when set, drives range queries.
type fakeOwned[T any, PT recordPtr[T]] struct {
	mu        sync.Mutex
	docs      []*T
	date      func(*T) time.Time
	failAfter int // Create fails once this many records exist; 0 disables
}

func (f *fakeOwned[T, PT]) Create(_ context.Context, doc *T) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && len(f.docs) >= f.failAfter {
		return primitive.NilObjectID, errBoom
	}
	PT(doc).Stamp(time.Now().UTC())
	cp := *doc
	f.docs = append(f.docs, &cp)
	return PT(doc).RecordID(), nil
}

func (f *fakeOwned[T, PT]) GetByID(_ context.Context, id primitive.ObjectID) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if PT(d).RecordID() == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOwned[T, PT]) ListByOwners(_ context.Context, owners []primitive.ObjectID, _ repository.Page) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []T
	for i := len(f.docs) - 1; i >= 0; i-- {
		d := f.docs[i]
		if owners == nil || containsID(owners, PT(d).Owner()) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeOwned[T, PT]) ListByOwnerBetween(_ context.Context, owner primitive.ObjectID, from, to time.Time) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []T
	for _, d := range f.docs {
		if PT(d).Owner() != owner {
			continue
		}
		if f.date != nil {
			at := f.date(d)
			if at.Before(from) || !at.Before(to) {
				continue
			}
		}
		out = append(out, *d)
	}
	if f.date != nil {
		sort.SliceStable(out, func(i, j int) bool { return f.date(&out[i]).Before(f.date(&out[j])) })
	}
	return out, nil
}

func (f *fakeOwned[T, PT]) Replace(_ context.Context, doc *T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.docs {
		if PT(d).RecordID() == PT(doc).RecordID() {
			PT(doc).Stamp(time.Now().UTC())
			cp := *doc
			f.docs[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeOwned[T, PT]) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.docs {
		if PT(d).RecordID() == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeOwned[T, PT]) DeleteByOwner(_ context.Context, owner primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.docs[:0]
	var n int64
	for _, d := range f.docs {
		if PT(d).Owner() == owner {
			n++
			continue
		}
		kept = append(kept, d)
	}
	f.docs = kept
	return n, nil
}

func (f *fakeOwned[T, PT]) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.docs)), nil
}

func (f *fakeOwned[T, PT]) countOwner(owner primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.docs {
		if PT(d).Owner() == owner {
			n++
		}
	}
	return n
}

// --- documents and storage ---

type fakeDocs struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*domain.TrainingDocument
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[primitive.ObjectID]*domain.TrainingDocument{}}
}

func (f *fakeDocs) Create(_ context.Context, d *domain.TrainingDocument) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = primitive.NewObjectID()
	cp := *d
	f.docs[d.ID] = &cp
	return d.ID, nil
}

func (f *fakeDocs) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocs) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]domain.TrainingDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TrainingDocument
	for _, d := range f.docs {
		if d.PlanID == planID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocs) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) PutObject(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) GetObject(_ context.Context, key string) (*storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Body: io.NopCloser(strings.NewReader(string(data))), Size: int64(len(data))}, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// --- invites ---

type fakeInvites struct {
	mu      sync.Mutex
	invites []*domain.InviteToken
}

func (f *fakeInvites) Create(_ context.Context, in *domain.InviteToken) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in.ID = primitive.NewObjectID()
	cp := *in
	f.invites = append(f.invites, &cp)
	return in.ID, nil
}

func (f *fakeInvites) find(match func(*domain.InviteToken) bool) (*domain.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.invites {
		if match(in) {
			cp := *in
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeInvites) GetByID(_ context.Context, id primitive.ObjectID) (*domain.InviteToken, error) {
	return f.find(func(in *domain.InviteToken) bool { return in.ID == id })
}

func (f *fakeInvites) GetByToken(_ context.Context, token string) (*domain.InviteToken, error) {
	return f.find(func(in *domain.InviteToken) bool { return in.Token == token })
}

func (f *fakeInvites) List(context.Context) ([]domain.InviteToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InviteToken
	for _, in := range f.invites {
		out = append(out, *in)
	}
	return out, nil
}

func (f *fakeInvites) Deactivate(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.invites {
		if in.ID == id {
			in.IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeInvites) MarkUsed(_ context.Context, id, userID primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.invites {
		if in.ID == id && in.UsedAt == nil {
			in.UsedAt = &at
			in.UsedBy = &userID
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- messages ---

type fakeMessages struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (f *fakeMessages) Create(_ context.Context, m *domain.Message) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = primitive.NewObjectID()
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return m.ID, nil
}

func (f *fakeMessages) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// newestFirst returns matching messages ordered by CreatedAt descending.
func (f *fakeMessages) newestFirst(match func(*domain.Message) bool) []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.msgs {
		if match(m) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeMessages) Conversations(_ context.Context, id primitive.ObjectID) ([]repository.ConversationSummary, error) {
	msgs := f.newestFirst(func(m *domain.Message) bool { return m.SenderID == id || m.RecipientID == id })
	index := map[primitive.ObjectID]int{}
	out := []repository.ConversationSummary{}
	for _, m := range msgs {
		other := m.Counterparty(id)
		i, ok := index[other]
		if !ok {
			i = len(out)
			index[other] = i
			out = append(out, repository.ConversationSummary{UserID: other, Last: m})
		}
		if m.RecipientID == id && !m.IsRead {
			out[i].UnreadCount++
		}
	}
	return out, nil
}

func (f *fakeMessages) ListBetween(_ context.Context, a, b primitive.ObjectID, _ repository.Page) ([]domain.Message, error) {
	return f.newestFirst(func(m *domain.Message) bool {
		return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
	}), nil
}

func (f *fakeMessages) MarkRead(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ID == id {
			m.IsRead, m.ReadAt = true, &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeMessages) MarkReadFrom(_ context.Context, recipient, sender primitive.ObjectID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.RecipientID == recipient && m.SenderID == sender && !m.IsRead {
			m.IsRead, m.ReadAt = true, &at
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) CountUnread(_ context.Context, recipient primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.msgs {
		if m.RecipientID == recipient && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// --- integrations ---

type fakeIntegrations struct {
	mu   sync.Mutex
	list []*domain.Integration
}

func (f *fakeIntegrations) Get(_ context.Context, userID primitive.ObjectID, provider string) (*domain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.list {
		if in.UserID == userID && in.Provider == provider {
			cp := *in
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeIntegrations) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Integration
	for _, in := range f.list {
		if in.UserID == userID {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (f *fakeIntegrations) Upsert(_ context.Context, in *domain.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.list {
		if x.UserID == in.UserID && x.Provider == in.Provider {
			in.ID = x.ID
			cp := *in
			f.list[i] = &cp
			return nil
		}
	}
	in.ID = primitive.NewObjectID()
	cp := *in
	f.list = append(f.list, &cp)
	return nil
}

func (f *fakeIntegrations) SetLastSync(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, in := range f.list {
		if in.ID == id {
			in.LastSync = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeIntegrations) Delete(_ context.Context, userID primitive.ObjectID, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, in := range f.list {
		if in.UserID == userID && in.Provider == provider {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeActivities struct {
	mu   sync.Mutex
	list []domain.Activity
}

func (f *fakeActivities) Create(_ context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	f.list = append(f.list, *a)
	return a.ID, nil
}

func (f *fakeActivities) ExistsExternal(_ context.Context, userID primitive.ObjectID, source, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.list {
		if a.UserID == userID && a.Source == source && a.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeActivities) List(_ context.Context, userID primitive.ObjectID, filter domain.ActivityFilter) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Activity
	for _, a := range f.list {
		if a.UserID == userID && (filter.ActivityType == "" || a.ActivityType == filter.ActivityType) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeStates struct {
	mu     sync.Mutex
	states map[string]string
}

func (f *fakeStates) Save(_ context.Context, state, userID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states == nil {
		f.states = map[string]string{}
	}
	f.states[state] = userID
	return nil
}

func (f *fakeStates) Consume(_ context.Context, state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.states[state]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(f.states, state)
	return userID, nil
}

type fakeStrava struct {
	activities []domain.Activity
	refreshed  int
}

func (f *fakeStrava) Enabled() bool { return true }

func (f *fakeStrava) AuthCodeURL(state string) (string, error) {
	return "https://strava.test/authorize?state=" + state, nil
}

func (f *fakeStrava) Exchange(_ context.Context, code string) (*strava.Token, error) {
	if code != "good-code" {
		return nil, errBoom
	}
	return &strava.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(6 * time.Hour), AthleteID: "777"}, nil
}

func (f *fakeStrava) Refresh(_ context.Context, _ string) (*strava.Token, error) {
	f.refreshed++
	return &strava.Token{AccessToken: "at2", RefreshToken: "rt2", Expiry: time.Now().Add(6 * time.Hour)}, nil
}

func (f *fakeStrava) ListActivities(_ context.Context, _ string, userID primitive.ObjectID, _ time.Time) ([]domain.Activity, error) {
	out := make([]domain.Activity, len(f.activities))
	copy(out, f.activities)
	for i := range out {
		out[i].UserID = userID
	}
	return out, nil
}

// --- helpers ---

func athlete(name string) *domain.User {
	return &domain.User{ID: primitive.NewObjectID(), FullName: name, Email: strings.ToLower(name) + "@example.com", Role: domain.RoleAthlete, IsActive: true}
}

func trainer(name string) *domain.User {
	u := athlete(name)
	u.Role = domain.RoleTrainer
	return u
}

func admin(name string) *domain.User {
	u := athlete(name)
	u.Role = domain.RoleAdmin
	return u
}

func actorOf(u *domain.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
