package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"Aidmap-App/internal/domain/model"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop()

// txParticipant トランザクションの巻き戻し対象。snapshotは復元用の関数を返す
type txParticipant interface {
	snapshot() func()
}

// fakeTx fnがエラーを返した場合、参加者の状態を開始前に戻す
type fakeTx struct {
	calls        int
	rollbacks    int
	participants []txParticipant
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	restores := make([]func(), 0, len(f.participants))
	for _, p := range f.participants {
		restores = append(restores, p.snapshot())
	}
	if err := fn(ctx); err != nil {
		f.rollbacks++
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeLocationRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*model.Location
	err    error
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{items: map[int64]*model.Location{}}
}

func (r *fakeLocationRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[int64]*model.Location, len(r.items))
	for id, loc := range r.items {
		cp := *loc
		saved[id] = &cp
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.items = saved
		r.mu.Unlock()
	}
}

func (r *fakeLocationRepo) CreateIfAbsent(_ context.Context, loc *model.Location) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, l := range r.items {
		if l.Position == loc.Position {
			return false, nil
		}
	}
	r.nextID++
	loc.ID = r.nextID
	loc.CreatedAt = time.Now()
	cp := *loc
	r.items[loc.ID] = &cp
	return true, nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id int64) (*model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLocationRepo) GetByCoordinates(_ context.Context, lat, lng float64) (*model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.Position.Lat == lat && l.Position.Lng == lng {
			cp := *l
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeLocationRepo) sorted(pred func(*model.Location) bool) []model.Location {
	var out []model.Location
	for _, l := range r.items {
		if pred(l) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *fakeLocationRepo) CountPending(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sorted(func(l *model.Location) bool { return l.Status == model.StatusAwaitingReview })), nil
}

func (r *fakeLocationRepo) ListPending(_ context.Context, limit, offset int) ([]model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(l *model.Location) bool { return l.Status == model.StatusAwaitingReview && l.ReportedBy == nil })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeLocationRepo) Assign(_ context.Context, locationID, userID int64, expires time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[locationID]
	if !ok || l.ReportedBy != nil {
		return false, nil
	}
	uid := userID
	l.ReportedBy = &uid
	l.ReportExpires = &expires
	return true, nil
}

func (r *fakeLocationRepo) RemoveAssignment(_ context.Context, locationID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[locationID]
	if !ok || l.ReportedBy == nil || *l.ReportedBy != userID || l.Status == model.StatusApproved {
		return false, nil
	}
	l.ReportedBy = nil
	l.ReportExpires = nil
	return true, nil
}

func (r *fakeLocationRepo) ListAssigned(_ context.Context, userID int64) ([]model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l *model.Location) bool {
		return l.ReportedBy != nil && *l.ReportedBy == userID && l.Status != model.StatusApproved
	}), nil
}

func (r *fakeLocationRepo) UpdateReport(_ context.Context, loc *model.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[loc.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *loc
	r.items[loc.ID] = &cp
	return nil
}

func (r *fakeLocationRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeLocationRepo) ListRecent(_ context.Context, status model.LocationStatus, limit int) ([]model.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(l *model.Location) bool { return l.Status == status })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeLocationRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.items))
	r.items = map[int64]*model.Location{}
	return n, nil
}

type fakeGeoIndexRepo struct {
	mu      sync.Mutex
	entries []model.GeoIndexEntry
	err     error
}

func (r *fakeGeoIndexRepo) snapshot() func() {
	r.mu.Lock()
	saved := append([]model.GeoIndexEntry(nil), r.entries...)
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.entries = saved
		r.mu.Unlock()
	}
}

func (r *fakeGeoIndexRepo) Create(_ context.Context, e *model.GeoIndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeGeoIndexRepo) FindByPrefix(_ context.Context, prefix string) ([]model.GeoIndexEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.GeoIndexEntry
	for _, e := range r.entries {
		if strings.HasPrefix(e.Geohash, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeGeoIndexRepo) FindByLocationID(_ context.Context, id int64) (*model.GeoIndexEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.LocationID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeGeoIndexRepo) UpdateStatus(_ context.Context, id int64, status model.LocationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].LocationID == id {
			r.entries[i].Status = status
			return nil
		}
	}
	return model.ErrNotFound
}

type fakeChangeLogRepo struct {
	mu    sync.Mutex
	items []model.ChangeLog
	err   error
}

func (r *fakeChangeLogRepo) snapshot() func() {
	r.mu.Lock()
	saved := append([]model.ChangeLog(nil), r.items...)
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.items = saved
		r.mu.Unlock()
	}
}

func (r *fakeChangeLogRepo) Create(_ context.Context, c *model.ChangeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	c.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *c)
	return nil
}

func (r *fakeChangeLogRepo) GetByID(_ context.Context, id int64) (*model.ChangeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeChangeLogRepo) ListByLocation(_ context.Context, locationID int64) ([]model.ChangeLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ChangeLog
	for _, c := range r.items {
		if c.LocationID == locationID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChangeLogRepo) SetVisibility(_ context.Context, id int64, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].IsVisible = visible
			return nil
		}
	}
	return model.ErrNotFound
}

func (r *fakeChangeLogRepo) SetVisibilityByUser(_ context.Context, userID int64, visible bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].SubmittedBy != nil && *r.items[i].SubmittedBy == userID {
			r.items[i].IsVisible = visible
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]*model.User
	touched map[int64]time.Time
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{items: map[int64]*model.User{}, touched: map[int64]time.Time{}}
	for _, u := range users {
		_ = r.Create(context.Background(), u)
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.items {
		if x.Email == u.Email {
			return model.ErrAlreadyExists
		}
	}
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(pred func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByRegistrationToken(_ context.Context, token string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.RegistrationToken != nil && *u.RegistrationToken == token })
}

func (r *fakeUserRepo) GetByRenewalToken(_ context.Context, token string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.PasswordRenewalToken != nil && *u.PasswordRenewalToken == token })
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[u.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *u
	r.items[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeUserRepo) TouchActivity(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched[id] = at
	return nil
}

func (r *fakeUserRepo) ListByOrganization(_ context.Context, orgID int64) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.items {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeZoneChecker struct {
	restricted  func(lng, lat float64) bool
	invalidated int
}

func (z *fakeZoneChecker) Intersects(_ context.Context, lng, lat float64) bool {
	if z.restricted == nil {
		return false
	}
	return z.restricted(lng, lat)
}

func (z *fakeZoneChecker) Invalidate() { z.invalidated++ }

type fakeGeocoder struct {
	reverseCalls int
	address      *model.Address
	reverseErr   error
	coords       map[string]model.LatLng
	boundary     orb.Geometry
	boundaryErr  error
}

func (g *fakeGeocoder) Reverse(_ context.Context, lat, lng float64) (*model.Address, error) {
	g.reverseCalls++
	if g.reverseErr != nil {
		return nil, g.reverseErr
	}
	if g.address == nil {
		return &model.Address{Address: "Soborna", StreetNumber: "1", City: "Vinnytsia", Country: "Ukraine", Index: "21000"}, nil
	}
	cp := *g.address
	return &cp, nil
}

func (g *fakeGeocoder) Geocode(_ context.Context, address, city string) (*model.LatLng, error) {
	p, ok := g.coords[address+"|"+city]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &p, nil
}

func (g *fakeGeocoder) BoundaryByName(_ context.Context, name string) (orb.Geometry, error) {
	if g.boundaryErr != nil {
		return nil, g.boundaryErr
	}
	return g.boundary, nil
}

type fakeZoneRepo struct {
	mu    sync.Mutex
	items []model.Zone
}

func (r *fakeZoneRepo) Create(_ context.Context, z *model.Zone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.items {
		if x.VerboseName == z.VerboseName {
			return model.ErrAlreadyExists
		}
	}
	z.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *z)
	return nil
}

func (r *fakeZoneRepo) GetByName(_ context.Context, name string) (*model.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, z := range r.items {
		if z.VerboseName == name {
			cp := z
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeZoneRepo) GetAll(_ context.Context) ([]model.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Zone(nil), r.items...), nil
}

func (r *fakeZoneRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, z := range r.items {
		if z.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type fakeOauthRepo struct {
	mu     sync.Mutex
	scopes []model.OauthScope
	roles  []model.OauthRole
}

func (r *fakeOauthRepo) GetOrCreateScope(_ context.Context, module, scope string) (*model.OauthScope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.scopes {
		if s.Scope == scope {
			cp := s
			return &cp, nil
		}
	}
	s := model.OauthScope{ID: int64(len(r.scopes) + 1), Module: module, Scope: scope}
	r.scopes = append(r.scopes, s)
	return &s, nil
}

func (r *fakeOauthRepo) ListScopes(_ context.Context) ([]model.OauthScope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OauthScope{}, r.scopes...), nil
}

func (r *fakeOauthRepo) GetScopesByIDs(_ context.Context, ids []int64) ([]model.OauthScope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.OauthScope{}
	for _, s := range r.scopes {
		for _, id := range ids {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeOauthRepo) GetScopesByNames(_ context.Context, names []string) ([]model.OauthScope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.OauthScope{}
	for _, s := range r.scopes {
		for _, n := range names {
			if s.Scope == n {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (r *fakeOauthRepo) CreateRole(_ context.Context, role *model.OauthRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.roles {
		if x.VerboseName == role.VerboseName {
			return model.ErrAlreadyExists
		}
	}
	role.ID = int64(len(r.roles) + 1)
	r.roles = append(r.roles, *role)
	return nil
}

func (r *fakeOauthRepo) findRole(pred func(model.OauthRole) bool) (*model.OauthRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.roles {
		if pred(x) {
			cp := x
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeOauthRepo) GetRoleByID(_ context.Context, id int64) (*model.OauthRole, error) {
	return r.findRole(func(x model.OauthRole) bool { return x.ID == id })
}

func (r *fakeOauthRepo) GetRoleByName(_ context.Context, name string) (*model.OauthRole, error) {
	return r.findRole(func(x model.OauthRole) bool { return x.VerboseName == name })
}

func (r *fakeOauthRepo) ListRoles(_ context.Context) ([]model.OauthRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.OauthRole{}, r.roles...), nil
}

func (r *fakeOauthRepo) UpdateRole(_ context.Context, role *model.OauthRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.roles {
		if r.roles[i].ID == role.ID {
			r.roles[i] = *role
			return nil
		}
	}
	return model.ErrNotFound
}

// seedRoles 既定のスコープとロールを登録したoauthリポジトリ
func seedRoles(t interface{ Helper() }) *fakeOauthRepo {
	t.Helper()
	r := &fakeOauthRepo{}
	ctx := context.Background()
	for _, s := range model.DefaultScopes {
		_, _ = r.GetOrCreateScope(ctx, strings.SplitN(s, ":", 2)[0], s)
	}
	add := func(name string, authority int, scopes []string) {
		list, _ := r.GetScopesByNames(ctx, scopes)
		_ = r.CreateRole(ctx, &model.OauthRole{VerboseName: name, Authority: authority, Scopes: list})
	}
	add(model.RolePlatformAdministrator, 100, model.DefaultScopes)
	add(model.RoleAidWorker, 10, model.AidWorkerScopes)
	add(model.RoleOrganizationalLeader, 50, model.OrganizationalLeaderScopes)
	return r
}

type fakeSessionRepo struct {
	mu    sync.Mutex
	items []model.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = int64(len(r.items) + 1)
	s.CreatedAt = time.Now()
	r.items = append(r.items, *s)
	return nil
}

func (r *fakeSessionRepo) GetByTokenID(_ context.Context, userID int64, tokenID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.UserID == userID && s.TokenID == tokenID {
			cp := s
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeSessionRepo) ListActive(_ context.Context, userID int64) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Session{}
	for _, s := range r.items {
		if s.UserID == userID && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, userID, sessionID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].UserID == userID && r.items[i].ID == sessionID {
			r.items[i].IsActive = false
			return true, nil
		}
	}
	return false, nil
}

type fakeOrganizationRepo struct {
	mu    sync.Mutex
	items []model.Organization
}

func (r *fakeOrganizationRepo) Create(_ context.Context, o *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.items {
		if x.Name == o.Name {
			return model.ErrAlreadyExists
		}
	}
	o.ID = int64(len(r.items) + 1)
	o.CreatedAt = time.Now()
	r.items = append(r.items, *o)
	return nil
}

func (r *fakeOrganizationRepo) find(pred func(model.Organization) bool) (*model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.items {
		if pred(o) {
			cp := o
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeOrganizationRepo) GetByID(_ context.Context, id int64) (*model.Organization, error) {
	return r.find(func(o model.Organization) bool { return o.ID == id })
}

func (r *fakeOrganizationRepo) GetByName(_ context.Context, name string) (*model.Organization, error) {
	return r.find(func(o model.Organization) bool { return o.Name == name })
}

func (r *fakeOrganizationRepo) List(_ context.Context, limit, offset int) ([]model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Organization{}
	for i := len(r.items) - 1; i >= 0; i-- {
		out = append(out, r.items[i])
	}
	if offset >= len(out) {
		return []model.Organization{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOrganizationRepo) SearchByPrefix(_ context.Context, prefix string) ([]model.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Organization{}
	for _, o := range r.items {
		if strings.HasPrefix(strings.ToLower(o.Name), prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrganizationRepo) Update(_ context.Context, o *model.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == o.ID {
			r.items[i] = *o
			return nil
		}
	}
	return model.ErrNotFound
}

func (r *fakeOrganizationRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type fakeActivityRepo struct {
	mu    sync.Mutex
	items []model.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, l *model.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *l)
	return nil
}

func (r *fakeActivityRepo) ListByOrganization(_ context.Context, orgID int64, limit, offset int) ([]model.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.ActivityLog{}
	for _, l := range r.items {
		if l.OrganizationID != nil && *l.OrganizationID == orgID {
			out = append(out, l)
		}
	}
	if offset >= len(out) {
		return []model.ActivityLog{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeGuestRepo struct {
	mu    sync.Mutex
	items []model.GuestUser
}

func (r *fakeGuestRepo) GetByPhone(_ context.Context, phone string) (*model.GuestUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.items {
		if g.PhoneNumber == phone {
			cp := g
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeGuestRepo) Create(_ context.Context, g *model.GuestUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.ID = int64(len(r.items) + 1)
	r.items = append(r.items, *g)
	return nil
}

func (r *fakeGuestRepo) RecordOTPRequest(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].LastRequest = &at
			r.items[i].TotalOTPRequests++
			return nil
		}
	}
	return model.ErrNotFound
}

type fakePhoneCodeRepo struct {
	mu    sync.Mutex
	items map[string]model.PhoneCode
}

func (r *fakePhoneCodeRepo) ListActive(_ context.Context) ([]model.PhoneCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.PhoneCode{}
	for _, c := range r.items {
		if c.IsActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })
	return out, nil
}

func (r *fakePhoneCodeRepo) Upsert(_ context.Context, c *model.PhoneCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = map[string]model.PhoneCode{}
	}
	r.items[c.CountryCode] = *c
	return nil
}

type sentMail struct {
	kind string
	to   string
	link string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendInvite(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "invite", to: to, link: link})
	return nil
}

func (m *fakeMailer) SendPasswordRenewal(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: "renewal", to: to, link: link})
	return nil
}

type fakeSMS struct {
	codes map[string]string
	err   error
}

func (s *fakeSMS) SendOTP(_ context.Context, phone, code string, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[phone] = code
	return nil
}

type fakeOTPStore struct {
	codes map[string]string
}

func (s *fakeOTPStore) Save(_ context.Context, phone, code string, _ time.Duration) error {
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[phone] = code
	return nil
}

func (s *fakeOTPStore) Verify(_ context.Context, phone, code string) (bool, error) {
	if c, ok := s.codes[phone]; ok && c == code {
		delete(s.codes, phone)
		return true, nil
	}
	return false, nil
}

func (s *fakeOTPStore) Invalidate(_ context.Context, phone string) error {
	delete(s.codes, phone)
	return nil
}

type fakeLimiter struct {
	counts map[string]int
}

func (l *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return limit <= 0 || l.counts[key] <= limit, nil
}
