// Package memstore holds in-memory repository implementations with the same
// conditional-update semantics as the SQL repositories. Each store exposes
// error fields for failure injection.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/repository"
)

type Stores struct {
	Identities     *Identities
	Users          *Users
	Sessions       *Sessions
	Registrations  *Registrations
	AccessRequests *AccessRequests
	AuditLogs      *AuditLogs
}

func New() *Stores {
	return &Stores{
		Identities:     &Identities{rows: map[uuid.UUID]*domain.Identity{}},
		Users:          &Users{rows: map[uuid.UUID]*domain.UserAccount{}},
		Sessions:       &Sessions{rows: map[uuid.UUID]*repository.Session{}},
		Registrations:  &Registrations{rows: map[uuid.UUID]*domain.Registration{}},
		AccessRequests: &AccessRequests{rows: map[uuid.UUID]*domain.AccessRequest{}},
		AuditLogs:      &AuditLogs{},
	}
}

// clock hands out strictly increasing timestamps so created_at ordering and
// updated_at preconditions behave like the database.
var clock struct {
	sync.Mutex
	last time.Time
}

func now() time.Time {
	clock.Lock()
	defer clock.Unlock()
	t := time.Now().UTC()
	if !t.After(clock.last) {
		t = clock.last.Add(time.Microsecond)
	}
	clock.last = t
	return t
}

type Identities struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Identity

	CreateErr error
	DeleteErr error
}

func (s *Identities) Create(_ context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	identity.CreatedAt, identity.UpdatedAt = now(), now()
	cp := *identity
	s.rows[identity.ID] = &cp
	return nil
}

func (s *Identities) GetByID(_ context.Context, id uuid.UUID) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (s *Identities) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if strings.EqualFold(row.Email, email) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Identities) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	row, err := s.GetByEmail(ctx, email)
	return row != nil, err
}

func (s *Identities) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.rows, id)
	return nil
}

func (s *Identities) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type Users struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.UserAccount

	CreateErr error
	CountErr  error
}

func (s *Users) Create(_ context.Context, user *domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	user.CreatedAt, user.UpdatedAt = now(), now()
	cp := *user
	s.rows[user.ID] = &cp
	return nil
}

func (s *Users) GetByID(_ context.Context, id uuid.UUID) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (s *Users) GetByIdentityID(_ context.Context, identityID uuid.UUID) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.IdentityID == identityID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Users) List(_ context.Context, filter domain.UserFilter) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.UserAccount{}
	for _, row := range s.rows {
		if filter.Role != nil && row.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && row.IsActive != *filter.Active {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Users) UpdateProfile(_ context.Context, user *domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[user.ID]; !ok {
		return nil
	}
	user.UpdatedAt = now()
	cp := *user
	s.rows[user.ID] = &cp
	return nil
}

func (s *Users) update(id uuid.UUID, fn func(*domain.UserAccount)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return false
	}
	fn(row)
	row.UpdatedAt = now()
	return true
}

func (s *Users) SetRole(_ context.Context, id uuid.UUID, role domain.UserRole) (bool, error) {
	return s.update(id, func(u *domain.UserAccount) { u.Role = role }), nil
}

func (s *Users) SetActive(_ context.Context, id uuid.UUID, active bool) (bool, error) {
	return s.update(id, func(u *domain.UserAccount) { u.IsActive = active }), nil
}

func (s *Users) SetAvatar(_ context.Context, id uuid.UUID, url string) (bool, error) {
	return s.update(id, func(u *domain.UserAccount) { u.ProfilePictureURL = &url }), nil
}

func (s *Users) TouchLastLogin(_ context.Context, identityID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.IdentityID == identityID {
			t := at
			row.LastLogin = &t
		}
	}
	return nil
}

func (s *Users) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *Users) CountActive(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	var n int64
	for _, row := range s.rows {
		if row.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Users) All() []domain.UserAccount {
	out, _ := s.List(context.Background(), domain.UserFilter{})
	return out
}

type Sessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*repository.Session
}

func (s *Sessions) Create(_ context.Context, session *repository.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = now()
	cp := *session
	s.rows[session.ID] = &cp
	return nil
}

func (s *Sessions) GetByTokenHash(_ context.Context, tokenHash string) (*repository.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.TokenHash == tokenHash && row.RevokedAt == nil && row.ExpiresAt.After(time.Now()) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Sessions) Revoke(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		t := now()
		row.RevokedAt = &t
	}
	return nil
}

func (s *Sessions) RevokeAllForIdentity(_ context.Context, identityID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.IdentityID == identityID && row.RevokedAt == nil {
			t := now()
			row.RevokedAt = &t
		}
	}
	return nil
}

func (s *Sessions) DeleteExpired(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		if row.ExpiresAt.Before(time.Now()) {
			delete(s.rows, id)
		}
	}
	return nil
}

type Registrations struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.Registration

	CountErr error
}

func (s *Registrations) Create(_ context.Context, reg *domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.RegistrationCode == reg.RegistrationCode {
			return errDuplicateCode
		}
	}
	reg.CreatedAt = now()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	s.rows[reg.ID] = &cp
	return nil
}

func (s *Registrations) GetByID(_ context.Context, id uuid.UUID) (*domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (s *Registrations) Update(_ context.Context, reg *domain.Registration, expectedUpdatedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[reg.ID]
	if !ok || (expectedUpdatedAt != nil && !row.UpdatedAt.Equal(*expectedUpdatedAt)) {
		return false, nil
	}
	row.CrimeType = reg.CrimeType
	row.Severity = reg.Severity
	row.WantedStatus = reg.WantedStatus
	row.LastSeenLocation = reg.LastSeenLocation
	row.LastSeenDate = reg.LastSeenDate
	row.Notes = reg.Notes
	row.UpdatedAt = now()
	reg.UpdatedAt = row.UpdatedAt
	return true, nil
}

func (s *Registrations) SetStatus(_ context.Context, id uuid.UUID, status domain.RegistrationStatus, expectedUpdatedAt *time.Time) (*domain.Registration, domain.RegistrationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || (expectedUpdatedAt != nil && !row.UpdatedAt.Equal(*expectedUpdatedAt)) {
		return nil, "", nil
	}
	previous := row.Status
	row.Status = status
	row.UpdatedAt = now()
	cp := *row
	return &cp, previous, nil
}

func (s *Registrations) SetPhoto(_ context.Context, id uuid.UUID, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return false, nil
	}
	row.PhotoURL = &url
	row.UpdatedAt = now()
	return true, nil
}

func (s *Registrations) List(_ context.Context, filter domain.RegistrationFilter) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(filter.Query)
	out := []domain.Registration{}
	for _, row := range s.rows {
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		if filter.Kind != nil && row.Kind != *filter.Kind {
			continue
		}
		if filter.WantedStatus != nil && (row.WantedStatus == nil || *row.WantedStatus != *filter.WantedStatus) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(row.FirstName+" "+row.LastName+" "+row.RegistrationCode), q) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Registrations) ListCreatedBetween(_ context.Context, from, to time.Time, crimeType, state *string) ([]domain.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Registration{}
	for _, row := range s.rows {
		if row.CreatedAt.Before(from) || !row.CreatedAt.Before(to) {
			continue
		}
		if crimeType != nil && (row.CrimeType == nil || *row.CrimeType != *crimeType) {
			continue
		}
		if state != nil && row.State != *state {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Registrations) CountByStatus(_ context.Context, status *domain.RegistrationStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	var n int64
	for _, row := range s.rows {
		if status == nil || row.Status == *status {
			n++
		}
	}
	return n, nil
}

type AccessRequests struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*domain.AccessRequest

	DecideErr error
}

func (s *AccessRequests) Create(_ context.Context, req *domain.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Status == domain.AccessPending && strings.EqualFold(row.Email, req.Email) {
			return errDuplicatePending
		}
	}
	req.CreatedAt = now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	s.rows[req.ID] = &cp
	return nil
}

func (s *AccessRequests) GetByID(_ context.Context, id uuid.UUID) (*domain.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[id]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (s *AccessRequests) HasPending(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Status == domain.AccessPending && strings.EqualFold(row.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccessRequests) sorted(status *domain.AccessRequestStatus) []domain.AccessRequest {
	out := []domain.AccessRequest{}
	for _, row := range s.rows {
		if status != nil && row.Status != *status {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *AccessRequests) List(_ context.Context, status *domain.AccessRequestStatus, params domain.PaginationParams) ([]domain.AccessRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(status)
	total := int64(len(all))
	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *AccessRequests) ListRecent(_ context.Context, limit int) ([]domain.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sorted(nil)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *AccessRequests) Decide(_ context.Context, id uuid.UUID, status domain.AccessRequestStatus, approverID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DecideErr != nil {
		return false, s.DecideErr
	}
	row, ok := s.rows[id]
	if !ok || row.Status != domain.AccessPending {
		return false, nil
	}
	approver, stamped := approverID, at
	row.Status = status
	row.ApprovedBy = &approver
	row.ApprovedAt = &stamped
	row.UpdatedAt = now()
	return true, nil
}

func (s *AccessRequests) CountByStatus(_ context.Context, status domain.AccessRequestStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.rows {
		if row.Status == status {
			n++
		}
	}
	return n, nil
}

type AuditLogs struct {
	mu   sync.Mutex
	rows []domain.AuditLog
}

func (s *AuditLogs) Create(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.CreatedAt = now()
	s.rows = append(s.rows, *log)
	return nil
}

func (s *AuditLogs) List(_ context.Context, params domain.PaginationParams) ([]domain.AuditLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditLog, 0, len(s.rows))
	for i := len(s.rows) - 1; i >= 0; i-- {
		out = append(out, s.rows[i])
	}
	total := int64(len(out))
	start := params.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + params.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (s *AuditLogs) All() []domain.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditLog(nil), s.rows...)
}

func (s *AuditLogs) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row.Action)
	}
	return out
}
