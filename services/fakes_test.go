package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"disasterguardian/events"
	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the repository contracts. They mirror the
// conditional-update semantics of the Mongo implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return interfaces.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone == phone {
			u := u
			return &u, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return interfaces.ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}

type fakeIncidentRepo struct {
	mu        sync.Mutex
	incidents map[primitive.ObjectID]models.Incident
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{incidents: map[primitive.ObjectID]models.Incident{}}
}

func cloneIncident(i models.Incident) *models.Incident {
	i.AssignedOfficers = append([]models.AssignedOfficer{}, i.AssignedOfficers...)
	i.NotifiedContacts = append([]string{}, i.NotifiedContacts...)
	return &i
}

func (r *fakeIncidentRepo) Create(_ context.Context, i *models.Incident) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	r.incidents[i.ID] = *cloneIncident(*i)
	return nil
}

func (r *fakeIncidentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.incidents[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneIncident(i), nil
}

func (r *fakeIncidentRepo) List(_ context.Context, f models.IncidentFilter) ([]models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Incident{}
	for _, i := range r.incidents {
		if f.ReporterID != "" && i.ReporterID.Hex() != f.ReporterID {
			continue
		}
		if f.AssignedVolunteerID != "" && (i.AssignedVolunteerID == nil || i.AssignedVolunteerID.Hex() != f.AssignedVolunteerID) {
			continue
		}
		if f.Status != "" && i.Status != f.Status {
			continue
		}
		if f.Type != "" && i.Type != f.Type {
			continue
		}
		if f.UnassignedOnly && i.AssignedVolunteerID != nil {
			continue
		}
		out = append(out, *cloneIncident(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (r *fakeIncidentRepo) Update(_ context.Context, i *models.Incident, expected models.IncidentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.incidents[i.ID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if stored.Status != expected {
		return interfaces.ErrConflict
	}
	stored.Description = i.Description
	stored.Priority = i.Priority
	stored.Severity = i.Severity
	stored.Status = i.Status
	stored.AssignedVolunteerID = i.AssignedVolunteerID
	stored.ResolvedAt = i.ResolvedAt
	stored.UpdatedAt = i.UpdatedAt
	r.incidents[i.ID] = stored
	return nil
}

func (r *fakeIncidentRepo) AssignVolunteer(_ context.Context, id, volunteer primitive.ObjectID, at time.Time) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.incidents[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if i.Status != models.IncidentStatusOpen && i.Status != models.IncidentStatusAssigned {
		return nil, interfaces.ErrConflict
	}
	if i.AssignedVolunteerID != nil && *i.AssignedVolunteerID != volunteer {
		return nil, interfaces.ErrConflict
	}
	i.AssignedVolunteerID = &volunteer
	i.Status = models.IncidentStatusAssigned
	i.UpdatedAt = at
	r.incidents[id] = i
	return cloneIncident(i), nil
}

func (r *fakeIncidentRepo) AddOfficers(_ context.Context, id primitive.ObjectID, officers []models.AssignedOfficer, at time.Time) (*models.Incident, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.incidents[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	for _, o := range officers {
		if i.HasOfficer(o.OfficerID) {
			return nil, interfaces.ErrConflict
		}
	}
	i.AssignedOfficers = append(append([]models.AssignedOfficer{}, i.AssignedOfficers...), officers...)
	i.UpdatedAt = at
	if i.Status == models.IncidentStatusOpen && len(officers) > 0 {
		i.Status = models.IncidentStatusAssigned
	}
	r.incidents[id] = i
	return cloneIncident(i), nil
}

func (r *fakeIncidentRepo) SetNotifiedContacts(_ context.Context, id primitive.ObjectID, phones []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.incidents[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	i.NotifiedContacts = utils.UniqueStrings(append(append([]string{}, i.NotifiedContacts...), phones...))
	r.incidents[id] = i
	return nil
}

type fakeVolunteerRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]models.VolunteerProfile
	updates  int
}

func newFakeVolunteerRepo() *fakeVolunteerRepo {
	return &fakeVolunteerRepo{profiles: map[primitive.ObjectID]models.VolunteerProfile{}}
}

func (r *fakeVolunteerRepo) Create(_ context.Context, p *models.VolunteerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.UserID == p.UserID {
			return interfaces.ErrDuplicate
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	r.profiles[p.ID] = *p
	return nil
}

func (r *fakeVolunteerRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.VolunteerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &p, nil
}

func (r *fakeVolunteerRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.VolunteerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *fakeVolunteerRepo) List(_ context.Context, status models.VolunteerStatus) ([]models.VolunteerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.VolunteerProfile{}
	for _, p := range r.profiles {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeVolunteerRepo) Update(_ context.Context, p *models.VolunteerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return interfaces.ErrNotFound
	}
	r.profiles[p.ID] = *p
	r.updates++
	return nil
}

type fakeOfficerRepo struct {
	mu       sync.Mutex
	officers map[primitive.ObjectID]models.Officer
}

func newFakeOfficerRepo() *fakeOfficerRepo {
	return &fakeOfficerRepo{officers: map[primitive.ObjectID]models.Officer{}}
}

func cloneOfficer(o models.Officer) *models.Officer {
	o.CurrentAssignments = append([]models.OfficerAssignment{}, o.CurrentAssignments...)
	return &o
}

func (r *fakeOfficerRepo) Create(_ context.Context, o *models.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.officers[o.ID] = *cloneOfficer(*o)
	return nil
}

func (r *fakeOfficerRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.officers[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneOfficer(o), nil
}

func (r *fakeOfficerRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Officer{}
	for _, id := range ids {
		if o, ok := r.officers[id]; ok {
			out = append(out, *cloneOfficer(o))
		}
	}
	return out, nil
}

func (r *fakeOfficerRepo) List(_ context.Context, f models.OfficerFilter) ([]models.Officer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Officer{}
	for _, o := range r.officers {
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *cloneOfficer(o))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *fakeOfficerRepo) Update(_ context.Context, o *models.Officer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.officers[o.ID]
	if !ok {
		return interfaces.ErrNotFound
	}
	o.CurrentAssignments = stored.CurrentAssignments
	r.officers[o.ID] = *cloneOfficer(*o)
	return nil
}

func (r *fakeOfficerRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.officers[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.officers, id)
	return nil
}

func (r *fakeOfficerRepo) AddAssignment(_ context.Context, id primitive.ObjectID, a models.OfficerAssignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.officers[id]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	if o.HasActiveAssignment(a.IncidentID) {
		return false, nil
	}
	o.CurrentAssignments = append(append([]models.OfficerAssignment{}, o.CurrentAssignments...), a)
	o.Status = models.OfficerStatusAssigned
	r.officers[id] = o
	return true, nil
}

func (r *fakeOfficerRepo) CompleteAssignments(_ context.Context, incidentID primitive.ObjectID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, o := range r.officers {
		if !o.HasActiveAssignment(incidentID) {
			continue
		}
		assignments := append([]models.OfficerAssignment{}, o.CurrentAssignments...)
		for k := range assignments {
			if assignments[k].IncidentID == incidentID && assignments[k].Status == models.AssignmentActive {
				assignments[k].Status = models.AssignmentCompleted
			}
		}
		o.CurrentAssignments = assignments
		if o.ActiveAssignmentCount() == 0 && o.Status == models.OfficerStatusAssigned {
			o.Status = models.OfficerStatusAvailable
		}
		o.UpdatedAt = at
		r.officers[id] = o
		n++
	}
	return n, nil
}

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts map[primitive.ObjectID]models.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[primitive.ObjectID]models.Contact{}}
}

func (r *fakeContactRepo) Create(_ context.Context, c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.contacts[c.ID] = *c
	return nil
}

func (r *fakeContactRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &c, nil
}

func (r *fakeContactRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	return r.filter(func(c models.Contact) bool { return c.UserID == userID }), nil
}

func (r *fakeContactRepo) ListSOSRecipients(_ context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	return r.filter(func(c models.Contact) bool { return c.UserID == userID && c.NotifyOnSOS }), nil
}

func (r *fakeContactRepo) filter(keep func(models.Contact) bool) []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Contact{}
	for _, c := range r.contacts {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

func (r *fakeContactRepo) Update(_ context.Context, c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[c.ID]; !ok {
		return interfaces.ErrNotFound
	}
	r.contacts[c.ID] = *c
	return nil
}

func (r *fakeContactRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(r.contacts, id)
	return nil
}

type fakeDonationRepo struct {
	mu        sync.Mutex
	donations []models.Donation
}

func (r *fakeDonationRepo) Create(_ context.Context, d *models.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = primitive.NewObjectID()
	r.donations = append(r.donations, *d)
	return nil
}

func (r *fakeDonationRepo) List(_ context.Context, _ int64) ([]models.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Donation{}, r.donations...), nil
}

func (r *fakeDonationRepo) Stats(_ context.Context, monthStart time.Time) (*models.DonationStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &models.DonationStats{}
	for _, d := range r.donations {
		s.TotalDonations++
		switch d.Status {
		case models.DonationCompleted:
			s.CompletedDonations++
			s.TotalAmount += d.Amount
			if !d.CreatedAt.Before(monthStart) {
				s.MonthlyAmount += d.Amount
			}
		case models.DonationPending:
			s.PendingDonations++
		case models.DonationFailed:
			s.FailedDonations++
		}
	}
	return s, nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []models.SMSJob
	err  error
}

func (d *fakeDispatcher) Enqueue(job models.SMSJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type publishedEvent struct {
	Name     string
	Payload  interface{}
	Audience events.Audience
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(_ context.Context, name string, payload interface{}, audience events.Audience) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Name: name, Payload: payload, Audience: audience})
	return nil
}

func (p *fakePublisher) named(name string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

var (
	_ interfaces.UserRepository      = (*fakeUserRepo)(nil)
	_ interfaces.IncidentRepository  = (*fakeIncidentRepo)(nil)
	_ interfaces.VolunteerRepository = (*fakeVolunteerRepo)(nil)
	_ interfaces.OfficerRepository   = (*fakeOfficerRepo)(nil)
	_ interfaces.ContactRepository   = (*fakeContactRepo)(nil)
	_ interfaces.DonationRepository  = (*fakeDonationRepo)(nil)
	_ interfaces.SMSDispatcher       = (*fakeDispatcher)(nil)
	_ events.Publisher               = (*fakePublisher)(nil)
)
