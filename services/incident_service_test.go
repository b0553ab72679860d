package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"disasterguardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentService_CreateSOS(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)

	_, err := env.contactSvc.CreateContact(ctx, citizen, models.CreateContactRequest{Name: "Mom", Phone: "+91 90000 00001"})
	require.NoError(t, err)
	_, err = env.contactSvc.CreateContact(ctx, citizen, models.CreateContactRequest{Name: "Boss", Phone: "+919000000002", NotifyOnSOS: boolPtr(false)})
	require.NoError(t, err)

	before := time.Now()
	incident := env.reportSOS(t, citizen)
	after := time.Now()

	assert.Equal(t, models.IncidentStatusOpen, incident.Status)
	assert.Equal(t, citizen.UserID, incident.ReporterID)
	assert.False(t, incident.CreatedAt.Before(before))
	assert.False(t, incident.CreatedAt.After(after))
	assert.Nil(t, incident.AssignedVolunteerID)

	stored, err := env.incidents.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusOpen, stored.Status)
	assert.Equal(t, []string{"+919000000001"}, stored.NotifiedContacts)

	require.Len(t, env.dispatcher.jobs, 1)
	job := env.dispatcher.jobs[0]
	assert.Equal(t, "+919000000001", job.To)
	assert.Equal(t, incident.ID, *job.IncidentID)
	assert.Contains(t, job.Message, "SOS ALERT")

	created := env.publisher.named(models.EventNewIncident)
	require.Len(t, created, 1)
	assert.ElementsMatch(t, []models.Role{models.RoleVolunteer, models.RoleAdmin}, created[0].Audience.Roles)
}

func TestIncidentService_CreateRiskDefaults(t *testing.T) {
	env := newTestEnv(t)
	citizen := env.addUser(t, "citizen", models.RoleCitizen)

	incident, err := env.incidentSvc.CreateIncident(context.Background(), citizen, models.CreateIncidentRequest{
		Type:     models.IncidentTypeRisk,
		Location: models.TextLocation("  Near the old bridge "),
		RiskType: "flood",
	})
	require.NoError(t, err)
	assert.Equal(t, "Near the old bridge", incident.Location.Text)
	assert.Equal(t, "medium", incident.Severity)
	assert.Equal(t, "medium", incident.Priority)
	assert.NotNil(t, incident.Images)
	assert.Empty(t, env.dispatcher.jobs)
}

func TestIncidentService_CreateOnBehalf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	other := env.addUser(t, "other", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)

	req := models.CreateIncidentRequest{Type: models.IncidentTypeSOS, ReporterID: other.UserID.Hex()}

	_, err := env.incidentSvc.CreateIncident(ctx, citizen, req)
	requireServiceStatus(t, err, http.StatusForbidden)

	incident, err := env.incidentSvc.CreateIncident(ctx, admin, req)
	require.NoError(t, err)
	assert.Equal(t, other.UserID, incident.ReporterID)
}

func TestIncidentService_CitizensSeeOwnIncidents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice", models.RoleCitizen)
	bob := env.addUser(t, "bob", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)

	mine := env.reportSOS(t, alice)
	theirs := env.reportSOS(t, bob)

	list, err := env.incidentSvc.ListIncidents(ctx, alice, models.IncidentFilter{ReporterID: bob.UserID.Hex()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = env.incidentSvc.GetIncident(ctx, alice, theirs.ID.Hex())
	requireServiceStatus(t, err, http.StatusForbidden)

	all, err := env.incidentSvc.ListIncidents(ctx, admin, models.IncidentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.incidentSvc.GetIncident(ctx, admin, "not-an-id")
	requireServiceStatus(t, err, http.StatusBadRequest)
}

func TestIncidentService_StatusIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)
	incident := env.reportSOS(t, citizen)

	resolved := models.IncidentStatusResolved
	updated, err := env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &resolved})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	open := models.IncidentStatusOpen
	_, err = env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &open})
	requireServiceStatus(t, err, http.StatusConflict)

	// same status again is accepted
	_, err = env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &resolved})
	require.NoError(t, err)

	bogus := models.IncidentStatus("archived")
	_, err = env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &bogus})
	requireServiceStatus(t, err, http.StatusBadRequest)

	_, err = env.incidentSvc.UpdateIncident(ctx, citizen, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &resolved})
	requireServiceStatus(t, err, http.StatusForbidden)

	assert.NotEmpty(t, env.publisher.named(models.EventIncidentUpdated))
}

func TestIncidentService_AdminAssignRequiresVerifiedVolunteer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)
	_, pending := env.addVolunteer(t, "pending", models.VolunteerStatusPending)
	verifiedActor, verified := env.addVolunteer(t, "verified", models.VolunteerStatusVerified)
	incident := env.reportSOS(t, citizen)

	id := pending.ID.Hex()
	_, err := env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{AssignedVolunteerID: &id})
	requireServiceStatus(t, err, http.StatusForbidden)

	// profile id resolves to the volunteer's user id
	id = verified.ID.Hex()
	updated, err := env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{AssignedVolunteerID: &id})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedVolunteerID)
	assert.Equal(t, verifiedActor.UserID, *updated.AssignedVolunteerID)
	assert.Equal(t, models.IncidentStatusAssigned, updated.Status)

	events := env.publisher.named(models.EventIncidentUpdated)
	require.NotEmpty(t, events)
	assert.Contains(t, events[len(events)-1].Audience.UserIDs, citizen.UserID.Hex())
}

func TestIncidentService_AcceptRequiresVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	unverified, _ := env.addVolunteer(t, "unverified", models.VolunteerStatusPending)
	noProfile := env.addUser(t, "noprofile", models.RoleVolunteer)
	incident := env.reportSOS(t, citizen)

	_, err := env.incidentSvc.AcceptIncident(ctx, unverified, incident.ID.Hex(), models.AcceptIncidentRequest{})
	requireServiceStatus(t, err, http.StatusForbidden)

	_, err = env.incidentSvc.AcceptIncident(ctx, noProfile, incident.ID.Hex(), models.AcceptIncidentRequest{})
	requireServiceStatus(t, err, http.StatusForbidden)

	_, err = env.incidentSvc.AcceptIncident(ctx, citizen, incident.ID.Hex(), models.AcceptIncidentRequest{})
	requireServiceStatus(t, err, http.StatusForbidden)

	stored, _ := env.incidents.GetByID(ctx, incident.ID)
	assert.Nil(t, stored.AssignedVolunteerID)
	assert.Equal(t, models.IncidentStatusOpen, stored.Status)
}

func TestIncidentService_AcceptAndProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	first, _ := env.addVolunteer(t, "first", models.VolunteerStatusVerified)
	second, _ := env.addVolunteer(t, "second", models.VolunteerStatusVerified)
	incident := env.reportSOS(t, citizen)

	fresh, err := env.incidentSvc.ListNewIncidents(ctx, first)
	require.NoError(t, err)
	require.Len(t, fresh, 1)

	accepted, err := env.incidentSvc.AcceptIncident(ctx, first, incident.ID.Hex(), models.AcceptIncidentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAssigned, accepted.Status)
	assert.Equal(t, first.UserID, *accepted.AssignedVolunteerID)

	// accepting again is harmless, someone else gets a conflict
	_, err = env.incidentSvc.AcceptIncident(ctx, first, incident.ID.Hex(), models.AcceptIncidentRequest{})
	require.NoError(t, err)
	_, err = env.incidentSvc.AcceptIncident(ctx, second, incident.ID.Hex(), models.AcceptIncidentRequest{})
	requireServiceStatus(t, err, http.StatusConflict)

	fresh, err = env.incidentSvc.ListNewIncidents(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	_, err = env.incidentSvc.UpdateVolunteerStatus(ctx, second, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusInProgress})
	requireServiceStatus(t, err, http.StatusForbidden)

	inProgress, err := env.incidentSvc.UpdateVolunteerStatus(ctx, first, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusInProgress, inProgress.Status)

	_, err = env.incidentSvc.UpdateVolunteerStatus(ctx, first, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusClosed})
	requireServiceStatus(t, err, http.StatusBadRequest)

	resolved, err := env.incidentSvc.UpdateVolunteerStatus(ctx, first, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusResolved})
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = env.incidentSvc.UpdateVolunteerStatus(ctx, first, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusInProgress})
	requireServiceStatus(t, err, http.StatusConflict)

	mine, err := env.incidentSvc.ListVolunteerIncidents(ctx, first, first.UserID.Hex())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = env.incidentSvc.ListVolunteerIncidents(ctx, second, first.UserID.Hex())
	requireServiceStatus(t, err, http.StatusForbidden)
}

func TestIncidentService_ListNewIncidentsGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pending, _ := env.addVolunteer(t, "pending", models.VolunteerStatusPending)
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)

	_, err := env.incidentSvc.ListNewIncidents(ctx, pending)
	requireServiceStatus(t, err, http.StatusForbidden)
	_, err = env.incidentSvc.ListNewIncidents(ctx, citizen)
	requireServiceStatus(t, err, http.StatusForbidden)
	_, err = env.incidentSvc.ListNewIncidents(ctx, admin)
	require.NoError(t, err)
}

func TestIncidentService_ResolveReleasesOfficers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)
	officer := env.addOfficer(t, "Ravi", models.OfficerTypeNDRF)
	incident := env.reportSOS(t, citizen)

	_, err := env.officerSvc.BulkAssign(ctx, admin, models.BulkAssignOfficersRequest{
		IncidentID: incident.ID.Hex(),
		OfficerIDs: []string{officer.ID.Hex()},
		RiskZone:   "Zone A",
	})
	require.NoError(t, err)

	closed := models.IncidentStatusClosed
	_, err = env.incidentSvc.UpdateIncident(ctx, admin, incident.ID.Hex(), models.UpdateIncidentRequest{Status: &closed})
	require.NoError(t, err)

	stored, err := env.officers.GetByID(ctx, officer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfficerStatusAvailable, stored.Status)
	require.Len(t, stored.CurrentAssignments, 1)
	assert.Equal(t, models.AssignmentCompleted, stored.CurrentAssignments[0].Status)
}

func boolPtr(b bool) *bool { return &b }

func TestIncidentService_StatusUpdateRequiresVerifiedVolunteer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.addUser(t, "citizen", models.RoleCitizen)
	volunteer, profile := env.addVolunteer(t, "vol", models.VolunteerStatusVerified)
	incident := env.reportSOS(t, citizen)

	_, err := env.incidentSvc.AcceptIncident(ctx, volunteer, incident.ID.Hex(), models.AcceptIncidentRequest{})
	require.NoError(t, err)

	// verification lapses without going through review
	profile.Status = models.VolunteerStatusRejected
	require.NoError(t, env.volunteers.Update(ctx, profile))

	_, err = env.incidentSvc.UpdateVolunteerStatus(ctx, volunteer, incident.ID.Hex(), models.VolunteerStatusUpdateRequest{Status: models.IncidentStatusResolved})
	requireServiceStatus(t, err, http.StatusForbidden)

	stored, err := env.incidents.GetByID(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAssigned, stored.Status)
}
