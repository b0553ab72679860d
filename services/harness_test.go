package services

import (
	"context"
	"testing"
	"time"

	"disasterguardian/models"
	"disasterguardian/repositories"
	"disasterguardian/utils"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	users      *fakeUserRepo
	incidents  *fakeIncidentRepo
	volunteers *fakeVolunteerRepo
	officers   *fakeOfficerRepo
	contacts   *fakeContactRepo
	donations  *fakeDonationRepo
	dispatcher *fakeDispatcher
	publisher  *fakePublisher
	sms        *MockSMSService
	otpStore   *repositories.MemoryOTPStore
	revoked    *repositories.MemoryRevocationStore
	jwt        *utils.JWTService

	auth          *AuthService
	reset         *PasswordResetService
	userSvc       *UserService
	incidentSvc   *IncidentService
	volunteerSvc  *VolunteerService
	officerSvc    *OfficerService
	contactSvc    *ContactService
	donationSvc   *DonationService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:      newFakeUserRepo(),
		incidents:  newFakeIncidentRepo(),
		volunteers: newFakeVolunteerRepo(),
		officers:   newFakeOfficerRepo(),
		contacts:   newFakeContactRepo(),
		donations:  &fakeDonationRepo{},
		dispatcher: &fakeDispatcher{},
		publisher:  &fakePublisher{},
		sms:        NewMockSMSService(),
		otpStore:   repositories.NewMemoryOTPStore(),
		revoked:    repositories.NewMemoryRevocationStore(),
		jwt:        utils.NewJWTService("test-secret", time.Hour, 24*time.Hour),
	}

	validator := utils.NewValidationService()
	passwords := utils.NewPasswordService(4)

	env.notifications = NewNotificationService(env.contacts, env.incidents, env.dispatcher, env.publisher)
	env.auth = NewAuthService(env.users, env.jwt, passwords, validator, env.revoked)
	env.reset = NewPasswordResetService(env.users, env.otpStore, env.sms, NewMockEmailService(), passwords, validator,
		PasswordResetConfig{TTL: 10 * time.Minute, ExposeCode: true})
	env.userSvc = NewUserService(env.users, validator)
	env.incidentSvc = NewIncidentService(env.incidents, env.volunteers, env.officers, env.users, env.notifications, validator)
	env.volunteerSvc = NewVolunteerService(env.volunteers, env.users, env.incidents, env.notifications, validator)
	env.officerSvc = NewOfficerService(env.officers, env.incidents, env.notifications, validator)
	env.contactSvc = NewContactService(env.contacts, validator)
	env.donationSvc = NewDonationService(env.donations, validator)
	return env
}

func (e *testEnv) addUser(t *testing.T, name string, role models.Role) models.Actor {
	t.Helper()
	u := &models.User{
		Name:      name,
		Email:     name + "@example.com",
		Phone:     "+15550000" + string(rune('0'+len(e.users.users)%10)),
		Role:      role,
		Language:  "en",
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return models.Actor{UserID: u.ID, Email: u.Email, Role: role, TokenID: primitive.NewObjectID().Hex(), ExpiresAt: time.Now().Add(time.Hour)}
}

func (e *testEnv) addVolunteer(t *testing.T, name string, status models.VolunteerStatus) (models.Actor, *models.VolunteerProfile) {
	t.Helper()
	actor := e.addUser(t, name, models.RoleVolunteer)
	profile := &models.VolunteerProfile{
		UserID:       actor.UserID,
		GovernmentID: "GOV-" + name,
		Status:       status,
		AppliedAt:    time.Now(),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, e.volunteers.Create(context.Background(), profile))
	return actor, profile
}

func (e *testEnv) addOfficer(t *testing.T, name string, officerType models.OfficerType) *models.Officer {
	t.Helper()
	o, err := e.officerSvc.CreateOfficer(context.Background(), models.CreateOfficerRequest{
		Name:  name,
		Type:  officerType,
		Phone: "+919000000001",
	})
	require.NoError(t, err)
	return o
}

func (e *testEnv) reportSOS(t *testing.T, reporter models.Actor) *models.Incident {
	t.Helper()
	incident, err := e.incidentSvc.CreateIncident(context.Background(), reporter, models.CreateIncidentRequest{
		Type:          models.IncidentTypeSOS,
		Description:   "Car crash on the highway",
		Location:      models.PointLocation(17.385, 78.4867, "Hyderabad"),
		EmergencyType: "accident",
		Priority:      "high",
	})
	require.NoError(t, err)
	return incident
}

func requireServiceStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	se, ok := utils.AsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %v", err)
	require.Equal(t, status, se.StatusCode, se.Message)
}

func (e *testEnv) mustUserID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	id, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return id
}
