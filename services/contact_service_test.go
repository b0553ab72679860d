package services

import (
	"context"
	"net/http"
	"testing"

	"disasterguardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactService_NotifyOnSOSRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.RoleCitizen)

	quiet, err := env.contactSvc.CreateContact(ctx, owner, models.CreateContactRequest{
		Name: "Quiet", Phone: "+919000000002", NotifyOnSOS: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, quiet.NotifyOnSOS)

	defaulted, err := env.contactSvc.CreateContact(ctx, owner, models.CreateContactRequest{
		Name: "Default", Phone: "(900) 000-0003", Relation: "Brother",
	})
	require.NoError(t, err)
	assert.True(t, defaulted.NotifyOnSOS)
	assert.Equal(t, "9000000003", defaulted.Phone)

	list, err := env.contactSvc.ListContacts(ctx, owner, owner.UserID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 2)
	byName := map[string]models.Contact{}
	for _, c := range list {
		byName[c.Name] = c
	}
	assert.False(t, byName["Quiet"].NotifyOnSOS)
	assert.True(t, byName["Default"].NotifyOnSOS)

	updated, err := env.contactSvc.UpdateContact(ctx, owner, quiet.ID.Hex(), models.UpdateContactRequest{NotifyOnSOS: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.NotifyOnSOS)
	assert.Equal(t, "Quiet", updated.Name)

	incident := env.reportSOS(t, owner)
	assert.ElementsMatch(t, []string{"+919000000002", "9000000003"}, incident.NotifiedContacts)
}

func TestContactService_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.addUser(t, "owner", models.RoleCitizen)
	other := env.addUser(t, "other", models.RoleCitizen)
	admin := env.addUser(t, "admin", models.RoleAdmin)

	contact, err := env.contactSvc.CreateContact(ctx, owner, models.CreateContactRequest{Name: "Mum", Phone: "+919000000004"})
	require.NoError(t, err)

	_, err = env.contactSvc.ListContacts(ctx, other, owner.UserID.Hex())
	requireServiceStatus(t, err, http.StatusForbidden)

	name := "Hacked"
	_, err = env.contactSvc.UpdateContact(ctx, other, contact.ID.Hex(), models.UpdateContactRequest{Name: &name})
	requireServiceStatus(t, err, http.StatusForbidden)

	err = env.contactSvc.DeleteContact(ctx, other, contact.ID.Hex())
	requireServiceStatus(t, err, http.StatusForbidden)

	_, err = env.contactSvc.CreateContact(ctx, owner, models.CreateContactRequest{Name: "Bad", Phone: "call me"})
	requireServiceStatus(t, err, http.StatusBadRequest)

	list, err := env.contactSvc.ListContacts(ctx, admin, owner.UserID.Hex())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.contactSvc.DeleteContact(ctx, owner, contact.ID.Hex()))
	err = env.contactSvc.DeleteContact(ctx, owner, contact.ID.Hex())
	requireServiceStatus(t, err, http.StatusNotFound)
}
