package services

import (
	"context"
	"fmt"

	"disasterguardian/events"
	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/sirupsen/logrus"
)

// NotificationService fans incident activity out to emergency contacts
// (SMS) and to connected responders (event bus). Delivery is best-effort:
// failures are logged and never fail the triggering request.
type NotificationService struct {
	contactRepo  interfaces.ContactRepository
	incidentRepo interfaces.IncidentRepository
	sms          interfaces.SMSDispatcher
	publisher    events.Publisher
}

func NewNotificationService(
	contactRepo interfaces.ContactRepository,
	incidentRepo interfaces.IncidentRepository,
	sms interfaces.SMSDispatcher,
	publisher events.Publisher,
) *NotificationService {
	return &NotificationService{
		contactRepo:  contactRepo,
		incidentRepo: incidentRepo,
		sms:          sms,
		publisher:    publisher,
	}
}

// NotifySOSContacts queues an SMS to every contact of the reporter that
// opted in, records the queued numbers on the incident and returns them.
func (ns *NotificationService) NotifySOSContacts(ctx context.Context, incident *models.Incident, reporter *models.User) []string {
	contacts, err := ns.contactRepo.ListSOSRecipients(ctx, incident.ReporterID)
	if err != nil {
		logrus.WithError(err).WithField("incident_id", incident.ID.Hex()).Error("Failed to load SOS contacts")
		return nil
	}
	if len(contacts) == 0 {
		return nil
	}

	body := sosMessage(incident, reporter)
	incidentID := incident.ID

	phones := make([]string, 0, len(contacts))
	for _, contact := range contacts {
		phone := utils.NormalizePhoneNumber(contact.Phone)
		if phone == "" || utils.StringSliceContains(phones, phone) {
			continue
		}

		err := ns.sms.Enqueue(models.SMSJob{To: phone, Message: body, IncidentID: &incidentID})
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"incident_id": incident.ID.Hex(),
				"to":          utils.MaskPhoneNumber(phone),
			}).Warn("SOS contact SMS not queued")
			continue
		}
		phones = append(phones, phone)
	}

	if len(phones) > 0 {
		if err := ns.incidentRepo.SetNotifiedContacts(ctx, incident.ID, phones); err != nil {
			logrus.WithError(err).WithField("incident_id", incident.ID.Hex()).Error("Failed to record notified contacts")
		}
	}
	return phones
}

func sosMessage(incident *models.Incident, reporter *models.User) string {
	name := "A contact"
	if reporter != nil && reporter.Name != "" {
		name = reporter.Name
	}

	msg := fmt.Sprintf("SOS ALERT: %s needs help", name)
	if incident.EmergencyType != "" {
		msg += fmt.Sprintf(" (%s emergency)", incident.EmergencyType)
	}
	if loc := incident.Location.String(); loc != "" {
		msg += " at " + loc
	}
	if incident.Description != "" {
		msg += ". " + utils.TruncateString(incident.Description, 100)
	}
	return msg + " - Disaster Guardian"
}

// IncidentCreated announces a new incident to volunteers and admins.
func (ns *NotificationService) IncidentCreated(ctx context.Context, incident *models.Incident, actorID string) {
	ns.publish(ctx, models.EventNewIncident, models.IncidentEvent{
		Incident: incident,
		Action:   "created",
		ActorID:  actorID,
	}, events.Audience{
		Roles: []models.Role{models.RoleVolunteer, models.RoleAdmin},
	})
}

// IncidentUpdated announces a change to responders and the reporter.
func (ns *NotificationService) IncidentUpdated(ctx context.Context, incident *models.Incident, action, actorID string) {
	audience := events.Audience{
		Roles:   []models.Role{models.RoleVolunteer, models.RoleAdmin},
		UserIDs: []string{incident.ReporterID.Hex()},
	}
	ns.publish(ctx, models.EventIncidentUpdated, models.IncidentEvent{
		Incident: incident,
		Action:   action,
		ActorID:  actorID,
	}, audience)
}

// DispatchVolunteers sends a dispatch note to the listed volunteers (by
// user id). Admins receive a copy.
func (ns *NotificationService) DispatchVolunteers(ctx context.Context, note models.VolunteerNotification) {
	ns.publish(ctx, models.EventVolunteerNotification, note, events.Audience{
		Roles:   []models.Role{models.RoleAdmin},
		UserIDs: note.VolunteerIDs,
	})
}

func (ns *NotificationService) publish(ctx context.Context, name string, payload interface{}, audience events.Audience) {
	if err := ns.publisher.Publish(ctx, name, payload, audience); err != nil {
		logrus.WithError(err).WithField("event", name).Warn("Event publish failed")
	}
}
