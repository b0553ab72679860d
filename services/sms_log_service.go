package services

import (
	"context"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SmsLogService exposes the outbound SMS audit trail.
type SmsLogService struct {
	smsLogRepo interfaces.SmsLogRepository
}

func NewSmsLogService(smsLogRepo interfaces.SmsLogRepository) *SmsLogService {
	return &SmsLogService{smsLogRepo: smsLogRepo}
}

func (ss *SmsLogService) ListLogs(ctx context.Context, incidentID string, limit int64) ([]models.SmsLog, error) {
	var filter *primitive.ObjectID
	if incidentID != "" {
		id, err := utils.ParseObjectID(incidentID, "incident")
		if err != nil {
			return nil, err
		}
		filter = &id
	}

	logs, err := ss.smsLogRepo.List(ctx, filter, limit)
	if err != nil {
		return nil, utils.NewDatabaseError("list sms logs", err)
	}
	return logs, nil
}
