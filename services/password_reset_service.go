package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"disasterguardian/interfaces"
	"disasterguardian/models"
	"disasterguardian/utils"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
)

const (
	otpIssuer      = "Disaster Guardian"
	maxOTPAttempts = 5
)

var otpOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      0,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// PasswordResetService runs the forgot-password flow: a six digit code is
// derived from a per-request TOTP secret and the issue time, both kept in
// the OTP store for the code's lifetime.
type PasswordResetService struct {
	userRepo        interfaces.UserRepository
	store           interfaces.OTPStore
	sms             interfaces.SMSSender
	email           interfaces.EmailSender
	passwordService *utils.PasswordService
	validator       *utils.ValidationService
	ttl             time.Duration
	exposeCode      bool
	now             func() time.Time
}

type PasswordResetConfig struct {
	TTL time.Duration
	// ExposeCode returns the code in the response (development only)
	ExposeCode bool
}

func NewPasswordResetService(
	userRepo interfaces.UserRepository,
	store interfaces.OTPStore,
	sms interfaces.SMSSender,
	email interfaces.EmailSender,
	passwordService *utils.PasswordService,
	validator *utils.ValidationService,
	cfg PasswordResetConfig,
) *PasswordResetService {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &PasswordResetService{
		userRepo:        userRepo,
		store:           store,
		sms:             sms,
		email:           email,
		passwordService: passwordService,
		validator:       validator,
		ttl:             cfg.TTL,
		exposeCode:      cfg.ExposeCode,
		now:             time.Now,
	}
}

func (ps *PasswordResetService) RequestOTP(ctx context.Context, req models.OTPRequest) (*models.OTPIssueResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := ps.validateIdentifier(req, req.Method); err != nil {
		return nil, err
	}

	user, err := ps.findAccount(ctx, req.Method, req.Identifier())
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      otpIssuer,
		AccountName: user.Email,
		Period:      otpOpts.Period,
		Digits:      otpOpts.Digits,
		Algorithm:   otpOpts.Algorithm,
	})
	if err != nil {
		return nil, utils.NewInternalError("Failed to generate OTP", err)
	}

	issuedAt := ps.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), issuedAt, otpOpts)
	if err != nil {
		return nil, utils.NewInternalError("Failed to generate OTP", err)
	}

	if err := ps.store.Save(ctx, storeKey(req.Method, req.Identifier()), encodeOTPSecret(key.Secret(), issuedAt), ps.ttl); err != nil {
		return nil, utils.NewInternalError("Failed to store OTP", err)
	}

	body := fmt.Sprintf("Your Disaster Guardian password reset code is %s. It expires in %d minutes.", code, int(ps.ttl.Minutes()))
	if req.Method == models.ResetMethodPhone {
		if _, err := ps.sms.SendSMS(ctx, user.Phone, body); err != nil {
			return nil, utils.NewExternalServiceError("SMS", err)
		}
	} else {
		if err := ps.email.SendEmail(ctx, user.Email, "Password reset code", body); err != nil {
			return nil, utils.NewExternalServiceError("Email", err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID.Hex(),
		"method":  req.Method,
	}).Info("Password reset code issued")

	resp := &models.OTPIssueResponse{
		Sent:   true,
		Method: req.Method,
		Role:   user.Role,
	}
	if ps.exposeCode {
		resp.DevOTP = code
	}
	return resp, nil
}

func (ps *PasswordResetService) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := ps.validateIdentifier(req, req.Method); err != nil {
		return err
	}
	return ps.checkCode(ctx, req.Method, req.Identifier(), req.OTP)
}

func (ps *PasswordResetService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	req.Email = utils.NormalizeEmail(req.Email)
	if err := ps.validateIdentifier(req, req.Method); err != nil {
		return err
	}

	user, err := ps.findAccount(ctx, req.Method, req.Identifier())
	if err != nil {
		return err
	}

	if err := ps.checkCode(ctx, req.Method, req.Identifier(), req.OTP); err != nil {
		return err
	}

	hash, err := ps.passwordService.Hash(req.NewPassword)
	if err != nil {
		return utils.NewInternalError("Failed to update password", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = ps.now()
	if err := ps.userRepo.Update(ctx, user); err != nil {
		return utils.NewDatabaseError("update password", err)
	}

	if err := ps.store.Delete(ctx, storeKey(req.Method, req.Identifier())); err != nil {
		logrus.WithError(err).Warn("Failed to consume OTP")
	}

	logrus.WithField("user_id", user.ID.Hex()).Info("Password reset completed")
	return nil
}

func (ps *PasswordResetService) validateIdentifier(req interface{}, method models.ResetMethod) error {
	if err := ps.validator.Validate(req); err != nil {
		return err
	}

	var id string
	switch r := req.(type) {
	case models.OTPRequest:
		id = r.Identifier()
	case models.VerifyOTPRequest:
		id = r.Identifier()
	case models.ResetPasswordRequest:
		id = r.Identifier()
	}
	if strings.TrimSpace(id) == "" {
		return utils.NewBadRequestError(fmt.Sprintf("%s is required", method))
	}
	return nil
}

func (ps *PasswordResetService) findAccount(ctx context.Context, method models.ResetMethod, identifier string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if method == models.ResetMethodPhone {
		user, err = ps.userRepo.GetByPhone(ctx, utils.NormalizePhoneNumber(identifier))
	} else {
		user, err = ps.userRepo.GetByEmail(ctx, utils.NormalizeEmail(identifier))
	}

	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, utils.NewNotFoundError("Account")
	}
	if err != nil {
		return nil, utils.NewDatabaseError("find user", err)
	}
	return user, nil
}

func (ps *PasswordResetService) checkCode(ctx context.Context, method models.ResetMethod, identifier, code string) error {
	key := storeKey(method, identifier)
	invalid := utils.NewBadRequestError("Invalid or expired OTP")

	stored, err := ps.store.Get(ctx, key)
	if errors.Is(err, interfaces.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return utils.NewInternalError("Failed to read OTP", err)
	}

	secret, issuedAt, err := decodeOTPSecret(stored)
	if err != nil {
		return invalid
	}

	ok, err := totp.ValidateCustom(code, secret, issuedAt, otpOpts)
	if err == nil && ok {
		return nil
	}

	attempts, err := ps.store.IncrementAttempts(ctx, key, ps.ttl)
	if err != nil {
		logrus.WithError(err).Warn("Failed to count OTP attempt")
	}
	if attempts >= maxOTPAttempts {
		_ = ps.store.Delete(ctx, key)
		return utils.NewRateLimitError("Too many invalid attempts, request a new code")
	}
	return invalid
}

func storeKey(method models.ResetMethod, identifier string) string {
	if method == models.ResetMethodPhone {
		return string(method) + ":" + utils.NormalizePhoneNumber(identifier)
	}
	return string(method) + ":" + utils.NormalizeEmail(identifier)
}

func encodeOTPSecret(secret string, issuedAt time.Time) string {
	return secret + "|" + strconv.FormatInt(issuedAt.Unix(), 10)
}

func decodeOTPSecret(v string) (string, time.Time, error) {
	secret, ts, ok := strings.Cut(v, "|")
	if !ok {
		return "", time.Time{}, errors.New("malformed otp record")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, err
	}
	return secret, time.Unix(unix, 0), nil
}
