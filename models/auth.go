// models/auth.go - Auth-related models
package models

// ============== AUTH REQUESTS ==============

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Address  string `json:"address" validate:"max=300"`
	Language string `json:"language" validate:"omitempty,min=2,max=10"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,role"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ============== PASSWORD RESET ==============

// ResetMethod selects the channel an OTP is delivered over.
type ResetMethod string

const (
	ResetMethodEmail ResetMethod = "email"
	ResetMethodPhone ResetMethod = "phone"
)

type OTPRequest struct {
	Method ResetMethod `json:"method" validate:"required,oneof=email phone"`
	Email  string      `json:"email" validate:"omitempty,email"`
	Phone  string      `json:"phone" validate:"omitempty,phone"`
}

type VerifyOTPRequest struct {
	Method ResetMethod `json:"method" validate:"required,oneof=email phone"`
	Email  string      `json:"email" validate:"omitempty,email"`
	Phone  string      `json:"phone" validate:"omitempty,phone"`
	OTP    string      `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Method      ResetMethod `json:"method" validate:"required,oneof=email phone"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Phone       string      `json:"phone" validate:"omitempty,phone"`
	OTP         string      `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string      `json:"newPassword" validate:"required,min=6"`
}

// Identifier returns the account key for the chosen method.
func (r OTPRequest) Identifier() string {
	if r.Method == ResetMethodPhone {
		return r.Phone
	}
	return r.Email
}

func (r VerifyOTPRequest) Identifier() string {
	return OTPRequest{Method: r.Method, Email: r.Email, Phone: r.Phone}.Identifier()
}

func (r ResetPasswordRequest) Identifier() string {
	return OTPRequest{Method: r.Method, Email: r.Email, Phone: r.Phone}.Identifier()
}

// ============== AUTH RESPONSES ==============

type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthResponse keeps token, id and role at the top level; the web client
// reads them without unwrapping the data envelope.
type AuthResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	ID           string      `json:"id"`
	Role         Role        `json:"role"`
	User         UserProfile `json:"user"`
}

type OTPIssueResponse struct {
	Sent   bool        `json:"sent"`
	Method ResetMethod `json:"method"`
	Role   Role        `json:"role"`
	DevOTP string      `json:"devOtp,omitempty"`
}
