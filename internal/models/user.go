package models

import "strings"

type UserProfile struct {
	ID              int64          `json:"id"`
	FirstName       string         `json:"firstName"`
	LastName        string         `json:"lastName"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	DocType         string         `json:"docType"`
	DocNumber       string         `json:"docNumber"`
	BirthDate       string         `json:"birthDate"` // YYYY-MM-DD
	Gender          string         `json:"gender"`
	AboutMe         string         `json:"about_me,omitempty"`
	Career          string         `json:"career,omitempty"`
	ProfileImageURL string         `json:"profile_image_url,omitempty"`
	Roles           []string       `json:"roles,omitempty"`
	Notifications   []Notification `json:"notifications,omitempty"`
}

func (u *UserProfile) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *UserProfile) HasRole(role string) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// LoginRequest carries either a username or an email.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginResponse struct {
	LoginSuccess bool        `json:"login_success"`
	Message      string      `json:"message"`
	Token        string      `json:"token"`
	User         UserProfile `json:"user"`
}

type EnrollRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	DocType   string `json:"docType"`
	DocNumber string `json:"docNumber"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Password  string `json:"password"`
}

// ProfileUpdate holds the editable profile fields; unset fields are omitted.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AboutMe   string `json:"about_me,omitempty"`
	Career    string `json:"career,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyCodeRequest struct {
	Code string `json:"verificationCode"`
}

type SubmitPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ImageUpload is the reply to an image or photo upload.
type ImageUpload struct {
	URL string `json:"url"`
}
