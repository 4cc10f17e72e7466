package entities

import (
	"time"
)

// User is the account a session belongs to
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Tokens are the bearer credentials of a session
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Credentials is the payload for POST /auth/login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by POST /auth/login
type LoginResult struct {
	Tokens
	User *User `json:"user,omitempty"`
}

// Professional offers services and owns a weekly schedule per service
type Professional struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CompanyID string    `json:"companyId,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Services  []Service `json:"services"`
}

// ServiceByID looks up one of the professional's services
func (p Professional) ServiceByID(id string) (Service, bool) {
	for _, s := range p.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Category groups services in the marketplace
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review is a user's rating of a completed appointment
type Review struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"userId"`
	ProfessionalID string    `json:"professionalId"`
	AppointmentID  string    `json:"appointmentId,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// DashboardStats summarizes a professional's bookings
type DashboardStats struct {
	TotalAppointments    int     `json:"totalAppointments"`
	UpcomingAppointments int     `json:"upcomingAppointments"`
	CompletedThisMonth   int     `json:"completedThisMonth"`
	Revenue              Amount  `json:"revenue"`
	AverageRating        float64 `json:"averageRating"`
}

// PopularService is one row of the popular-services widget
type PopularService struct {
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	Bookings  int    `json:"bookings"`
}
