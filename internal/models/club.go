package models

// ContactType is the kind of a club contact value
type ContactType string

const (
	ContactEmail ContactType = "email"
	ContactPhone ContactType = "phone"
)

type ClubContact struct {
	Name    string      `json:"name"`
	Type    ContactType `json:"type"`
	Value   string      `json:"value"`
	Primary bool        `json:"primary"`
}

// Club is a group users can join. The backend calls clubs "groups".
type Club struct {
	GroupID     int64  `json:"groupId"`
	Name        string `json:"group_name"`
	Description string `json:"group_description"`
	Status      string `json:"status"`
	Category    string `json:"group_category"`
	LogoURL     string `json:"logo_url,omitempty"`
	CreatedAt   string `json:"createdAt"`
	// AdminID is only present on detail responses
	AdminID *int64 `json:"adminId,omitempty"`
}

type CreateClubRequest struct {
	Name        string        `json:"group_name"`
	Category    string        `json:"group_category"`
	Description string        `json:"group_description"`
	Contacts    []ClubContact `json:"contact_info"`
}

type CreateClubResponse struct {
	GroupID int64  `json:"groupId"`
	Message string `json:"message"`
}

type ClubMember struct {
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt"`
}

type JoinRequest struct {
	RequestID   int64  `json:"requestId"`
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	RequestedAt string `json:"requestedAt"`
	Message     string `json:"message"`
}

// JoinDecision is the backend's vocabulary for approving or rejecting a join request.
type JoinDecision string

const (
	JoinApproved JoinDecision = "Aprobado"
	JoinRejected JoinDecision = "Rechazado"
)

// MessageResponse is the generic {"message": ...} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
