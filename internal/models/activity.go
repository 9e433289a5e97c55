package models

// Activity is a club event users can enroll in.
type Activity struct {
	ActivityID      int64  `json:"activityId"`
	Name            string `json:"name"`
	StartDate       string `json:"start_date"`
	EndTime         string `json:"end_time"`
	Location        string `json:"location"`
	Status          string `json:"status"`
	EnrollCount     *int   `json:"enroll_count,omitempty"`
	Description     string `json:"activity_description,omitempty"`
	MaxParticipants *int   `json:"max_participants,omitempty"`
	ActivityType    string `json:"activity_type,omitempty"`
	ClubID          *int64 `json:"club_id,omitempty"`
	ClubName        string `json:"club_name,omitempty"`
}

// ActivityInput is the body for creating or updating an activity; unset fields are omitted.
type ActivityInput struct {
	Name            string `json:"name,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	Location        string `json:"location,omitempty"`
	Status          string `json:"status,omitempty"`
	Description     string `json:"activity_description,omitempty"`
	MaxParticipants *int   `json:"max_participants,omitempty"`
	ActivityType    string `json:"activity_type,omitempty"`
}

// SeatsLeft returns remaining capacity, or -1 when unknown.
func (a *Activity) SeatsLeft() int {
	if a.MaxParticipants == nil {
		return -1
	}
	enrolled := 0
	if a.EnrollCount != nil {
		enrolled = *a.EnrollCount
	}
	return max(*a.MaxParticipants-enrolled, 0)
}
