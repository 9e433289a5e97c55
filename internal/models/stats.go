package models

import "encoding/json"

// MemberStats summarizes a club's membership. Extra holds fields this client doesn't model.
type MemberStats struct {
	TotalMembers  int                        `json:"totalMembers"`
	ActiveMembers int                        `json:"activeMembers"`
	NewThisMonth  int                        `json:"newThisMonth"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (s *MemberStats) UnmarshalJSON(b []byte) error {
	type plain MemberStats
	if err := json.Unmarshal(b, (*plain)(s)); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, known := range []string{"totalMembers", "activeMembers", "newThisMonth"} {
		delete(all, known)
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// HeatmapCell is one weekday/hour bucket of the weekly activity heatmap.
type HeatmapCell struct {
	Day   string `json:"day"`
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// EnrollmentStat is enrollment for one activity.
type EnrollmentStat struct {
	ActivityID      int64  `json:"activityId"`
	Name            string `json:"name"`
	Enrolled        int    `json:"enrolled"`
	MaxParticipants int    `json:"max_participants"`
}
