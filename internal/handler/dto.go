package handler

import (
	"time"

	"focustrack/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339),
	}
}

// ActivityDTO is the JSON representation of an activity.
type ActivityDTO struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	TotalTime    int    `json:"totalTime"`
	BreakMinutes int    `json:"breakMinutes"`
	BreakTime    int    `json:"breakTime"`
	BreakCount   int    `json:"breakCount"`
	StreakCount  int    `json:"streakCount"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toActivityDTO(a *domain.Activity) ActivityDTO {
	return ActivityDTO{
		ID:           a.ID,
		Title:        a.Title,
		TotalTime:    a.TotalTime,
		BreakMinutes: a.BreakMinutes,
		BreakTime:    a.BreakTime,
		BreakCount:   a.BreakCount,
		StreakCount:  a.StreakCount,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

func toActivityDTOs(activities []domain.Activity) []ActivityDTO {
	dtos := make([]ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = toActivityDTO(&activities[i])
	}
	return dtos
}

// HistoryDTO is the JSON representation of a recorded session. The break
// log keeps its storage field names; it is an opaque artifact the server
// never reinterprets.
type HistoryDTO struct {
	ID               int64                `json:"id"`
	ActivityID       int64                `json:"activityId"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	StartedAt        string               `json:"startedAt"`
	EndedAt          *string              `json:"endedAt"`
	FocusSeconds     int                  `json:"focusSeconds"`
	TotalBreakTime   int                  `json:"totalBreakTime"`
	DurationMin      int                  `json:"durationMin"`
	BreakLog         []domain.BreakRecord `json:"breakLog"`
	Verified         bool                 `json:"verified"`
	VerificationNote string               `json:"verificationNote,omitempty"`
	CreatedAt        string               `json:"createdAt"`
}

func toHistoryDTO(rec *domain.HistoryRecord) HistoryDTO {
	dto := HistoryDTO{
		ID:               rec.ID,
		ActivityID:       rec.ActivityID,
		Title:            rec.Title,
		Description:      rec.Description,
		StartedAt:        rec.StartedAt.Format(time.RFC3339),
		FocusSeconds:     rec.FocusSeconds,
		TotalBreakTime:   rec.TotalBreakTime,
		DurationMin:      rec.DurationMin,
		BreakLog:         rec.BreakLog,
		Verified:         rec.Verified,
		VerificationNote: rec.VerificationNote,
		CreatedAt:        rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.EndedAt != nil {
		ended := rec.EndedAt.Format(time.RFC3339)
		dto.EndedAt = &ended
	}
	return dto
}

func toHistoryDTOs(records []domain.HistoryRecord) []HistoryDTO {
	dtos := make([]HistoryDTO, len(records))
	for i := range records {
		dtos[i] = toHistoryDTO(&records[i])
	}
	return dtos
}

// VerificationDTO is the JSON representation of a classifier verdict.
type VerificationDTO struct {
	ID         int64   `json:"id"`
	HistoryID  int64   `json:"historyId"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	ResultText string  `json:"resultText"`
	CreatedAt  string  `json:"createdAt"`
}

func toVerificationDTO(v *domain.Verification) VerificationDTO {
	return VerificationDTO{
		ID:         v.ID,
		HistoryID:  v.HistoryID,
		Verified:   v.Verified,
		Confidence: v.Confidence,
		ResultText: v.ResultText,
		CreatedAt:  v.CreatedAt.Format(time.RFC3339),
	}
}
