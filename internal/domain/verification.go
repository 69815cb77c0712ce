package domain

import (
	"context"
	"time"
)

// Verification stores one classifier verdict for a session.
type Verification struct {
	ID          int64
	ActivityID  int64
	HistoryID   int64
	Description string
	ImageURL    string
	Verified    bool
	Confidence  float64
	ResultText  string // raw classifier verdict, serialized
	CreatedAt   time.Time
}

// VerificationRepository defines persistence operations for verifications.
type VerificationRepository interface {
	Create(ctx context.Context, v *Verification) error
	GetByHistory(ctx context.Context, historyID int64) (*Verification, error)
}

// Verdict is the classifier's answer for a described session.
type Verdict struct {
	Authentic  bool    `json:"authentic"`
	Matches    bool    `json:"matches_description"`
	Confidence float64 `json:"confidence"`
	Verified   bool    `json:"verified"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier is the opaque verification boundary: it consumes a text
// description plus an optional image and returns a verdict.
type Classifier interface {
	Verify(ctx context.Context, description, imageBase64 string) (*Verdict, error)
}
