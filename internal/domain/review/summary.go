package review

import (
	"math"

	"github.com/google/uuid"

	"github.com/ewalsh/studydeck/internal/domain"
)

// Summary is the report produced at the end of a session, derived from the
// ledger's durable counters and the trace's ephemeral sets. It carries no
// state of its own and can be rebuilt at any point during the session.
type Summary struct {
	SessionID             uuid.UUID   `json:"session_id"`
	Correct               int         `json:"correct"`
	Incorrect             int         `json:"incorrect"`
	Accuracy              int         `json:"accuracy"`
	Skipped               int         `json:"skipped"`
	TotalElapsedSeconds   int         `json:"total_elapsed_seconds"`
	AverageSecondsPerCard float64     `json:"average_seconds_per_card,omitempty"`
	WrongCardIDs          []uuid.UUID `json:"wrong_card_ids"`
	BookmarkedCardIDs     []uuid.UUID `json:"bookmarked_card_ids"`
}

// BuildSummary derives the session report. Accuracy is rounded to the nearest
// percent, zero when nothing was studied. AverageSecondsPerCard is reported
// for timed sessions only and omitted when no cards were studied.
func BuildSummary(trace Trace, session *domain.StudySession) *Summary {
	summary := &Summary{
		SessionID:           session.ID,
		Correct:             session.CorrectAnswers,
		Incorrect:           session.CardsStudied - session.CorrectAnswers,
		Skipped:             trace.SkippedCount(),
		TotalElapsedSeconds: int(trace.Elapsed().Seconds()),
		WrongCardIDs:        trace.WrongCardIDs(),
		BookmarkedCardIDs:   trace.BookmarkedCardIDs(),
	}

	if session.CardsStudied > 0 {
		summary.Accuracy = int(math.Round(100 * float64(session.CorrectAnswers) / float64(session.CardsStudied)))

		if session.Mode == domain.StudyModeTimed {
			summary.AverageSecondsPerCard = trace.Elapsed().Seconds() / float64(session.CardsStudied)
		}
	}

	return summary
}
