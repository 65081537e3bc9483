package membership

import (
	"time"

	"github.com/google/uuid"
)

// Membership is a read-only view of a membership record. It is owned and
// mutated by the membership subsystem; this service only reads it.
// Eligibility is decided by IsActive plus EndDate, nothing else.
type Membership struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	PackageType string    `json:"package_type"`
	IsActive    bool      `json:"is_active"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// Covers reports whether the membership is active and its end date is on or
// after the given day. Comparison is by calendar date, not time of day. Both
// dates are read in the end date's zone, so a server-local clock just past
// midnight cannot disagree with the stored date about what "today" is.
func (m *Membership) Covers(day time.Time) bool {
	if !m.IsActive {
		return false
	}
	d := day.In(m.EndDate.Location())
	y1, m1, d1 := m.EndDate.Date()
	y2, m2, d2 := d.Date()
	end := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	cur := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return !end.Before(cur)
}

// PersonalSchedule is a read-only view of a personal training schedule.
// Only the approval status matters for QR eligibility.
type PersonalSchedule struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TrainerID uuid.UUID `json:"trainer_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const ScheduleAccepted = "accepted"
