package schedule

import (
	"sort"
	"time"

	"github.com/noah-isme/maestro-api/internal/models"
)

// Affected is one (student, session) pair hit by a teacher's leave.
type Affected struct {
	StudentID   uint     `json:"student_id"`
	StudentName string   `json:"student_name"`
	SessionID   uint     `json:"session_id"`
	Teacher     string   `json:"teacher"`
	Day         Day      `json:"day"`
	Time        string   `json:"time"`
	Dates       []string `json:"dates"`
}

// AffectedByLeave walks every calendar day in [start, end] and collects the students of each
// session whose day matches. A weekly session occurring several times inside the interval is
// reported once with all of its dates.
func AffectedByLeave(sessions []models.Session, start, end time.Time) []Affected {
	from, to := Date(start), Date(end)
	if to.Before(from) {
		return nil
	}

	datesByDay := make(map[Day][]string)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := DayOf(d)
		datesByDay[day] = append(datesByDay[day], d.Format(DateLayout))
	}

	ordered := append([]models.Session(nil), sessions...)
	sortSessions(ordered)

	result := make([]Affected, 0)
	for _, session := range ordered {
		dates := datesByDay[Day(session.Day)]
		if len(dates) == 0 {
			continue
		}

		students := append([]models.SessionStudent(nil), session.Students...)
		sort.Slice(students, func(i, j int) bool { return students[i].StudentID < students[j].StudentID })

		seen := make(map[uint]struct{}, len(students))
		for _, student := range students {
			if _, dup := seen[student.StudentID]; dup {
				continue
			}
			seen[student.StudentID] = struct{}{}
			result = append(result, Affected{
				StudentID:   student.StudentID,
				StudentName: student.StudentName,
				SessionID:   session.ID,
				Teacher:     session.Teacher,
				Day:         Day(session.Day),
				Time:        session.Time,
				Dates:       append([]string(nil), dates...),
			})
		}
	}

	return result
}

// PairKey identifies a (student, session) pair.
type PairKey struct {
	StudentID uint
	SessionID uint
}

// Key returns the pair identity of an affected entry.
func (a Affected) Key() PairKey {
	return PairKey{StudentID: a.StudentID, SessionID: a.SessionID}
}

func sortSessions(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		di, dj := Day(sessions[i].Day).Index(), Day(sessions[j].Day).Index()
		if di != dj {
			return di < dj
		}
		if sessions[i].StartMinutes != sessions[j].StartMinutes {
			return sessions[i].StartMinutes < sessions[j].StartMinutes
		}
		if sessions[i].Teacher != sessions[j].Teacher {
			return sessions[i].Teacher < sessions[j].Teacher
		}
		return sessions[i].ID < sessions[j].ID
	})
}
