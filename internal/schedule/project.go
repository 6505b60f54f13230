package schedule

import (
	"sort"

	"github.com/noah-isme/maestro-api/internal/models"
)

// Master is the nested teacher -> day -> sessions view of a semester.
type Master map[string]map[Day][]models.Session

// Project groups sessions into the nested view. Every roster teacher gets an entry even when
// they have no sessions yet; sessions are ordered by start time.
func Project(teachers []string, sessions []models.Session) Master {
	master := make(Master, len(teachers))
	for _, teacher := range teachers {
		master[teacher] = make(map[Day][]models.Session)
	}

	ordered := append([]models.Session(nil), sessions...)
	sortSessions(ordered)

	for _, session := range ordered {
		byDay, ok := master[session.Teacher]
		if !ok {
			byDay = make(map[Day][]models.Session)
			master[session.Teacher] = byDay
		}
		students := append([]models.SessionStudent(nil), session.Students...)
		sort.SliceStable(students, func(i, j int) bool {
			if !students[i].EnrolledAt.Equal(students[j].EnrolledAt) {
				return students[i].EnrolledAt.Before(students[j].EnrolledAt)
			}
			return students[i].ID < students[j].ID
		})
		session.Students = students
		day := Day(session.Day)
		byDay[day] = append(byDay[day], session)
	}

	return master
}
