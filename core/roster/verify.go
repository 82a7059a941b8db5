package roster

import (
	"github.com/trezcool/videograder/core"
)

// VerifyCourses rejects course lists naming the same course twice.
func VerifyCourses(courses []*Course) error {
	seen := make(map[string]bool, len(courses))
	for _, c := range courses {
		if seen[c.Name] {
			return core.NewConfigError(c.Name, "listed twice in the class list; this must be corrected before grading", nil)
		}
		seen[c.Name] = true
	}
	return nil
}

// DedupeStudents drops repeated (sid, course) records, keeping the first one.
func DedupeStudents(students []*Student) ([]*Student, core.Log) {
	var log core.Log
	seen := make(map[Key]bool, len(students))
	kept := make([]*Student, 0, len(students))
	for _, s := range students {
		if seen[s.Key()] {
			log.Warnf("Student: %s was found listed twice in the course %s ==> The duplicate record was removed.", s.DisplayName(), s.Course)
			continue
		}
		seen[s.Key()] = true
		kept = append(kept, s)
	}
	return kept, log
}
