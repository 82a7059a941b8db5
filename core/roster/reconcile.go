package roster

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core"
)

// Enrollment is one record of the institutional enrollment extract.
type Enrollment struct {
	Course    string
	SID       string
	FirstName string
	LastName  string
	Username  string
}

func (e Enrollment) Key() Key { return Key{SID: e.SID, Course: e.Course} }

// ExtractReader reads the current enrollment extract.
type ExtractReader interface {
	ReadEnrollments(ctx context.Context) ([]Enrollment, error)
}

type Reconciler struct {
	extract ExtractReader
	store   Store
	logger  core.Logger
}

func NewReconciler(extract ExtractReader, store Store, logger core.Logger) (*Reconciler, error) {
	if err := vala.BeginValidation().Validate(
		core.Required(extract, "extract"),
		core.Required(store, "store"),
		core.Required(logger, "logger"),
	).Check(); err != nil {
		return nil, err
	}
	return &Reconciler{extract: extract, store: store, logger: logger}, nil
}

// Refresh adds the students of known courses that appear in the extract and withdraws the
// withdrawable ones that no longer do. The roster is saved whatever happened.
// An unreadable or empty extract leaves the roster untouched.
func (rc *Reconciler) Refresh(ctx context.Context, r *Roster) (core.Log, error) {
	var log core.Log

	enrollments, err := rc.extract.ReadEnrollments(ctx)
	if err != nil {
		rc.logger.Warn("enrollment extract unavailable, skipping roster refresh", err)
	} else if len(enrollments) > 0 {
		log = reconcile(r, enrollments)
	}

	if err := rc.store.SaveStudents(ctx, r.Students()); err != nil {
		return log, errors.Wrap(err, "saving students")
	}
	return log, nil
}

func reconcile(r *Roster, enrollments []Enrollment) core.Log {
	var log core.Log
	courses := r.CourseNames()
	current := r.Students()

	enrolled := make(map[Key]bool, len(enrollments))
	for _, e := range enrollments {
		enrolled[e.Key()] = true
	}

	for _, e := range enrollments {
		if !courses[e.Course] || r.Has(e.Key()) {
			continue
		}
		s := &Student{
			FirstNames:  Names{core.CleanString(e.FirstName, true)},
			LastNames:   Names{core.CleanString(e.LastName, true)},
			SID:         e.SID,
			Username:    e.Username,
			Course:      e.Course,
			CanWithdraw: true,
		}
		if err := r.Add(s); err != nil {
			continue
		}
		log.Printf("Student Added: %s: %s", s.DisplayName(), s.Course)
	}

	for _, s := range current {
		if !s.CanWithdraw || !courses[s.Course] || enrolled[s.Key()] {
			continue
		}
		if r.Remove(s.Key()) {
			log.Printf("Withdraw: %s: %s", s.DisplayName(), s.Course)
		}
	}
	return log
}
