package main

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/core/catalog"
	"github.com/trezcool/videograder/core/grade"
	"github.com/trezcool/videograder/core/gradebook"
	"github.com/trezcool/videograder/core/override"
	"github.com/trezcool/videograder/core/roster"
	"github.com/trezcool/videograder/core/telemetry"
	"github.com/trezcool/videograder/storage/database"
	"github.com/trezcool/videograder/storage/database/inmem"
	"github.com/trezcool/videograder/storage/database/sqlx"
	"github.com/trezcool/videograder/storage/files"
)

var nowFunc = time.Now // mockable

// pipeline runs the grading stages in order. Each stage reports its outcome to the console
// and the logger; the first stage failing with an error aborts the run.
type pipeline struct {
	cli     *commandLine
	conf    *core.Config
	logger  core.Logger
	console io.Writer
	ctx     context.Context

	repo       telemetry.Repository
	cat        *catalog.Catalog
	courses    []*roster.Course
	students   []*roster.Student
	roster     *roster.Roster
	gradebooks *files.GradebookDir
}

func (cli *commandLine) newPipeline() *pipeline {
	return &pipeline{
		cli:        cli,
		conf:       cli.conf,
		logger:     cli.logger,
		console:    cli.console(),
		ctx:        context.Background(),
		gradebooks: files.NewGradebookDir(cli.conf.Path(cli.conf.Gradebooks.Folder)),
	}
}

func (p *pipeline) run() error {
	start := nowFunc()
	if err := p.stages(
		stage{"Connecting to the view database", p.openStore},
		stage{"Loading video data", p.loadCatalog},
		stage{"Validating class data", p.loadCourses},
		stage{"Loading student data", p.loadStudents},
		stage{"Building class lists", p.buildRoster},
		stage{"Refreshing student database", p.refreshRoster},
		stage{"Loading view reports", p.ingest},
	); err != nil {
		return err
	}

	setup := nowFunc()
	if err := p.stages(
		stage{"Loading instructor gradebooks", p.applyOverrides},
		stage{"Processing video grades", p.computeGrades},
		stage{"Creating instructor gradebooks", p.writeGradebooks},
		stage{"Emailing instructor gradebooks", p.emailGradebooks},
	); err != nil {
		return err
	}
	end := nowFunc()

	p.say("Program completed successfully.")
	p.say("Setup Time: %s", setup.Sub(start))
	p.say("Processing Time: %s", end.Sub(setup))
	p.say("Total Time: %s", end.Sub(start))
	return nil
}

// verify checks the input files without touching the view database or the gradebooks.
func (p *pipeline) verify() error {
	return p.stages(
		stage{"Loading video data", p.loadCatalog},
		stage{"Validating class data", p.loadCourses},
		stage{"Loading student data", p.loadStudents},
		stage{"Building class lists", p.buildRoster},
	)
}

func (p *pipeline) ingestOnly() error {
	return p.stages(
		stage{"Connecting to the view database", p.openStore},
		stage{"Loading view reports", p.ingest},
	)
}

type stage struct {
	name string
	fn   func() (core.Log, error)
}

func (p *pipeline) stages(stages ...stage) error {
	for _, s := range stages {
		log, err := s.fn()
		p.report(s.name, log, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// report echoes the outcome of a stage identically to the console and the logger.
// The logger gets a single message so that every sink keeps the stage name with its details.
func (p *pipeline) report(name string, log core.Log, err error) {
	status := log.Status()
	if err != nil {
		status = core.StatusError
	}

	lines := []string{fmt.Sprintf("%s... [ %s ]", name, status)}
	if !log.Empty() {
		lines = append(lines, log.String())
	}
	if err != nil {
		lines = append(lines, err.Error())
	}
	msg := strings.Join(lines, "\n")

	if p.console != nil {
		fmt.Fprintln(p.console, msg)
	}
	switch status {
	case core.StatusError:
		p.logger.Error(msg)
	case core.StatusWarning:
		p.logger.Warn(msg)
	default:
		p.logger.Info(msg)
	}
}

func (p *pipeline) say(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.console != nil {
		fmt.Fprintln(p.console, msg)
	}
	p.logger.Info(msg)
}

func (p *pipeline) openStore() (core.Log, error) {
	var log core.Log
	conf := p.conf.Database

	switch conf.Engine {
	case core.DBEngineMemory:
		db, err := inmemdb.Open()
		if err != nil {
			return log, err
		}
		p.repo = inmemdb.NewViewRepository(db)
		log.Printf("Using the in-memory view store; views are not kept between runs.")
		return log, nil

	case core.DBEnginePostgres:
		if err := p.cli.promptDBPassword(); err != nil {
			return log, errors.Wrap(err, "reading database password")
		}
		conf = p.conf.Database
		if err := database.CreateIfNotExist(p.ctx, conf); err != nil {
			return log, err
		}
		db, err := database.Open(p.ctx, conf)
		if err != nil {
			return log, err
		}
		p.cli.closers = append(p.cli.closers, func() { _ = db.Close() })
		if err = database.Migrate(db.DB); err != nil {
			return log, err
		}
		p.repo = sqlxrepos.NewViewRepository(db)
		return log, nil

	default:
		return log, errors.Errorf("unknown database engine %q", conf.Engine)
	}
}

func (p *pipeline) loadCatalog() (core.Log, error) {
	path := p.conf.Path(p.conf.Files.Videos)
	videos, log, err := files.ReadVideos(path)
	if err != nil {
		return log, err
	}

	cat, clog := catalog.New(videos)
	log.Append(clog)
	updated, err := cat.Verify()
	if err != nil {
		return log, err
	}
	if updated {
		if err = files.WriteVideos(path, cat.Videos()); err != nil {
			return log, err
		}
		log.Printf("Missing video lengths or links were filled in; %s was updated.", filepath.Base(path))
	}
	p.cat = cat
	return log, nil
}

func (p *pipeline) loadCourses() (core.Log, error) {
	courses, log, err := files.ReadClasses(p.conf.Path(p.conf.Files.Classes))
	if err != nil {
		return log, err
	}
	if err = roster.VerifyCourses(courses); err != nil {
		return log, err
	}
	for _, c := range courses {
		if len(p.cat.InPlaylist(c.Playlist)) == 0 {
			log.Warnf("Class %s uses playlist %s which has no videos in the video data.", c.Name, c.Playlist)
		}
	}
	p.courses = courses
	return log, nil
}

func (p *pipeline) loadStudents() (core.Log, error) {
	students, log, err := files.ReadStudents(p.conf.Path(p.conf.Files.Students))
	if err != nil {
		return log, err
	}
	students, dlog := roster.DedupeStudents(students)
	log.Append(dlog)
	p.students = students
	return log, nil
}

func (p *pipeline) buildRoster() (core.Log, error) {
	r, log := roster.Build(p.courses, p.students, p.cat)
	p.roster = r
	log.Printf("%d class(es), %d student(s).", len(r.Courses()), len(r.Students()))
	return log, nil
}

func (p *pipeline) refreshRoster() (core.Log, error) {
	extract := files.NewExtractReader(p.conf.Path(p.conf.Files.Extract), p.conf.Extract)
	store := files.NewStudentStore(p.conf.Path(p.conf.Files.Students))
	rc, err := roster.NewReconciler(extract, store, p.logger)
	if err != nil {
		return core.Log{}, err
	}
	return rc.Refresh(p.ctx, p.roster)
}

func (p *pipeline) ingest() (core.Log, error) {
	ing, err := telemetry.NewIngester(files.NewReportReader(p.conf.Reports), p.repo)
	if err != nil {
		return core.Log{}, err
	}
	pattern := filepath.Join(p.conf.Path(p.conf.Reports.Folder), p.conf.Reports.Pattern)
	return ing.Ingest(p.ctx, pattern)
}

func (p *pipeline) applyOverrides() (core.Log, error) {
	ledger, err := override.NewLedger(p.gradebooks)
	if err != nil {
		return core.Log{}, err
	}
	return ledger.Apply(p.ctx, p.roster, p.cat)
}

func (p *pipeline) computeGrades() (core.Log, error) {
	engine, err := grade.NewEngine(p.repo, nowFunc)
	if err != nil {
		return core.Log{}, err
	}
	return engine.Compute(p.ctx, p.roster, p.cat)
}

func (p *pipeline) writeGradebooks() (core.Log, error) {
	var log core.Log
	for _, c := range gradebook.SortedCourses(p.roster.Courses()) {
		path, err := p.gradebooks.Write(p.ctx, gradebook.Filename(c), gradebook.Rows(c, p.cat))
		if err != nil {
			return log, err
		}
		log.Printf("%s: %s", c.Name, filepath.Base(path))
	}
	return log, nil
}

func (p *pipeline) emailGradebooks() (core.Log, error) {
	var log core.Log
	if !p.conf.Email.Enabled {
		log.Printf("Email disabled.")
		return log, nil
	}

	messages := make([]*core.EmailMessage, 0, len(p.roster.Courses()))
	for _, c := range gradebook.SortedCourses(p.roster.Courses()) {
		if c.Email == "" {
			continue
		}
		addr, err := mail.ParseAddress(c.Email)
		if err != nil {
			log.Warnf("Class %s: invalid instructor email %q", c.Name, c.Email)
			continue
		}
		sum := gradebook.Summarize(c, p.cat)
		content, err := ioutil.ReadFile(filepath.Join(p.conf.Path(p.conf.Gradebooks.Folder), sum.Filename))
		if err != nil {
			return log, errors.Wrapf(err, "reading gradebook %s", sum.Filename)
		}

		msg := &core.EmailMessage{
			To:           []mail.Address{*addr},
			Subject:      "Video grades: " + c.Name,
			TemplateName: "gradebook",
			TemplateData: sum,
		}
		msg.Attach(content, sum.Filename, "text/csv")
		messages = append(messages, msg)
		log.Printf("%s: %s", c.Name, addr.Address)
	}

	if err := p.cli.mailSvc.SendMessages(p.ctx, messages...); err != nil {
		return log, err
	}
	return log, nil
}
