package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/videograder/core"
	"github.com/trezcool/videograder/services/email"
	"github.com/trezcool/videograder/services/logger"
)

var (
	// mockable
	readPasswordFunc = term.ReadPassword
	isTerminalFunc   = term.IsTerminal

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out     io.Writer
	conf    *core.Config
	logger  core.Logger
	mailSvc core.EmailService
	closers []func()
}

func newCommandLine(out io.Writer) *commandLine {
	return &commandLine{out: out}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  run [-config FILE]                      - ingest reports, grade and export the gradebooks")
	fmt.Fprintln(cli.out, "  verify [-config FILE]                   - validate the video, class and student files")
	fmt.Fprintln(cli.out, "  ingest [-config FILE]                   - load the view reports into the database")
	fmt.Fprintln(cli.out, "  migrate [-config FILE] COMMAND [ARGS]   - run a goose migration command")
	fmt.Fprintln(cli.out, "  classes [-config FILE] [-schedule XLSX] [-out CSV] - build a class list from the schedule")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	configPath := cmd.String("config", "", "Path of the configuration file.")
	schedulePath := cmd.String("schedule", "", "Class schedule workbook (classes only; defaults to schedule.file).")
	outPath := cmd.String("out", "", "Class list to write (classes only; defaults to schedule.output).")

	switch args[1] {
	case "run", "verify", "ingest", "migrate", "classes":
		if err := cmd.Parse(args[2:]); err != nil {
			if err == flag.ErrHelp {
				return errHelp
			}
			return err
		}
	default:
		cli.printUsage()
		return errHelp
	}

	if args[1] == "migrate" && cmd.NArg() == 0 {
		cmd.Usage()
		return errHelp
	}
	if err := cli.setup(*configPath); err != nil {
		return err
	}

	switch args[1] {
	case "run":
		return cli.newPipeline().run()
	case "verify":
		return cli.newPipeline().verify()
	case "ingest":
		return cli.newPipeline().ingestOnly()
	case "migrate":
		return cli.migrate(cmd.Args())
	default: // classes
		return cli.importClasses(*schedulePath, *outPath)
	}
}

// setup loads the configuration and the services that were not injected.
func (cli *commandLine) setup(configPath string) error {
	if cli.conf == nil {
		conf, err := core.NewConfig(configPath)
		if err != nil {
			return err
		}
		cli.conf = conf
	}

	if cli.logger == nil {
		f, err := os.OpenFile(cli.conf.Path(cli.conf.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		std := log.New(f, cli.conf.AppName+" : ", log.LstdFlags|log.Lmicroseconds)
		rl := logsvc.NewRollbarLogger(std, cli.conf)
		cli.logger = rl
		cli.closers = append(cli.closers, rl.Close, func() { _ = f.Close() })
	}

	if cli.mailSvc == nil {
		if cli.conf.Debug || cli.conf.Email.SendgridAPIKey == "" {
			cli.mailSvc = emailsvc.NewConsoleService(cli.conf, cli.console())
		} else {
			cli.mailSvc = emailsvc.NewSendgridService(cli.conf)
		}
	}
	return nil
}

// console is where stage outcomes are echoed; nil when stdout is not a terminal or echo is suppressed.
func (cli *commandLine) console() io.Writer {
	if cli.conf.Console.Suppress {
		return nil
	}
	if f, ok := cli.out.(*os.File); ok && !isTerminalFunc(int(f.Fd())) {
		return nil
	}
	return cli.out
}

// promptDBPassword asks for the database password when none is configured and a terminal is attached.
func (cli *commandLine) promptDBPassword() error {
	db := &cli.conf.Database
	if db.Engine != core.DBEnginePostgres || db.User == "" || db.Password != "" {
		return nil
	}
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return nil
	}
	fmt.Fprintf(cli.out, "Enter password for database user %s:", db.User)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	db.Password = string(pwd)
	return nil
}

func (cli *commandLine) close() {
	for i := len(cli.closers) - 1; i >= 0; i-- {
		cli.closers[i]()
	}
	cli.closers = nil
}
