package main

import (
	"fmt"

	"github.com/trezcool/videograder/storage/files"
)

// importClasses builds a class list from the registrar's schedule workbook.
func (cli *commandLine) importClasses(schedulePath, outPath string) error {
	conf := cli.conf.Schedule
	if schedulePath == "" {
		schedulePath = cli.conf.Path(conf.File)
	}
	if outPath == "" {
		outPath = cli.conf.Path(conf.Output)
	}

	records, log, err := files.ImportSchedule(schedulePath, conf)
	if err != nil {
		return err
	}
	for _, line := range log.Lines() {
		fmt.Fprintln(cli.out, line)
	}
	if log.Warnings() > 0 {
		cli.logger.Warn("Schedule import:\n" + log.String())
	}

	if err = files.WriteClasses(outPath, records); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d class(es) written to %s\n", len(records), outPath)
	cli.logger.Info(fmt.Sprintf("%d class(es) written to %s", len(records), outPath))
	return nil
}
