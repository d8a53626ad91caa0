package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"lyricsmith/internal/pipeline"
	"lyricsmith/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func paint(kind statusKind, value string, colorize bool) string {
	if !colorize {
		return value
	}
	return statusKindColor(kind) + value + ansiReset
}

// preflightKind grades a check: optional failures only warn.
func preflightKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func stageKind(status pipeline.StageStatus) statusKind {
	switch status {
	case pipeline.StatusSuccess:
		return statusOK
	case pipeline.StatusDegraded:
		return statusWarn
	case pipeline.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func renderPreflight(results []preflight.Result, colorize bool) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, paint(preflightKind(r), statusKindLabel(preflightKind(r)), colorize), r.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows)
}

func renderStages(stages map[string]pipeline.StageStatus, colorize bool) string {
	rows := make([][]string, 0, len(stages))
	for _, name := range pipeline.StageNames() {
		status, ok := stages[name]
		if !ok {
			status = pipeline.StatusPending
		}
		rows = append(rows, []string{name, paint(stageKind(status), string(status), colorize)})
	}
	return renderTable([]string{"Stage", "Status"}, rows)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
