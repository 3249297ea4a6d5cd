package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/tui"
)

var initTemplate = template.Must(template.New("config").Parse(`# antiarchy configuration written by "antiarchy init".

server:
  port: {{.Port}}
  read_timeout: 10s
  write_timeout: 30s

store:
  type: {{.StoreType}}
{{- if .StorePath}}
  path: {{printf "%q" .StorePath}}
{{- end}}

monitoring:
  log_level: info
  log_format: auto
  log_output: stdout

features:
  live:
    enabled: {{.Live}}
`))

type initAnswers struct {
	Port      int
	StoreType string
	StorePath string
	Live      bool
}

// defaultConfigPath is where serve looks first.
func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "antiarchy", "config.yaml"), nil
}

// runInit asks a few questions and writes a config file.
func runInit(args []string, t *tui.Terminal) int {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	output := fs.String("output", "", "where to write the config (default: ~/.config/antiarchy/config.yaml)")
	force := fs.Bool("force", false, "overwrite an existing file without asking")
	_ = fs.Parse(args)

	path := *output
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			t.Error(fmt.Sprintf("cannot locate home directory: %v", err))
			return 1
		}
	}

	if _, err := os.Stat(path); err == nil && !*force {
		if !t.PromptYesNo(fmt.Sprintf("%s exists. Overwrite?", path), false) {
			t.Info("left existing config untouched")
			return 0
		}
	}

	t.Header("antiarchy setup")
	answers, err := askInit(t, filepath.Dir(path))
	if errors.Is(err, tui.ErrCancelled) {
		t.Warn("setup cancelled")
		return 1
	}
	if err != nil {
		t.Error(err.Error())
		return 1
	}

	var buf bytes.Buffer
	if err := initTemplate.Execute(&buf, answers); err != nil {
		t.Error(err.Error())
		return 1
	}
	// never write a file serve would reject
	if _, err := config.LoadFromBytes(buf.Bytes()); err != nil {
		t.Error(err.Error())
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Error(err.Error())
		return 1
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Error(err.Error())
		return 1
	}
	t.Success("config written to " + path)
	return 0
}

func askInit(t *tui.Terminal, dir string) (*initAnswers, error) {
	a := &initAnswers{}

	for {
		port, err := strconv.Atoi(t.PromptString("HTTP port", "8080"))
		if err == nil && port > 0 && port <= 65535 {
			a.Port = port
			break
		}
		t.Warn("port must be a number between 1 and 65535")
	}

	idx, err := t.Select("Where should events be stored?", []tui.MenuItem{
		{Label: config.StoreSQLite, Description: "SQLite file, survives restarts"},
		{Label: config.StoreMemory, Description: "in memory, lost on exit"},
	})
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		a.StoreType = config.StoreSQLite
		a.StorePath = t.PromptString("Database file", filepath.Join(dir, "antiarchy.db"))
	} else {
		a.StoreType = config.StoreMemory
	}

	a.Live = t.PromptYesNo("Enable live updates over websocket?", true)
	return a, nil
}
