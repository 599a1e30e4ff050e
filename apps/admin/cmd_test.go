package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/evalia/backend/core"
	termcore "github.com/evalia/backend/core/term"
	dummydb "github.com/evalia/backend/storage/database/dummy"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	out := new(bytes.Buffer)
	cli := &commandLine{
		conf:    &core.Config{AppName: "Evalia", SecretKey: "secret"},
		termSvc: termcore.NewService(db, dummydb.NewTermRepository(db)),
		out:     out,
	}
	return cli, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "commission", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_terms(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "createterm: no code", args: []string{"createterm"}, wantErr: errHelp},
		{name: "createterm", args: []string{"createterm", "-code", "2026_1"}, wantOut: "created term 2026_1"},
		{name: "createterm: duplicate code", args: []string{"createterm", "-code", "2026_1"}, wantErrStr: "a term with this code already exists"},
		{name: "setcurrent: no code", args: []string{"setcurrent"}, wantErr: errHelp},
		{name: "setcurrent: unknown code", args: []string{"setcurrent", "-code", "1999_1"}, wantErr: termcore.ErrNotFound},
		{name: "setcurrent", args: []string{"setcurrent", "-code", "2026_1"}, wantOut: "term 2026_1 is now current"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			if err == nil {
				if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
					t.Errorf("cli.run() output = %q, want it to contain %q", out.String(), tt.wantOut)
				}
			} else if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("cli.run() error = %q, want it to contain %q", err, tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}

	current, err := cli.termSvc.GetCurrent(context.Background())
	if err != nil {
		t.Fatalf("GetCurrent() failed, %v", err)
	}
	if current.Code != "2026_1" {
		t.Errorf("GetCurrent() code = %s, want 2026_1", current.Code)
	}
}

func Test_commandLine_genToken(t *testing.T) {
	cli, out := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("prompted"), nil }

	tests := []cliTest{
		{name: "gentoken: no subject", args: []string{"gentoken", "-email", "kim@uni.test"}, wantErr: errHelp},
		{name: "gentoken: no email", args: []string{"gentoken", "-subject", "prof-1"}, wantErr: errHelp},
		{name: "gentoken", args: []string{"gentoken", "-subject", "prof-1", "-name", "Dr. Kim", "-email", "kim@uni.test", "-professor"}},
		{name: "gentoken: admin", args: []string{"gentoken", "-subject", "ops-1", "-email", "ops@uni.test", "-admin"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
			token := strings.TrimSpace(out.String())
			if strings.Count(token, ".") != 2 {
				t.Errorf("cli.run() output %q is not a JWT", token)
			}
		})
	}

	t.Run("gentoken: prompts for missing signing key", func(t *testing.T) {
		cli.conf.SecretKey = ""
		out.Reset()
		if err := cli.run([]string{"admin", "gentoken", "-subject", "prof-1", "-email", "kim@uni.test"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		if cli.conf.SecretKey != "prompted" {
			t.Errorf("SecretKey = %q, want the prompted value", cli.conf.SecretKey)
		}
	})
}
