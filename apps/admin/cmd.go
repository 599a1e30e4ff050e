package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/evalia/backend/core"
	termcore "github.com/evalia/backend/core/term"
	"github.com/evalia/backend/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf    *core.Config
	db      *database.DB
	termSvc *termcore.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, create, ...)")
	fmt.Println("  createterm -code CODE - create a new academic term")
	fmt.Println("  setcurrent -code CODE - make a term current, rolling the previous one over")
	fmt.Println("  gentoken -subject ID -name NAME -email EMAIL [-professor] [-admin] - issue an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createTermCmd := flag.NewFlagSet("createterm", flag.ExitOnError)
	createTermCode := createTermCmd.String("code", "", "The term's code, eg. 2026_1.")

	setCurrentCmd := flag.NewFlagSet("setcurrent", flag.ExitOnError)
	setCurrentCode := setCurrentCmd.String("code", "", "The code of the term to make current.")

	genTokenCmd := flag.NewFlagSet("gentoken", flag.ExitOnError)
	genTokenSubject := genTokenCmd.String("subject", "", "The platform account ID the token is issued to.")
	genTokenName := genTokenCmd.String("name", "", "The account's display name.")
	genTokenEmail := genTokenCmd.String("email", "", "The account's email.")
	genTokenProf := genTokenCmd.Bool("professor", false, "Grant professor access.")
	genTokenAdmin := genTokenCmd.Bool("admin", false, "Grant admin access.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createterm":
		if err := createTermCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createTermCode == "" {
			createTermCmd.Usage()
			return errHelp
		}
		return cli.createTerm(ctx, *createTermCode)
	case "setcurrent":
		if err := setCurrentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setCurrentCode == "" {
			setCurrentCmd.Usage()
			return errHelp
		}
		return cli.setCurrentTerm(ctx, *setCurrentCode)
	case "gentoken":
		if err := genTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genTokenSubject == "" || *genTokenEmail == "" {
			genTokenCmd.Usage()
			return errHelp
		}
		if cli.conf.SecretKey == "" {
			fmt.Print("Enter signing key:")
			key, err := readPasswordFunc(syscall.Stdin)
			fmt.Println()
			if err != nil {
				return err
			}
			if len(key) == 0 {
				genTokenCmd.Usage()
				return errHelp
			}
			cli.conf.SecretKey = string(key)
		}
		return cli.genToken(*genTokenSubject, *genTokenName, *genTokenEmail, *genTokenProf, *genTokenAdmin)
	default:
		cli.printUsage()
		return errHelp
	}
}
