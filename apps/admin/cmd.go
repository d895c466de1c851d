package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/mwalimu/core/planner"
	"github.com/trezcool/mwalimu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sql.DB
	out        io.Writer
	usrRepo    user.Repository
	plannerSvc *planner.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - add or update an active user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  generate -week YYYY-MM-DD [-pacing strict|relaxed] [-buffer=true|false] - generate a weekly lesson plan")
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	generateCmd := flag.NewFlagSet("generate", flag.ContinueOnError)
	generateCmd.SetOutput(cli.out)
	generateWeek := generateCmd.String("week", "", "Any date of the week to plan, formatted as YYYY-MM-DD.")
	generatePacing := generateCmd.String("pacing", "", "The pacing strategy: strict or relaxed. Defaults to the configured one.")
	generateBuffer := generateCmd.String("buffer", "", "Keep one free block per day: true or false. Defaults to the configured one.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *generateWeek == "" {
			generateCmd.Usage()
			return errHelp
		}
		return cli.generate(*generateWeek, *generatePacing, *generateBuffer)

	default:
		cli.printUsage()
		return errHelp
	}
}
