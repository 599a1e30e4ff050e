package main

import (
	"fmt"

	echoapi "github.com/evalia/backend/apps/api/echo"
)

// genToken issues a signed API token, mainly for local development against
// a deployment whose signing key we hold.
func (cli *commandLine) genToken(subject, name, email string, isProfessor, isAdmin bool) error {
	claims := echoapi.NewClaims(cli.conf, subject, name, email, isProfessor, isAdmin)
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
