package main

import (
	"context"
	"fmt"

	"github.com/evalia/backend/core"
	termcore "github.com/evalia/backend/core/term"
)

func (cli *commandLine) createTerm(ctx context.Context, code string) error {
	nt := termcore.NewTerm{Code: core.CleanString(code)}
	if err := cli.termSvc.CheckCodeUniqueness(ctx, nt.Code); err != nil {
		return err
	}
	t, err := cli.termSvc.Create(ctx, nt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created term %s (%s)\n", t.Code, t.ID)
	return nil
}

func (cli *commandLine) setCurrentTerm(ctx context.Context, code string) error {
	code = core.CleanString(code)
	terms, err := cli.termSvc.Query(ctx)
	if err != nil {
		return err
	}
	for _, t := range terms {
		if t.Code == code {
			if _, err := cli.termSvc.SetCurrent(ctx, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "term %s is now current\n", t.Code)
			return nil
		}
	}
	return termcore.ErrNotFound
}
