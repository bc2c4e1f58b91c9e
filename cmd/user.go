package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/setlist/internal/auth"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// UserCreate registers an account through the same validation the API uses.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts, _, _ := r.accounts(config, db)

	session, err := accounts.Register(ctx, cmd.String("username"), cmd.String("email"), cmd.String("password"))
	if err != nil {
		return describeAuthError(err)
	}

	r.logger.Info("user created", "id", session.User.ID, "username", session.User.Username)

	if cmd.Bool("json") {
		return r.writeJSON(session, true)
	}

	r.writePlain("✓ Created user %s (%s)\n", session.User.Username, session.User.ID)
	r.writePlain("Token: %s\n", session.Token)
	return nil
}

// UserToken issues a fresh bearer token for the user with --email.
func (r *Runner) UserToken(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	accounts, _, users := r.accounts(config, db)

	user, err := users.GetByEmail(ctx, cmd.String("email"))
	if err != nil {
		return err
	}

	token, err := accounts.IssueFor(user.ID())
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	return r.writePlain("%s\n", token)
}

// describeAuthError folds field errors into the message so they reach the terminal.
func describeAuthError(err error) error {
	authErr, ok := auth.AsError(err)
	if !ok || authErr.Kind != auth.KindValidation {
		return err
	}

	msg := authErr.Cause
	for _, f := range authErr.Fields {
		msg += fmt.Sprintf("; %s: %s", f.Field, f.Message)
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidInput, msg)
}
