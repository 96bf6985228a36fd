package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mazgpt/mazgpt-go/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts the user for an email, password and display name, creates
// the account and logs straight in with the same credentials.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter display name", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.Signup(ctx, email, password, name); err != nil {
		return err
	}
	printlnFn("Account created.")

	if _, err := a.session.Login(ctx, email, password); err != nil {
		return err
	}
	printlnFn("Logged in as", a.session.CurrentUser().Email)
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// When the backend demands a second factor, the login continues into a code
// prompt loop: the user may retry after an invalid code, and an empty code
// cancels the challenge.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	_, err = a.session.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrTwoFactorRequired) {
			return a.loginChallenge(ctx)
		}
		return err
	}

	printlnFn("Logged in as", a.session.CurrentUser().Email)
	return nil
}

func (a *App) loginChallenge(ctx context.Context) error {
	ch := a.session.PendingChallenge()
	if ch == nil {
		return common.ErrNotAuthenticated
	}
	a.twofa.BeginLoginChallenge(ch.Email, ch.Type)
	printlnFn(fmt.Sprintf("Two-factor verification required (%s).", ch.Type))

	for {
		code, err := getSimpleText(a.reader, "Enter verification code (empty to cancel)", os.Stdout)
		if err != nil {
			return err
		}
		if code == "" {
			a.twofa.Cancel()
			printlnFn("Login cancelled.")
			return nil
		}

		if err := a.twofa.CompleteLoginChallenge(ctx, code); err != nil {
			if errors.Is(err, common.ErrInvalidCode) {
				printlnFn("Invalid code, try again.")
				continue
			}
			return err
		}

		printlnFn("Logged in as", a.session.CurrentUser().Email)
		return nil
	}
}

// ResetPassword asks the backend to send a reset email.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.client.ResetPassword(ctx, email); err != nil {
		return err
	}

	printlnFn("If the address is registered, a reset email is on its way.")
	return nil
}

// Logout saves the current profile, terminates the server-side session and
// clears the local identity.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.chat.Reset()
	printlnFn("Logged out.")
	return nil
}

// WhoAmI prints the current user.
func (a *App) WhoAmI(ctx context.Context) error {
	user := a.session.CurrentUser()
	if user == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> tier=%s", user.Name, user.Email, user.Tier))
	return nil
}
