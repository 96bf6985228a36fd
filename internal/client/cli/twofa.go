package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mazgpt/mazgpt-go/internal/client/models"
	"github.com/mazgpt/mazgpt-go/internal/common"
)

// TwoFA dispatches the 2fa subcommands: status, enable, verify, disable.
func (a *App) TwoFA(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: 2fa status|enable|verify|disable", common.ErrValidation)
	}

	switch args[0] {
	case "status":
		return a.twoFAStatus(ctx)
	case "enable":
		return a.twoFAEnable(ctx, args[1:])
	case "verify":
		return a.twoFAVerify(ctx)
	case "disable":
		return a.twoFADisable(ctx)
	default:
		return fmt.Errorf("%w: unknown 2fa subcommand %q", common.ErrValidation, args[0])
	}
}

func (a *App) twoFAStatus(ctx context.Context) error {
	st, err := a.twofa.Status(ctx)
	if err != nil {
		return err
	}
	if st.Enabled {
		printlnFn("2FA is enabled, type:", string(st.Type))
	} else {
		printlnFn("2FA is disabled.")
	}
	return nil
}

func (a *App) twoFAEnable(ctx context.Context, args []string) error {
	typ := models.TwoFactorTOTP
	if len(args) > 0 {
		typ = models.TwoFactorType(args[0])
	}

	e, err := a.twofa.Enroll(ctx, typ)
	if err != nil {
		return err
	}

	if e.Secret != "" {
		printlnFn("Secret:", e.Secret)
		printlnFn("Add it to your authenticator app:", e.OtpauthURL)
	}
	if e.LastMessage != "" {
		printlnFn(e.LastMessage)
	}
	printlnFn("Run '2fa verify' with the code to finish setup.")
	return nil
}

func (a *App) twoFAVerify(ctx context.Context) error {
	for {
		code, err := getSimpleText(a.reader, "Enter verification code (empty to cancel)", os.Stdout)
		if err != nil {
			return err
		}
		if code == "" {
			a.twofa.Cancel()
			printlnFn("Setup cancelled.")
			return nil
		}

		if err := a.twofa.Verify(ctx, code); err != nil {
			if errors.Is(err, common.ErrInvalidCode) {
				printlnFn("Invalid code, try again.")
				continue
			}
			return err
		}

		printlnFn("2FA enabled.")
		return nil
	}
}

func (a *App) twoFADisable(ctx context.Context) error {
	if err := a.twofa.Disable(ctx); err != nil {
		return err
	}
	printlnFn("2FA disabled.")
	return nil
}
