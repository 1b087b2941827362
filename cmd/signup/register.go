package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
	"github.com/mark3labs/signup/internal/preview"
	"github.com/mark3labs/signup/internal/register"
	"github.com/mark3labs/signup/internal/tui/wizard"
	"github.com/spf13/cobra"
)

var registerFlags struct {
	endpoint string
	timeout  time.Duration
	headless bool
	dir      string

	email                string
	username             string
	password             string
	passwordConfirmation string
	firstName            string
	lastName             string
	contactNo            string
	alternateContactNo   string
	photo                string
	signature            string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	Long: `Register a new account through the interactive wizard.

The wizard has three steps (Account, Personal, Image). Each step is checked
before moving on; only the last step contacts the registration endpoint.

With --headless the same steps run without a UI, taking every value from
flags. Field errors are printed and the command exits non-zero.`,
	RunE: runRegister,
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerFlags.endpoint, "endpoint", "", "Registration endpoint URL (default: config endpoint)")
	f.DurationVar(&registerFlags.timeout, "timeout", 0, "Request timeout (default: config timeout)")
	f.BoolVar(&registerFlags.headless, "headless", false, "Run without TUI, reading values from flags")
	f.StringVar(&registerFlags.dir, "dir", "", "Directory the image picker starts in (default: current directory)")

	f.StringVar(&registerFlags.email, "email", "", "Email (headless)")
	f.StringVar(&registerFlags.username, "username", "", "Username (headless)")
	f.StringVar(&registerFlags.password, "password", "", "Password (headless; prefer SIGNUP_PASSWORD)")
	f.StringVar(&registerFlags.passwordConfirmation, "password-confirmation", "", "Password confirmation (headless, defaults to --password)")
	f.StringVar(&registerFlags.firstName, "first-name", "", "First name (headless)")
	f.StringVar(&registerFlags.lastName, "last-name", "", "Last name (headless)")
	f.StringVar(&registerFlags.contactNo, "contact-no", "", "Contact number (headless)")
	f.StringVar(&registerFlags.alternateContactNo, "alternate-contact-no", "", "Alternate contact number (headless)")
	f.StringVar(&registerFlags.photo, "photo", "", "Path to profile photo (headless)")
	f.StringVar(&registerFlags.signature, "signature", "", "Path to signature photo (headless)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	endpoint := registerFlags.endpoint
	if endpoint == "" {
		endpoint = cfg.Endpoint
	}
	timeout := registerFlags.timeout
	if timeout == 0 {
		timeout = cfg.Timeout
	}
	client := register.NewClient(endpoint, timeout)
	logger.Info("Registering against %s", client.Endpoint())

	if registerFlags.headless {
		data, err := headlessData()
		if err != nil {
			return err
		}
		return runHeadless(cmd.Context(), cmd.OutOrStdout(), client, data)
	}

	result, err := wizard.RunWizard(cmd.Context(), client, registerFlags.dir)
	if err != nil {
		if errors.Is(err, wizard.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registration cancelled.")
			return nil
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>\n", result.Data.Account.Username, result.Data.Account.Email)
	return nil
}

// headlessData builds the form from flags. The password may come from
// SIGNUP_PASSWORD to keep it out of shell history.
func headlessData() (form.Data, error) {
	password := registerFlags.password
	if password == "" {
		password = os.Getenv("SIGNUP_PASSWORD")
	}
	confirmation := registerFlags.passwordConfirmation
	if confirmation == "" {
		confirmation = password
	}

	d := form.Data{
		Account: form.Credentials{
			Email:                registerFlags.email,
			Username:             registerFlags.username,
			Password:             password,
			PasswordConfirmation: confirmation,
		},
		Personal: form.PersonalInfo{
			FirstName:          registerFlags.firstName,
			LastName:           registerFlags.lastName,
			ContactNo:          registerFlags.contactNo,
			AlternateContactNo: registerFlags.alternateContactNo,
		},
	}

	var err error
	if registerFlags.photo != "" {
		if d.Images.Photo, err = preview.Load(registerFlags.photo); err != nil {
			return d, fmt.Errorf("photo: %w", err)
		}
	}
	if registerFlags.signature != "" {
		if d.Images.SignaturePhoto, err = preview.Load(registerFlags.signature); err != nil {
			return d, fmt.Errorf("signature: %w", err)
		}
	}
	return d, nil
}

// runHeadless walks every step with the same controller the wizard uses.
func runHeadless(ctx context.Context, out io.Writer, sub form.Submitter, data form.Data) error {
	ctl := form.NewController(sub)

	for !ctl.Done() {
		step := ctl.Step()
		outcome := ctl.SubmitStep(ctx, data)

		switch outcome.Kind {
		case form.OutcomeAdvanced:
			fmt.Fprintf(out, "✓ %s\n", step)
		case form.OutcomeCompleted:
			fmt.Fprintf(out, "✓ %s\n", step)
			fmt.Fprintf(out, "Registered %s <%s>\n", data.Account.Username, data.Account.Email)
		case form.OutcomeInvalid, form.OutcomeRejected:
			fmt.Fprintf(out, "✗ %s\n", step)
			printFieldErrors(out, outcome.Errors)
			return fmt.Errorf("registration incomplete: %w", outcome.Err)
		case form.OutcomeFailed:
			fmt.Fprintf(out, "✗ %s: %s\n", step, form.GenericFailureMessage)
			return fmt.Errorf("%s: %w", form.GenericFailureMessage, outcome.Err)
		default:
			return fmt.Errorf("unexpected outcome at step %s", step)
		}
	}
	return nil
}

func printFieldErrors(out io.Writer, errs form.FieldErrors) {
	for _, field := range errs.Fields() {
		for _, msg := range errs[field] {
			fmt.Fprintf(out, "  %s: %s\n", field, msg)
		}
	}
}
