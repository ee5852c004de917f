// Command adduser creates a ledger account directly against the configured
// store (DB_DRIVER and friends), without going through the API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/geocoder89/finledger/internal/config"
	"github.com/geocoder89/finledger/internal/domain/user"
	"github.com/geocoder89/finledger/internal/repo"
	"github.com/geocoder89/finledger/internal/security"
	"github.com/geocoder89/finledger/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"golang.org/x/term"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("adduser", flag.ContinueOnError)
	flags.SetOutput(stderr)

	email := flags.String("email", "", "Email address")
	firstName := flags.String("first", "", "First name")
	lastName := flags.String("last", "", "Last name")
	passwordFlag := flags.String("password", "", "Password (prompted for when omitted)")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *email == "" || *firstName == "" || *lastName == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> -first <first name> -last <last name> [-password <password>]")
		flags.PrintDefaults()
		return errors.New("missing required flags: email, first, last")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	params := user.CreateParams{
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
		Password:  password,
	}
	if err := newValidator().Struct(params); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	stores, err := repo.Open(openCtx, cfg, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer stores.Close()

	users := service.NewUserAccountManager(stores.Users, security.NewBcryptHasher(cfg.BcryptCost), service.UUIDGenerator{}, log)

	u, err := users.Create(ctx, params)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created with id %s\n", u.Email, u.ID)
	return nil
}

// newValidator checks the same binding rules the HTTP API applies.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// piped input: first line
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
