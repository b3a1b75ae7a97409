// Package admin implements the operator tool that creates administrator
// accounts directly against the database, for installations that have no
// administrator yet to call the admin HTTP routes.
package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophjournal/internal/server/models"
)

const generatedPasswordBytes = 16

var ErrPasswordMismatch = errors.New("passwords do not match")

// Registrar creates administrator accounts.
type Registrar interface {
	RegisterAdmin(ctx context.Context, userName, secret string) (*models.Account, error)
}

// Bootstrapper collects administrator credentials interactively.
type Bootstrapper struct {
	registrar Registrar
	reader    *bufio.Reader
	out       io.Writer
}

func NewBootstrapper(r Registrar, in io.Reader, out io.Writer) *Bootstrapper {
	return &Bootstrapper{registrar: r, reader: bufio.NewReader(in), out: out}
}

// CreateAdmin registers an administrator named userName, prompting for the
// name when it is empty. With generate set, a random password is created and
// printed once instead of being read from the terminal.
func (b *Bootstrapper) CreateAdmin(ctx context.Context, userName string, generate bool) error {
	var err error
	if userName == "" {
		userName, err = GetSimpleText(b.reader, "Enter administrator user name", b.out)
		if err != nil {
			return err
		}
	}

	var secret string
	if generate {
		secret, err = generatePassword(generatedPasswordBytes)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
	} else {
		secret, err = b.readConfirmedPassword()
		if err != nil {
			return err
		}
	}

	a, err := b.registrar.RegisterAdmin(ctx, userName, secret)
	if err != nil {
		return err
	}

	fmt.Fprintf(b.out, "Administrator %q created (id %s)\n", a.UserName, a.ID)
	if generate {
		fmt.Fprintf(b.out, "Generated password: %s\n", secret)
	}
	return nil
}

func (b *Bootstrapper) readConfirmedPassword() (string, error) {
	pw, err := GetPassword("Enter password: ", b.out)
	if err != nil {
		return "", err
	}
	defer wipe(pw)

	again, err := GetPassword("Repeat password: ", b.out)
	if err != nil {
		return "", err
	}
	defer wipe(again)

	if !bytes.Equal(pw, again) {
		return "", ErrPasswordMismatch
	}
	return string(pw), nil
}
