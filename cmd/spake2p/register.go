package main

import (
	"encoding/hex"
	"fmt"

	spake2plus "github.com/backkem/spake2plus-go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// registration is the output of password hardening.
type registration struct {
	W0, W1, L []byte
}

func register(a *app, password, salt []byte) (*registration, error) {
	w0, w1, err := spake2plus.DeriveScalars(password, salt, a.kdfParams())
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	L, err := spake2plus.RegistrationRecord(w1, opts)
	if err != nil {
		return nil, err
	}
	return &registration{W0: w0, W1: w1, L: L}, nil
}

func registerCmd(a *app) *cobra.Command {
	var password, salt string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Derive w0, w1 and the registration record L from a password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			reg, err := register(a, []byte(password), []byte(salt))
			if err != nil {
				return err
			}
			a.logger.Debug("registration derived", zap.String("kdf", a.cfg.KDF))
			fmt.Fprintf(a.out, "w0: %s\n", hex.EncodeToString(reg.W0))
			fmt.Fprintf(a.out, "w1: %s\n", hex.EncodeToString(reg.W1))
			fmt.Fprintf(a.out, "L:  %s\n", hex.EncodeToString(reg.L))
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password to register")
	cmd.Flags().StringVar(&salt, "salt", "", "salt for password hardening")
	return cmd
}
