package main

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Bryanb141518/api-profecional/internal/database"
	"github.com/Bryanb141518/api-profecional/internal/repository"
	"github.com/Bryanb141518/api-profecional/internal/security"
	"github.com/Bryanb141518/api-profecional/internal/service"
	"github.com/Bryanb141518/api-profecional/internal/validation"
)

func NewCreateSuperuserCmd() *cobra.Command {
	var input service.ProvisionInput

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an active staff superuser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := database.NewPostgresPool(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			defer pool.Close()

			hasher := security.NewArgon2Hasher(security.ParamsFromConfig(cfg.Security.Argon2))
			users := service.NewUserService(repository.NewUserRepository(pool, hasher), cfg, zerolog.Nop())

			input.Superuser = true
			user, err := users.ProvisionUser(cmd.Context(), input)
			if err != nil {
				var set validation.Errors
				if errors.As(err, &set) {
					for field, msgs := range set.Fields() {
						for _, msg := range msgs {
							cmd.PrintErrf("%s: %s\n", field, msg)
						}
					}
					return oops.Code("INVALID_INPUT").Errorf("superuser not created")
				}
				return err
			}

			cmd.Printf("Superuser %s created (id %s)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "password")
	cmd.Flags().StringVar(&input.Nombre, "nombre", "", "given name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("nombre")

	return cmd
}
