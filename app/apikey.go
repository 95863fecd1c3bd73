package app

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tenantgate/tenantgate/internal/daemon"
)

func init() { //nolint: gochecknoinits
	apikeyCreateCmd.Flags().StringVar(&apikeyOrg, "org", "", "provider id of the organization")
	apikeyCreateCmd.Flags().StringVar(&apikeyUser, "user", "", "provider id of the owning user")
	apikeyCreateCmd.Flags().StringVar(&apikeyName, "name", "cli", "name of the key")
	apikeyCreateCmd.Flags().DurationVar(&apikeyTTL, "ttl", 0, "validity of the key, 0 never expires")

	_ = apikeyCreateCmd.MarkFlagRequired("org")
	_ = apikeyCreateCmd.MarkFlagRequired("user")

	apikeyCmd.AddCommand(apikeyCreateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

var (
	apikeyOrg  string
	apikeyUser string
	apikeyName string
	apikeyTTL  time.Duration

	apikeyCmd = &cobra.Command{
		Use:   "apikey",
		Short: "Manage organization API keys",
	}

	apikeyCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an API key for an existing organization and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logCloser, err := loadConfig()
			if err != nil {
				return err
			}

			defer func() { _ = logCloser.Close() }()

			ctx := cmd.Context()

			store, db, err := daemon.OpenStore(ctx, &cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if sqlDB, dbErr := db.DB(); dbErr == nil {
				defer func() { _ = sqlDB.Close() }()
			}

			org, err := store.GetOrganizationByProviderID(ctx, apikeyOrg)
			if err != nil {
				return errors.Wrapf(err, "organization %q", apikeyOrg)
			}

			user, err := store.GetOrCreateUserByProviderID(ctx, apikeyUser)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if err = store.AddUserToOrganization(ctx, user.ID, org.ID); err != nil {
				return err //nolint:wrapcheck
			}

			key, plaintext, err := store.CreateAPIKey(ctx, org.ID, &user.ID, apikeyName, apikeyTTL)
			if err != nil {
				return err //nolint:wrapcheck
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "id: %d\nprefix: %s\nkey: %s\n", key.ID, key.KeyPrefix, plaintext)

			return err //nolint:wrapcheck
		},
	}
)
