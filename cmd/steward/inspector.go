package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/propertystewards/steward/internal/config"
	"github.com/propertystewards/steward/internal/db"
	"github.com/propertystewards/steward/internal/phone"
	"github.com/propertystewards/steward/internal/store"
	"github.com/spf13/cobra"
)

func newInspectorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspector",
		Short: "Manage registered inspectors",
	}

	cmd.AddCommand(newInspectorAddCmd())
	cmd.AddCommand(newInspectorListCmd())
	return cmd
}

// withStore loads config, opens the database and hands a Store to fn.
func withStore(configPath string, fn func(*store.Store) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := openDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	st, err := store.New(store.Opts{DB: gormDB})
	if err != nil {
		return err
	}
	return fn(st)
}

func newInspectorAddCmd() *cobra.Command {
	var (
		configPath string
		name       string
		number     string
		email      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an inspector's WhatsApp number",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(st *store.Store) error {
				return runInspectorAdd(cmd, st, name, number, email)
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "inspector's display name (required)")
	cmd.Flags().StringVar(&number, "phone", "", "WhatsApp number, any format (required)")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func runInspectorAdd(cmd *cobra.Command, st *store.Store, name, number, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	normalized, err := phone.Normalize(number)
	if err != nil {
		return err
	}
	insp, err := st.CreateInspector(cmd.Context(), name, normalized, strings.TrimSpace(email))
	if err != nil {
		if db.IsDuplicateKey(err) {
			return fmt.Errorf("phone %s is already registered", normalized)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered inspector %d: %s (%s)\n", insp.ID, insp.Name, insp.WhatsAppNumber)
	return nil
}

func newInspectorListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered inspectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(configPath, func(st *store.Store) error {
				return runInspectorList(cmd, st)
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runInspectorList(cmd *cobra.Command, st *store.Store) error {
	out := cmd.OutOrStdout()
	inspectors, err := st.ListInspectors(cmd.Context())
	if err != nil {
		return err
	}
	if len(inspectors) == 0 {
		fmt.Fprintln(out, "No inspectors registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tACTIVE")
	for _, insp := range inspectors {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", insp.ID, insp.Name, insp.WhatsAppNumber, insp.Email, insp.Active)
	}
	return w.Flush()
}
