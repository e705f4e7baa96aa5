package main

import (
	"fmt"

	"loan-eligibility-workers/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the worker activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the embedded registry, or the file given by --path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the registered task types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		for _, a := range reg.Activities {
			fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-12s %s\n", a.TaskType, a.Version, a.DisplayName)
		}
		return nil
	},
}

func loadRegistry() (*registry.ActivityRegistry, error) {
	if registryPath != "" {
		return registry.LoadRegistry(registryPath)
	}
	return registry.Default()
}

func init() {
	registryCmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file (default is the embedded registry)")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd)
	rootCmd.AddCommand(registryCmd)
}
