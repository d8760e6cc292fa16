// ABOUTME: Config command
// ABOUTME: Describes configuration keys with their current and default values
package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/spotlink/spotlink/internal/config"
)

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings and defaults",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Describe configuration fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				keys   = lo.Must(cmd.Flags().GetStringSlice("key"))
				asJSON = lo.Must(cmd.Flags().GetBool("json"))
				fields = lo.Values(config.Default)
			)

			if len(keys) > 0 {
				fields = make([]config.Field, 0, len(keys))
				for _, k := range keys {
					field, ok := config.Default[k]
					if !ok {
						return fmt.Errorf("unknown key %s", k)
					}
					fields = append(fields, field)
				}
			}

			sort.Slice(fields, func(i, j int) bool {
				return fields[i].Key < fields[j].Key
			})

			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(fields)
			}

			for i := range fields {
				if i > 0 {
					cmd.Println()
				}
				cmd.Println(fields[i].Pretty())
			}
			return nil
		},
	}

	info.Flags().StringSliceP("key", "k", []string{}, "Configuration keys to describe")
	info.Flags().BoolP("json", "j", false, "Format the output as JSON")
	lo.Must0(info.RegisterFlagCompletionFunc("key", completionConfigKeys))

	cmd.AddCommand(info)
	return cmd
}
