package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeusData/cypher-builder/internal/session"
)

func templatesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the query templates generated from a schema file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			sc, err := loadSchemaFile(cfg)
			if err != nil {
				return err
			}
			opts := session.DefaultOptions()
			opts.Schema = sc
			sess := session.New("cli", opts)
			defer sess.Close()

			out := cmd.OutOrStdout()
			for i, t := range sess.Templates() {
				fmt.Fprintf(out, "[%d] %s\n%s\n\n", i, t.Description, t.Cypher)
			}
			return nil
		},
	}
}

func renderCmd(g *globalFlags) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Apply a template to a fresh builder and print the rendered Cypher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			sc, err := loadSchemaFile(cfg)
			if err != nil {
				return err
			}
			opts := session.DefaultOptions()
			opts.Limits = cfg.EffectiveLimits()
			opts.Schema = sc
			sess := session.New("cli", opts)
			defer sess.Close()

			if _, err := sess.ApplyTemplate(index); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			view := sess.View()
			fmt.Fprintln(cmd.OutOrStdout(), view.Cypher)
			if view.Caption != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "next: %s\n", view.Caption)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "template", "t", 0, "Template index (see the templates command)")
	return cmd
}
