package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medchat/internal/provision"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download the model file if it is not cached",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			popts, err := provisionOptions(cfg, log)
			if err != nil {
				return err
			}
			if popts.Policy == provision.Temp {
				return fmt.Errorf("fetch needs model.cache=persistent")
			}
			res, err := provision.Ensure(cmd.Context(), popts)
			if err != nil {
				return err
			}
			state := "cached"
			if res.Downloaded {
				state = "downloaded"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes)\n", state, res.Path, res.Bytes)
			return nil
		},
	}
}
