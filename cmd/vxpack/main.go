/*
vxpack builds and inspects engine asset packs: the single-file archives
the asset registry mounts in shipped builds instead of walking loose
files.
*/
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hcfgod/Vortex-sub001/engine/assets"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vxpack",
		Short:         "Build and inspect engine asset packs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newPackCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newExtractCommand())

	return cmd
}

func newPackCommand() *cobra.Command {
	var extensions []string
	var excludeDirs []string

	cmd := &cobra.Command{
		Use:   "pack <assets-root> <output.vxpk>",
		Short: "Pack an assets tree into a single archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := assets.BuildAssetsPack(assets.BuildOptions{
				AssetsRoot:  args[0],
				OutputPath:  args[1],
				Extensions:  extensions,
				ExcludeDirs: excludeDirs,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "packed %d entries into %s\n", count, args[1])
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&extensions, "ext", nil,
		"only pack files with these extensions (default: everything)")
	cmd.Flags().StringSliceVar(&excludeDirs, "exclude", nil,
		"directory names to skip entirely")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <pack.vxpk>",
		Short: "List the entries stored in a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pack, err := assets.OpenPack(args[0])
			if err != nil {
				return err
			}
			defer pack.Close()

			keys := pack.Keys()
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries\n", len(keys))
			return nil
		},
	}
}

func newExtractCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "extract <pack.vxpk> <key>",
		Short: "Extract one entry from a pack",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pack, err := assets.OpenPack(args[0])
			if err != nil {
				return err
			}
			defer pack.Close()

			data, err := pack.Read(args[1])
			if err != nil {
				return err
			}

			dest := outPath
			if dest == "" {
				dest = filepath.Base(args[1])
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "",
		"destination path (default: the entry's file name)")

	return cmd
}
