package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dgnsrekt/orate/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cacheClear bool
	cachePrune bool

	cacheCmd = &cobra.Command{
		Use:     "cache",
		Short:   "Show or clear the synthesized audio cache",
		Long:    paragraph(fmt.Sprintf("\n%s how much synthesized audio is cached on disk, or clear it.", keyword("Show"))),
		Example: paragraph("orate cache\norate cache --prune\norate cache --clear"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := cacheConfig(viper.GetViper())
			if err != nil {
				return err
			}
			cfg.CleanupInterval = 0

			m, err := cache.NewManager(cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}
			defer m.Close() //nolint:errcheck

			switch {
			case cacheClear:
				if err := m.Clear(); err != nil {
					return err //nolint:wrapcheck
				}
				fmt.Fprintln(os.Stderr, paragraph(keyword("Cache cleared.")))
			case cachePrune:
				m.Cleanup()
			}
			printCacheStats(os.Stdout, cfg, m.Stats())
			return nil
		},
	}
)

func printCacheStats(w io.Writer, cfg cache.Config, stats cache.ManagerStats) {
	row := func(k string, v string) {
		fmt.Fprintf(w, "%s %s\n", keyword(fmt.Sprintf("%-10s", k)), v)
	}
	row("path", cfg.DiskPath)
	row("clips", humanize.Comma(stats.Disk.ItemCount))
	row("size", fmt.Sprintf("%s of %s",
		humanize.IBytes(uint64(stats.Disk.Size)),      //nolint:gosec
		humanize.IBytes(uint64(stats.Disk.Capacity)))) //nolint:gosec
	if cfg.TTL > 0 {
		row("ttl", cfg.TTL.String())
	}
	if !stats.LastCleanup.IsZero() {
		row("pruned", humanize.Time(stats.LastCleanup))
	}
}

func init() {
	cacheCmd.Flags().BoolVar(&cacheClear, "clear", false, "delete every cached clip")
	cacheCmd.Flags().BoolVar(&cachePrune, "prune", false, "delete clips older than the cache ttl")
}
