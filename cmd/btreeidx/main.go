// Command btreeidx is an interactive front end over pkg/index: a persistent
// stdin loop that creates, opens, inserts into, and bulk-loads/extracts a
// single B-tree index file at a time.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cacheSize int
	logLevel  string
)

// flagLogValue reports a flag's effective value, noting whether the
// operator actually passed it or it's falling back to its default.
func flagLogValue(f *pflag.Flag) (value string, explicit bool) {
	return f.Value.String(), f.Changed
}

var rootCmd = &cobra.Command{
	Use:   "btreeidx",
	Short: "Interactive manager for a disk-resident B-Tree index",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

		if f := cmd.Flags().Lookup("cache-size"); f != nil {
			if v, explicit := flagLogValue(f); explicit {
				log.Debug().Str("cache-size", v).Msg("overriding node cache capacity")
			}
		}

		a := newApp(afero.NewOsFs(), os.Stdin, os.Stdout, log, cacheSize)
		os.Exit(a.run())
		return nil
	},
}

func init() {
	rootCmd.Flags().IntVar(&cacheSize, "cache-size", 0, "node cache capacity override (0 uses the default)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
