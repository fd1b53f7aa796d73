// Command hfstlookup reads surface forms from stdin, one per line, and
// prints every analysis an optimized-lookup transducer produces for each.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hfst-go/hfstol"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "hfstlookup").Logger()

func main() {
	transducerPath := flag.String("transducer", "", "path to an OL transducer file")
	configPath := flag.String("config", "", "optional YAML file overriding -limit/-timeout")
	limit := flag.Int("limit", 0, "maximum results per lookup (0 = unlimited)")
	timeoutFlag := flag.Duration("timeout", 0, "wall-clock budget per lookup (0 = unlimited)")
	pairs := flag.Bool("pairs", false, "print raw input/output symbol pairs instead of rendered strings")
	flag.Parse()

	if *transducerPath == "" {
		fmt.Fprintln(os.Stderr, "usage: hfstlookup -transducer FILE [-config FILE] [-limit N] [-timeout DURATION]")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("reading config")
	}
	if cfg.Limit != 0 {
		*limit = cfg.Limit
	}
	timeout := *timeoutFlag
	if cfg.Timeout != "" {
		timeout = cfg.timeout()
	}

	f, err := os.Open(*transducerPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *transducerPath).Msg("opening transducer")
	}
	defer f.Close()

	t, err := hfstol.NewTransducerFromReader(f)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *transducerPath).Msg("loading transducer")
	}
	logger.Debug().Int("states", int(t.Header.NumberOfStates)).Msg("transducer loaded")

	scanner := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if *pairs {
			for _, p := range t.LookupPairs(line, *limit, timeout) {
				fmt.Fprintf(out, "%s\t%v\t%v\t%g\n", line, p.Input, p.Output, p.Weight)
			}
			continue
		}
		results := t.Lookup(line, *limit, timeout)
		if len(results) == 0 {
			fmt.Fprintf(out, "%s\t+?\n", line)
			continue
		}
		for _, r := range results {
			fmt.Fprintf(out, "%s\t%s\t%g\n", line, r.Output, r.Weight)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal().Err(err).Msg("reading stdin")
	}
}
