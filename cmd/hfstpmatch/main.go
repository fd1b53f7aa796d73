// Command hfstpmatch reads text from stdin, one line at a time, and runs a
// pmatch grammar against each line in either match or locate mode.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hfst-go/hfstol/pmatch"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "hfstpmatch").Logger()

func main() {
	containerPath := flag.String("grammar", "", "path to a pmatch container file (toplevel transducer plus named RTNs)")
	configPath := flag.String("config", "", "optional YAML file overriding -timeout/-weight-limit")
	mode := flag.String("mode", "match", "match or locate")
	timeoutFlag := flag.Duration("timeout", 0, "wall-clock budget per line (0 = unlimited)")
	weightLimitFlag := flag.Float64("weight-limit", 0, "weight ceiling per line (0 = unlimited)")
	flag.Parse()

	if *containerPath == "" || (*mode != "match" && *mode != "locate") {
		fmt.Fprintln(os.Stderr, "usage: hfstpmatch -grammar FILE [-mode match|locate] [-config FILE] [-timeout DURATION] [-weight-limit N]")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("reading config")
	}
	timeout := *timeoutFlag
	if cfg.Timeout != "" {
		timeout = cfg.timeout()
	}
	weightLimit := float32(*weightLimitFlag)
	if cfg.WeightLimit != 0 {
		weightLimit = float32(cfg.WeightLimit)
	}

	f, err := os.Open(*containerPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *containerPath).Msg("opening grammar")
	}
	defer f.Close()

	container, err := pmatch.NewContainerFromReader(f)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *containerPath).Msg("loading grammar")
	}
	logger.Debug().Str("mode", *mode).Msg("grammar loaded")

	scanner := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		switch *mode {
		case "match":
			result, err := container.Match(line, timeout, weightLimit)
			if err != nil {
				logger.Error().Err(err).Str("line", line).Msg("match failed")
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", line, result)
		case "locate":
			matches, err := container.Locate(line, timeout, weightLimit)
			if err != nil {
				logger.Error().Err(err).Str("line", line).Msg("locate failed")
				continue
			}
			for _, locs := range matches {
				for _, loc := range locs {
					fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%g\n", line, loc.Tag, loc.Start, loc.Length, loc.Weight)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal().Err(err).Msg("reading stdin")
	}
}
