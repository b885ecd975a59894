// Command mixctl is a developer harness for exercising the KeyMaker and
// Mixer trustee roles from a terminal: generate a key share (keyshare), or
// run a permutation-commitment-then-shuffle round (shuffle) against a small
// demonstration group. It is a developer tool, not an
// election orchestration layer or a trustee transport (SPEC_FULL.md §4,
// Non-goals) - it never talks to other trustees and keeps no state beyond
// one process invocation.
package main

import (
	"context"
	"encoding/json"
	"math/big"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/keymaker"
	"go.dedis.ch/mixnet/mixer"
	"go.dedis.ch/mixnet/workerpool"
)

// demoGroup is a small, fixed safe-prime group for interactive
// demonstration only - production callers must supply a cryptographically
// sized (p, q, g) via their own CryptoSettings.
//
// p = 2*q+1 with q prime; g = 2^2 mod p generates the order-q subgroup.
var (
	demoP, _ = new(big.Int).SetString("2000000000000001683", 10)
	demoQ, _ = new(big.Int).SetString("1000000000000000841", 10)
	demoG    = big.NewInt(4)
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:  "mixctl",
		Usage: "exercise the mixnet trustee core from the command line",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			keyShareCommand(),
			shuffleCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("mixctl failed")
	}
}

func keyShareCommand() *cli.Command {
	return &cli.Command{
		Name:  "keyshare",
		Usage: "generate a KeyMaker key share and print its DTO",
		Action: func(c *cli.Context) error {
			cs, err := demoCryptoSettings()
			if err != nil {
				return err
			}
			proverId := promptProverId()

			km := keymaker.New(cs)
			_, shareDTO, err := km.CreateShare(proverId)
			if err != nil {
				return err
			}
			return printJSON(shareDTO)
		},
	}
}

func shuffleCommand() *cli.Command {
	return &cli.Command{
		Name:  "shuffle",
		Usage: "run the offline+online shuffle on a freshly-encrypted demo batch",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "n", Value: 4, Usage: "ciphertext batch size"},
		},
		Action: func(c *cli.Context) error {
			cs, err := demoCryptoSettings()
			if err != nil {
				return err
			}
			n := c.Int("n")
			proverId := promptProverId()

			km := keymaker.New(cs)
			x, _, err := km.CreateShare(proverId)
			if err != nil {
				return err
			}
			y := cs.Exp(cs.Generator(), x)

			batch := make([]elgamal.Ciphertext, n)
			for i := 0; i < n; i++ {
				r, err := cs.RandomScalar()
				if err != nil {
					return err
				}
				batch[i] = elgamal.ReEncrypt(cs, y, elgamal.Ciphertext{A: cs.Identity(), B: cs.Identity()}, r)
			}

			m := mixer.New(cs, workerpool.New(0))
			_, result, err := m.PreShuffleAndShuffle(context.Background(), batch, y, proverId)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func promptProverId() string {
	def := xid.New().String()
	var answer string
	prompt := &survey.Input{Message: "prover id:", Default: def}
	if err := survey.AskOne(prompt, &answer); err != nil || answer == "" {
		return def
	}
	return answer
}

func demoCryptoSettings() (*group.CryptoSettings, error) {
	return group.NewCryptoSettings(demoP, demoQ, demoG)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
