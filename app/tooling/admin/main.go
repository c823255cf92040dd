// This program performs administrative tasks for the ledger.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/utxoledger/app/tooling/admin/commands"
	"github.com/ardanlabs/utxoledger/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		GenesisPath string `conf:"default:zblock/genesis.json"`
		AccountPath string `conf:"default:zblock/accounts/"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	return processCommands(cfg.Args, log, cfg.GenesisPath, cfg.AccountPath)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, log *zap.SugaredLogger, genesisPath string, accountPath string) error {
	switch args.Num(0) {
	case "demo":
		if err := commands.Demo(log, genesisPath, accountPath); err != nil {
			return fmt.Errorf("running demo: %w", err)
		}

	case "genkey":
		if err := commands.GenKey(args.Num(1), accountPath); err != nil {
			return fmt.Errorf("generating key: %w", err)
		}

	default:
		fmt.Println("demo:    run the transfer scenario against an in-memory ledger")
		fmt.Println("genkey:  generate a key file for the named account")
		fmt.Println("provide a command to get more help.")
	}

	return nil
}
