package main

import (
	"errors"
	"fmt"

	"github.com/AlexZinkM/stealth-link/internal/config"
	"github.com/AlexZinkM/stealth-link/internal/crypto"
	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"
	"github.com/AlexZinkM/stealth-link/wallet"

	"github.com/urfave/cli/v2"
)

var generate = cli.Command{
	Name:  "generate",
	Usage: "generate a stealth wallet, or the operator Solana wallet with --operator",
	Flags: []cli.Flag{
		fileFlag,
		&cli.BoolFlag{
			Name:  "operator",
			Usage: "generate the operator wallet that funds claims and sponsors fees",
		},
	},
	Action: generateAction,
}

func generateAction(ctx *cli.Context) error {
	filePath, err := keyfilePath(ctx)
	if err != nil {
		return err
	}

	password, err := readNewPassword("New wallet password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	if ctx.Bool("operator") {
		address, err := wallet.GenerateOperatorWallet(filePath, password)
		if err != nil {
			return err
		}
		fmt.Println("Operator wallet:", address)
		return nil
	}

	metaAddress, err := wallet.GenerateStealthWallet(filePath, password)
	if err != nil {
		return err
	}
	fmt.Println("Meta-address:", metaAddress)
	return nil
}

var importWallet = cli.Command{
	Name:      "import",
	Usage:     "save an exported stealth wallet to a new keyfile",
	ArgsUsage: "<exported>",
	Flags:     []cli.Flag{fileFlag},
	Action:    importAction,
}

func importAction(ctx *cli.Context) error {
	filePath, err := keyfilePath(ctx)
	if err != nil {
		return err
	}
	exported := ctx.Args().First()
	if exported == "" {
		return errors.New("missing exported wallet argument")
	}

	password, err := readNewPassword("New wallet password: ")
	if err != nil {
		return err
	}
	defer clear(password)

	metaAddress, err := wallet.ImportStealthWallet(filePath, exported, password)
	if err != nil {
		return err
	}
	fmt.Println("Meta-address:", metaAddress)
	return nil
}

var export = cli.Command{
	Name:   "export",
	Usage:  "print both private keys of the stealth wallet as a portable string",
	Flags:  []cli.Flag{fileFlag},
	Action: exportAction,
}

func exportAction(ctx *cli.Context) error {
	w, err := openWallet(ctx)
	if err != nil {
		return err
	}
	defer w.Wipe()

	exported, err := stealth.ExportWallet(w)
	if err != nil {
		return err
	}

	printJSON(model.ExportResponse{
		Wallet:  exported,
		Warning: "Anyone holding this string can find and spend every payment to your meta-address. Store it offline.",
	})
	return nil
}

var rekey = cli.Command{
	Name:   "rekey",
	Usage:  "re-encrypt a keyfile under a new password",
	Flags:  []cli.Flag{fileFlag},
	Action: rekeyAction,
}

func rekeyAction(ctx *cli.Context) error {
	filePath, err := keyfilePath(ctx)
	if err != nil {
		return err
	}

	oldPassword, err := config.ReadPassword("Current password: ")
	if err != nil {
		return err
	}
	defer clear(oldPassword)

	newPassword, err := readNewPassword("New password: ")
	if err != nil {
		return err
	}
	defer clear(newPassword)

	if err := crypto.ReencryptWallet(filePath, oldPassword, newPassword); err != nil {
		return err
	}

	fmt.Println("Done")
	return nil
}

// openWallet prompts for the password and decrypts the stealth keyfile. The caller must Wipe it.
func openWallet(ctx *cli.Context) (*stealth.Wallet, error) {
	filePath, err := keyfilePath(ctx)
	if err != nil {
		return nil, err
	}

	password, err := config.ReadPassword("Wallet password: ")
	if err != nil {
		return nil, err
	}
	defer clear(password)

	return wallet.LoadStealthWallet(filePath, password)
}
