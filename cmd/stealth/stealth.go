package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/stealth-link/internal/model"
	"github.com/AlexZinkM/stealth-link/stealth"
	"github.com/AlexZinkM/stealth-link/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

var derive = cli.Command{
	Name:      "derive",
	Usage:     "derive a one-time address for a meta-address",
	ArgsUsage: "<meta-address>",
	Action:    deriveAction,
}

func deriveAction(ctx *cli.Context) error {
	metaAddress := ctx.Args().First()
	if metaAddress == "" {
		return errors.New("missing meta-address argument")
	}

	payment, err := stealth.DeriveStealthAddress(metaAddress)
	if err != nil {
		return err
	}

	printJSON(model.DeriveResponse{
		OneTimeAddress:  payment.OneTimeAddress.String(),
		EphemeralPubKey: stealth.EncodeEphemeralKey(payment.EphemeralPubKey[:]),
	})
	return nil
}

var check = cli.Command{
	Name:  "check",
	Usage: "check whether a one-time address belongs to the stealth wallet",
	Flags: []cli.Flag{
		fileFlag,
		&cli.StringFlag{
			Name:     "ephemeral",
			Usage:    "the published ephemeral public key",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "address",
			Usage:    "the one-time address",
			Required: true,
		},
	},
	Action: checkAction,
}

func checkAction(ctx *cli.Context) error {
	ephemeral, err := stealth.DecodeEphemeralKey(ctx.String("ephemeral"))
	if err != nil {
		return err
	}
	address, err := solana.PublicKeyFromBase58(ctx.String("address"))
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	w, err := openWallet(ctx)
	if err != nil {
		return err
	}
	defer w.Wipe()

	printJSON(model.CheckResponse{Owned: stealth.CheckStealthPayment(w, ephemeral, address)})
	return nil
}

var scan = cli.Command{
	Name:      "scan",
	Usage:     "find the payments to the stealth wallet in a JSON file of announcements",
	ArgsUsage: "<announcements.json>",
	Flags: []cli.Flag{
		fileFlag,
		&cli.BoolFlag{
			Name:  "keys",
			Usage: "print the spending key of every owned payment",
		},
	},
	Action: scanAction,
}

func scanAction(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return errors.New("missing announcements file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var announcements []model.Announcement
	if err := json.Unmarshal(data, &announcements); err != nil {
		return fmt.Errorf("failed to parse announcements: %w", err)
	}

	w, err := openWallet(ctx)
	if err != nil {
		return err
	}
	defer w.Wipe()

	printJSON(wallet.ScanAnnouncements(w, announcements, ctx.Bool("keys")))
	return nil
}
