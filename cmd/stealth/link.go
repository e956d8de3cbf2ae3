package main

import (
	"errors"

	"github.com/AlexZinkM/stealth-link/claim"

	"github.com/urfave/cli/v2"
)

var link = cli.Command{
	Name:      "link",
	Usage:     "decode a claim link, failing unless its secret matches the address",
	ArgsUsage: "<link>",
	Action:    linkAction,
}

type linkInfo struct {
	OneTimeAddress string `json:"oneTimeAddress"`
	Chain          string `json:"chain,omitempty"`
	Token          string `json:"token,omitempty"`
	Base           string `json:"base"`
}

func linkAction(ctx *cli.Context) error {
	raw := ctx.Args().First()
	if raw == "" {
		return errors.New("missing link argument")
	}

	l, err := claim.ParseLink(raw)
	if err != nil {
		return err
	}
	defer l.Wipe()

	printJSON(linkInfo{
		OneTimeAddress: l.OneTimeAddress.String(),
		Chain:          l.Chain,
		Token:          l.Token,
		Base:           l.BaseURL,
	})
	return nil
}
