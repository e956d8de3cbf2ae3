// stealth is the offline command line tool for stealth wallets and claim links
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/stealth-link/internal/config"

	"github.com/urfave/cli/v2"
)

const fileFlagName = "file"

var fileFlag = &cli.StringFlag{
	Name:    fileFlagName,
	Usage:   "path to the .cwt keyfile",
	EnvVars: []string{"STEALTH_FILE_PATH"},
}

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "stealth"
	app.Usage = "stealth wallets and claim links, without the server"
	app.Commands = append(
		app.Commands,
		&generate,
		&importWallet,
		&export,
		&rekey,
		&derive,
		&check,
		&scan,
		&link,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func keyfilePath(ctx *cli.Context) (string, error) {
	filePath := ctx.String(fileFlagName)
	if filePath == "" {
		return "", fmt.Errorf("keyfile not set: use --%s or STEALTH_FILE_PATH", fileFlagName)
	}
	return filePath, nil
}

// readNewPassword asks twice, the caller must clear the result
func readNewPassword(prompt string) ([]byte, error) {
	password, err := config.ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := config.ReadPassword("Repeat password: ")
	if err != nil {
		clear(password)
		return nil, err
	}
	defer clear(confirm)

	if string(password) != string(confirm) {
		clear(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[stealth] %v\n", err)
	os.Exit(1)
}
