package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// Note: Password is prompted at runtime and stored in memory - use GetPasswordBytes()
type Config struct {
	Port            string `envconfig:"PORT" default:"8080"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	Network         string `envconfig:"NETWORK" default:"mainnet"`
	StealthFilePath string `envconfig:"STEALTH_FILE_PATH" required:"true"`
	SolanaFilePath  string `envconfig:"SOLANA_FILE_PATH"` // operator wallet: bridge funding and fee sponsor
	SolanaRPCURL    string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	BridgeAPIURL    string `envconfig:"BRIDGE_API_URL" default:"https://api.relay.link"`
	BridgeAPIKey    string `envconfig:"BRIDGE_API_KEY"`
	ClaimBaseURL    string `envconfig:"CLAIM_BASE_URL" default:"http://localhost:8080"`
	ClaimCooldown   int    `envconfig:"CLAIM_COOLDOWN_SECONDS" default:"30"`
	ConfirmTimeout  int    `envconfig:"CONFIRM_TIMEOUT_SECONDS" default:"90"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	if _, err := Tokens(c.Network); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetStealthFilePath returns path to the stealth wallet .cwt file
func GetStealthFilePath() string {
	return Get().StealthFilePath
}

// GetSolanaFilePath returns path to the operator .cwt file, empty when not configured
func GetSolanaFilePath() string {
	return Get().SolanaFilePath
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// GetClaimCooldown returns the minimum delay between two claim creations
func GetClaimCooldown() time.Duration {
	return time.Duration(Get().ClaimCooldown) * time.Second
}

// GetConfirmTimeout returns how long to wait for a transaction or funds to land
func GetConfirmTimeout() time.Duration {
	return time.Duration(Get().ConfirmTimeout) * time.Second
}

var passwordBytes []byte

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input) and stored in memory.
// Call this at startup before the server begins handling requests.
func PromptForPassword() error {
	raw, err := ReadPassword("Enter wallet password: ")
	if err != nil {
		return err
	}
	passwordBytes = raw
	return nil
}

// ReadPassword reads a non-empty password from the terminal without echo.
// Caller must zero the returned slice after use.
func ReadPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// SetPassword stores a password in memory, used where no terminal is available (tests)
func SetPassword(password []byte) {
	clear(passwordBytes)
	passwordBytes = append([]byte(nil), password...)
}

// GetPasswordBytes returns the password stored in memory (from PromptForPassword).
// Returns an error if the password was not set.
// Caller must zero the returned slice after use for security.
func GetPasswordBytes() ([]byte, error) {
	if len(passwordBytes) == 0 {
		return nil, errors.New("password not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passwordBytes))
	copy(out, passwordBytes)
	return out, nil
}
