// Package auth resolves the API token used by the pulpe REST client.
// Providers are tried in order; the first one returning a token wins.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultEnvVar is the environment variable read by EnvProvider.
const DefaultEnvVar = "PULP_TOKEN"

// ErrNoToken is returned when no provider yields a token.
var ErrNoToken = errors.New("no API token configured")

// TokenProvider defines the interface for obtaining an API token.
type TokenProvider interface {
	GetToken() (string, error)
}

// StaticProvider returns a fixed token, typically read from the config file.
type StaticProvider struct {
	Token string
}

// GetToken returns the configured token.
func (s *StaticProvider) GetToken() (string, error) {
	token := strings.TrimSpace(s.Token)
	if token == "" {
		return "", errors.New("token not set in config")
	}
	return token, nil
}

// EnvProvider obtains tokens from an environment variable, PULP_TOKEN unless
// Var is set.
type EnvProvider struct {
	Var string
}

// GetToken reads the environment variable.
// Returns an error if the variable is not set or is empty.
func (e *EnvProvider) GetToken() (string, error) {
	name := e.Var
	if name == "" {
		name = DefaultEnvVar
	}
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", fmt.Errorf("%s environment variable not set or empty", name)
	}
	return token, nil
}

// CommandProvider obtains tokens by running a shell command, such as a
// password manager lookup, and reading its standard output.
type CommandProvider struct {
	Command string
}

// GetToken runs the command through sh -c.
func (c *CommandProvider) GetToken() (string, error) {
	if strings.TrimSpace(c.Command) == "" {
		return "", errors.New("no token command configured")
	}

	output, err := exec.Command("sh", "-c", c.Command).Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", errors.New("sh not found in PATH")
		}
		return "", fmt.Errorf("token command failed: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("token command returned empty token")
	}
	return token, nil
}

// Resolve tries each provider in order and returns the first token found.
// When all of them fail the error wraps ErrNoToken and lists every cause.
func Resolve(providers ...TokenProvider) (string, error) {
	var causes []string
	for _, p := range providers {
		if p == nil {
			continue
		}
		token, err := p.GetToken()
		if err == nil {
			return token, nil
		}
		causes = append(causes, err.Error())
	}

	return "", fmt.Errorf(
		"%w (%s).\n"+
			"Please either:\n"+
			"  1. Set token in the pulp config file, or\n"+
			"  2. Set the %s environment variable, or\n"+
			"  3. Set token_command to a command printing the token",
		ErrNoToken, strings.Join(causes, "; "), DefaultEnvVar,
	)
}
