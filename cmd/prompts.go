package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// The interactive prompts are a stable protocol surface: automation
// drives them by piping answers on stdin, one per line, in the order
// the prompts are issued.

func promptString(r *bufio.Reader, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptUint(r *bufio.Reader, prompt string) (uint64, error) {
	s, err := promptString(r, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

// promptBool accepts Y/y/yes/true for yes and N/n/no/false for no.
func promptBool(r *bufio.Reader, prompt string) (bool, error) {
	s, err := promptString(r, prompt+" (Y/n)")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "y", "yes", "true":
		return true, nil
	case "n", "no", "false", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid answer %q", s)
}

func promptHex(r *bufio.Reader, prompt string) ([]byte, error) {
	s, err := promptString(r, prompt)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	return b, nil
}
