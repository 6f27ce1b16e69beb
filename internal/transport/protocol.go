// Package transport implements the line-oriented TCP protocol and the
// HTTP admin server that give the queue/KV core a process to run in.
// spec.md §6 treats the RPC surface as a boundary; this package is the
// minimal, framework-free stand-in SPEC_FULL.md §4.7 calls for.
package transport

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// command is a parsed request line: a verb and its space-separated
// arguments, grounded on Hermes's line-protocol parsing.
type command struct {
	verb string
	args []string
}

var errMalformedLine = errors.New("transport: malformed request line")

// parseLine splits one request line into a command.
func parseLine(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errMalformedLine
	}
	return command{verb: strings.ToUpper(fields[0]), args: fields[1:]}, nil
}

func encodePayload(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func decodePayload(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func replyOK(parts ...string) string {
	if len(parts) == 0 {
		return "OK"
	}
	return "OK " + strings.Join(parts, " ")
}

func replyErr(err error) string {
	return "ERR " + err.Error()
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", errMalformedLine, s)
	}
	return n, nil
}

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", errMalformedLine, s)
	}
	return n, nil
}
