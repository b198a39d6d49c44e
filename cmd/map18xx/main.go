package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

const usage = `usage: map18xx <command> [flags]

commands:
  new     start an empty log for a game
  lay     append a tile lay
  token   append a token placement
  remove  append a company removal
  state   replay a log and print the board
  supply  print remaining tile supply
  defs    list tile definitions
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	logger := log.New(stderr, "[map18xx] ", log.LstdFlags|log.Lmicroseconds)
	cmds := map[string]func(args []string, stdout io.Writer, logger *log.Logger) error{
		"new":    cmdNew,
		"lay":    cmdLay,
		"token":  cmdToken,
		"remove": cmdRemove,
		"state":  cmdState,
		"supply": cmdSupply,
		"defs":   cmdDefs,
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
	if err := cmd(args[1:], stdout, logger); err != nil {
		fmt.Fprintln(stderr, args[0]+":", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}
