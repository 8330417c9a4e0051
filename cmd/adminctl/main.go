// Command adminctl inspects and manages the enterprise admin console data
// from the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `usage: adminctl [-config file] [-env file] <command> [flags]

commands:
  strength <password>        score a password and check the policy
  validate-email <address>   check an email address
  enterprises [flags]        list enterprises
  review [flags] <id>        approve or reject a pending enterprise
  upload-document [flags]    attach a file to an enterprise
  users                      list users
  version                    print build information
`

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configFile := global.String("config", "", "config file (default: search for config.yml)")
	envFile := global.String("env", "", ".env file (default: search for .env)")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cmd, rest := global.Arg(0), global.Args()[1:]
	env := &cli{stdout: stdout, stderr: stderr, configFile: *configFile, envFile: *envFile}

	var err error
	switch cmd {
	case "strength":
		err = env.strength(rest)
	case "validate-email":
		err = env.validateEmail(rest)
	case "enterprises":
		err = env.enterprises(rest)
	case "review":
		err = env.review(rest)
	case "upload-document":
		err = env.uploadDocument(rest)
	case "users":
		err = env.users(rest)
	case "version":
		err = env.version(rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "adminctl: unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailedCheck):
		return 1
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "adminctl %s: %s\n", cmd, strings.TrimSpace(err.Error()))
		return 1
	}
}
