package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/rickgao/marketdash/internal/api"
	"github.com/rickgao/marketdash/internal/model"
	"github.com/rickgao/marketdash/internal/render"
)

// EnvPassword supplies the login password without a prompt.
const EnvPassword = "MARKETDASH_PASSWORD"

type loginCmd struct {
	email string
	stdin bool
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in and store the session" }
func (*loginCmd) Usage() string {
	return `dashctl login -email <email> [-password-stdin]

  Signs in against the session backend. The password is read from
  $` + EnvPassword + `, or from the first line of stdin.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "account email")
	f.BoolVar(&c.stdin, "password-stdin", false, "read the password from stdin even when $"+EnvPassword+" is set")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" {
		fmt.Fprintln(os.Stderr, "Error: -email is required")
		return subcommands.ExitUsageError
	}

	password, err := readPassword(os.Stdin, c.stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	sess, err := e.sessions.Login(ctx, model.Credentials{Email: c.email, Password: password})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %s\n", api.MessageOf(err))
		return subcommands.ExitFailure
	}

	printMarkdown(os.Stdout, render.Session(sess))
	return subcommands.ExitSuccess
}

func readPassword(r io.Reader, forceStdin bool) (string, error) {
	if p := os.Getenv(EnvPassword); p != "" && !forceStdin {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "end the session" }
func (*logoutCmd) Usage() string {
	return `dashctl logout

  Ends the session on the backend and removes it locally. The local copy
  is removed even when the backend call fails.
`
}

func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if err := e.sessions.Logout(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: backend logout failed: %s\n", api.MessageOf(err))
	}
	fmt.Println("Logged out.")
	return subcommands.ExitSuccess
}

type whoamiCmd struct {
	offline bool
}

func (*whoamiCmd) Name() string     { return "whoami" }
func (*whoamiCmd) Synopsis() string { return "show the signed-in user" }
func (*whoamiCmd) Usage() string {
	return `dashctl whoami [-offline]

  Revalidates the stored session against the backend and prints the user.
  An invalid session is removed.
`
}

func (c *whoamiCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "show the stored session without contacting the backend")
}

func (c *whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if !c.offline && !e.sessions.CheckAuth(ctx) {
		printMarkdown(os.Stdout, render.Session(nil))
		return subcommands.ExitFailure
	}

	sess := e.sessions.Current()
	printMarkdown(os.Stdout, render.Session(sess))
	if sess == nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
