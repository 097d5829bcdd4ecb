package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/rickgao/marketdash/internal/live"
)

type watchCmd struct {
	url    string
	topics string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "follow state changes of a running dashboard" }
func (*watchCmd) Usage() string {
	return `dashctl watch [-url ws://127.0.0.1:5173/ws] [-topics markets,chart]

  Connects to the dashboard live feed and prints one line per update
  until interrupted. The dashboard must share this session storage.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "url", "", "live feed URL (default from server.port)")
	f.StringVar(&c.topics, "topics", "", "comma-separated topics to show (default all)")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	url := c.url
	if url == "" {
		url = "ws://" + cfg.Server.Addr() + "/ws"
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := live.NewClient(live.DefaultClientConfig(url), nil)
	if err := client.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", url, err)
		return subcommands.ExitFailure
	}
	defer client.Close()

	show := topicFilter(c.topics)
	for {
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case err := <-client.Errors():
			fmt.Fprintf(os.Stderr, "Live feed ended: %v\n", err)
			return subcommands.ExitFailure
		case msg := <-client.Messages():
			if show(msg.Topic) {
				fmt.Printf("%s %-8s %s\n", msg.At.Format(time.TimeOnly), msg.Topic, msg.Data)
			}
		}
	}
}

// topicFilter returns a predicate accepting the listed topics, or all when empty.
func topicFilter(list string) func(string) bool {
	if strings.TrimSpace(list) == "" {
		return func(string) bool { return true }
	}
	want := make(map[string]bool)
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			want[t] = true
		}
	}
	return func(topic string) bool { return want[topic] }
}
