package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cli "github.com/spf13/pflag"

	"echo/internal/ipc"
)

const usage = `usage: echo-ctl [--socket path] <command> [text]

commands:
  start | pause | resume | stop | interrupt
  status
  chat <text>   ask the assistant and print the reply
  say <text>    speak text aloud
`

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocket, "Daemon control socket")
	timeout := cli.DurationP("timeout", "t", 90*time.Second, "How long to wait for a reply")
	cli.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: args[0], Text: strings.Join(args[1:], " ")}
	switch msg.Cmd {
	case "chat", "say":
		if msg.Text == "" {
			fmt.Fprintf(os.Stderr, "%s needs text\n", msg.Cmd)
			os.Exit(2)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := ipc.Send(ctx, *socket, msg)
	if err != nil {
		fmt.Println("echo-daemon not running:", err)
		os.Exit(1)
	}
	if reply.Text != "" {
		fmt.Println(reply.Text)
	}
	if !reply.OK {
		os.Exit(1)
	}
}
