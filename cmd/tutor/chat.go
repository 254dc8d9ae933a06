package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"lingo-backend/internal/chatclient"
	"lingo-backend/internal/models"
)

// ChatCmd sends chat turns to the relay and prints the reply token by token.
type ChatCmd struct {
	URL            string `short:"u" long:"url" description:"backend base URL" default:"http://localhost:4000"`
	CorrectGrammar bool   `short:"g" long:"correct-grammar" description:"ask the tutor to correct the message"`
	Explain        bool   `short:"e" long:"explain" description:"ask for an explanation of the correction"`
	TranslateTo    string `short:"t" long:"translate-to" description:"language to translate the message into"`
	Quiz           bool   `long:"quiz" description:"end the reply with a practice question"`
	Timeout        int    `long:"timeout" description:"seconds to wait for a reply (0=none)" default:"60"`

	in  io.Reader
	out io.Writer
}

func newChatCmd() *ChatCmd {
	return &ChatCmd{in: os.Stdin, out: os.Stdout}
}

// Execute sends the positional arguments as one message. Without arguments it
// reads one message per line from standard input until EOF or "/quit".
func (c *ChatCmd) Execute(args []string) error {
	client := chatclient.New(c.URL, &http.Client{})
	transcript := chatclient.NewTranscript()

	if msg := strings.TrimSpace(strings.Join(args, " ")); msg != "" {
		return c.turn(client, transcript, msg)
	}

	scanner := bufio.NewScanner(c.in)
	fmt.Fprint(c.out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "/quit", "/exit":
			return nil
		default:
			if err := c.turn(client, transcript, line); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
		fmt.Fprint(c.out, "> ")
	}
	return scanner.Err()
}

func (c *ChatCmd) turn(client *chatclient.Client, transcript *chatclient.Transcript, msg string) error {
	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.Timeout)*time.Second)
		defer cancel()
	}

	_, err := client.Chat(ctx, c.request(msg), transcript, func(token string) {
		fmt.Fprint(c.out, token)
	})
	fmt.Fprintln(c.out)
	return err
}

func (c *ChatCmd) request(msg string) models.ChatRequest {
	return models.ChatRequest{
		Message: msg,
		Options: models.ChatOptions{
			CorrectGrammar: c.CorrectGrammar,
			Explain:        c.Explain,
			TranslateTo:    c.TranslateTo,
			Quiz:           c.Quiz,
		},
	}
}
