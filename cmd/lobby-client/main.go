package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/pokerrooms/internal/client"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"http://localhost:8080" env:"LOBBY_SERVER" help:"Server URL to connect to"`
	Name     string `short:"n" long:"name" env:"LOBBY_NAME" help:"Display name"`
	Avatar   string `long:"avatar" help:"Avatar reference shown to other players"`
	LogLevel string `short:"l" long:"log-level" default:"warn" help:"Log level"`
	LogFile  string `long:"log-file" default:"lobby-client.log" help:"Log file path"`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("lobby-client"),
		kong.Description("Console client for the Hold'em lobby server"))

	name := strings.TrimSpace(CLI.Name)
	if name == "" {
		fmt.Print("Enter your display name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		name = strings.TrimSpace(input)
		if name == "" {
			fmt.Println("Display name is required")
			kctx.Exit(1)
		}
	}

	logFile, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Printf("Failed to open log file: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = logFile.Close() }()

	logger := log.New(logFile)
	if level, err := log.ParseLevel(CLI.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	wsClient := client.NewClient(CLI.Server, logger)
	if err := wsClient.Connect(); err != nil {
		fmt.Printf("Failed to connect to server: %v\n", err)
		kctx.Exit(1)
	}
	defer func() { _ = wsClient.Disconnect() }()

	renderer := client.NewRenderer("")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range wsClient.Messages() {
			if line := renderer.Render(msg); line != "" {
				fmt.Println(line)
			}
		}
		fmt.Println(client.WarningStyle.Render("connection closed"))
	}()

	fmt.Println(client.Help)
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleLine(wsClient, name, line); quit {
				return
			}
		}
	}
}

// handleLine runs one console command and reports whether to quit
func handleLine(c *client.Client, name, line string) bool {
	in, err := client.ParseInput(line)
	if errors.Is(err, client.ErrEmptyInput) {
		return false
	}
	if err != nil {
		fmt.Println(client.ErrorStyle.Render(err.Error()))
		return false
	}

	if in.Verb != client.VerbCreate && in.Verb != client.VerbJoin && in.Verb != client.VerbHelp &&
		in.Verb != client.VerbQuit && c.RoomCode() == "" {
		fmt.Println(client.ErrorStyle.Render("create or join a room first"))
		return false
	}

	switch in.Verb {
	case client.VerbCreate:
		_, err = c.CreateLobby(in.Code, name, CLI.Avatar)
	case client.VerbJoin:
		_, err = c.JoinLobby(in.Code, name, CLI.Avatar)
	case client.VerbStart:
		_, err = c.StartGame()
	case client.VerbBet:
		_, err = c.Bet(in.Amount)
	case client.VerbCall, client.VerbCheck:
		_, err = c.Call()
	case client.VerbFold:
		_, err = c.Fold()
	case client.VerbHelp:
		fmt.Println(client.Help)
	case client.VerbQuit:
		return true
	}
	if err != nil {
		fmt.Println(client.ErrorStyle.Render(err.Error()))
	}
	return false
}
