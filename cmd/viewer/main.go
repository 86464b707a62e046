package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"newsbrief/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	serverURL := flag.String("url", "http://localhost:8080", "Briefing server URL")
	secret := flag.String("secret", os.Getenv("CRON_SECRET"), "Trigger credential")
	session := flag.String("session", "", "Session for triggered jobs (am|pm, empty uses the server clock)")
	flag.Parse()

	m := tui.NewModel(*serverURL, *secret, *session)
	program := tea.NewProgram(m)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
