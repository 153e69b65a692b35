package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tweetbot/statusui/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the running tweetbot daemon")
	flag.Parse()

	p := tea.NewProgram(tui.NewModel(*baseURL))
	if _, err := p.Run(); err != nil {
		log.Println("statusui error:", err)
		fmt.Fprintln(os.Stderr, "is the daemon running?")
		os.Exit(1)
	}
}
