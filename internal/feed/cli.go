package feed

import "os"

// ShowHelp prints usage information for the feed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Overlay Feed Tool
=================

Generates a synthetic match and feeds it to the overlay service.

Usage:
  go run ./cmd/overlay-feed [options]

Options:
  -mode string
        push: POST snapshots to the service; serve: expose them for polling (default "push")
  -url string
        Base URL of the overlay service, push mode (default "http://localhost:9080")
  -addr string
        Listen address of the game data endpoint, serve mode (default ":8000")
  -interval duration
        Time between snapshots (default 1s)
  -ticks int
        Number of snapshots to generate; 0 runs until interrupted (default 0)
  -timeout duration
        HTTP request timeout (default 5s)
  -seed uint
        Generator seed (default: current time)
  -fail-every int
        Serve mode: answer every Nth poll with 503 (default 0, never)
  -verbose
        Log every snapshot
  -help
        Show this help message

Examples:
  # Push a new snapshot every second
  go run ./cmd/overlay-feed

  # Stand in for the game client's endpoint and drop every 5th poll
  go run ./cmd/overlay-feed -mode serve -fail-every 5
`)
}
