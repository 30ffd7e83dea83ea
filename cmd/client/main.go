package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"e2e_relay/internal/service/app"
)

func main() {
	host := flag.String("host", "localhost:9090", "relay server host:port")
	keysDir := flag.String("keys", defaultKeysDir(), "directory holding local private keys")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: client [flags] <username>")
	}

	username := flag.Arg(0)

	ctx := context.Background()

	a := app.NewApp(*host, *keysDir)
	a.Run(ctx, username)

	a.Stop()
}

func defaultKeysDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".e2e_relay"
	}
	return filepath.Join(home, ".e2e_relay")
}
