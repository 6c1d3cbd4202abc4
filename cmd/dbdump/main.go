// Command dbdump prints a one-shot snapshot of the chat database:
// aggregate counts, the room list and each room's recent messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/config"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/internal/repository"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
)

func main() {
	limit := flag.Int("limit", 20, "messages to print per room")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}

	store, err := repository.NewGormStore(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	stats, err := store.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stats: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Database summary ===")
	fmt.Printf("Users:           %d\n", stats.Users)
	fmt.Printf("Rooms:           %d\n", stats.Rooms)
	fmt.Printf("Messages:        %d\n", stats.Messages)
	fmt.Printf("Direct messages: %d\n", stats.DirectMessages)

	rooms, err := store.ListRooms(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list rooms: %v\n", err)
		os.Exit(1)
	}

	for _, room := range rooms {
		fmt.Printf("\n=== Room %q (id %d) ===\n", room.Name, room.ID)

		history, err := store.RoomHistory(ctx, room.ID, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read history for %s: %v\n", room.Name, err)
			continue
		}
		if len(history) == 0 {
			fmt.Println("(no messages)")
			continue
		}
		for _, e := range history {
			fmt.Printf("[%s] %s: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Username, e.Content)
		}
	}
}
