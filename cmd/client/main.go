package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mkarpov/roomcast/internal/client"
	"github.com/mkarpov/roomcast/internal/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:38254", "Server address")
	room := flag.String("room", "", "Room to join")
	clientID := flag.String("client", "", "Client id (random when empty)")
	flag.Parse()

	if *room == "" {
		log.Fatal("room id can't be empty")
	}
	if *clientID == "" {
		*clientID = uuid.NewString()
	}

	log.Printf("Connecting to %s as %s, room %s", *addr, *clientID, *room)

	c := client.New(*addr, *room, *clientID)
	c.OnMessage = func(msg protocol.Message) {
		fmt.Printf("%s room=%s client=%s text=%s\n",
			time.Now().Format(time.TimeOnly), msg.Room, msg.Client, msg.Text)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("client stopped: %v", err)
	}
}
