package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"roomsync/client"
	"roomsync/protocol"
	"roomsync/room"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	url := flag.String("url", "ws://localhost:3000/ws", "room server websocket endpoint")
	create := flag.String("create", "", "create a room with this name")
	capacity := flag.Int("capacity", 4, "capacity of the created room")
	join := flag.String("join", "", "join the room with this name")
	leave := flag.Bool("leave", false, "leave the current room")
	list := flag.Bool("list", false, "ask for the room list")
	resume := flag.String("resume", "", "resume key from an earlier session")
	wait := flag.Duration("wait", time.Second, "how long to watch for updates before exiting, 0 to run until interrupted")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *url, *resume)
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("Could not connect")
	}
	defer c.Close()

	c.Subscribe(func(n client.Notice) {
		switch n.Type {
		case protocol.TypeJoined:
			log.Info().Uint64("handle", uint64(n.Handle)).Str("room", n.Room).Msg("Joined")
		case protocol.TypeLeft:
			log.Info().Uint64("handle", uint64(n.Handle)).Str("room", n.Room).Msg("Left")
		case protocol.TypeRejected:
			log.Warn().Err(n.Err).Str("op", n.Op).Str("room", n.Room).Msg("Rejected")
		}
	})

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	select {
	case <-c.Ready():
	case err := <-runErr:
		log.Fatal().Err(err).Msg("Connection ended before welcome")
	case <-ctx.Done():
		return
	}
	self, _ := c.Mirror().Self()
	log.Info().Uint64("handle", uint64(self)).Str("resumeKey", c.ResumeKey()).Msg("Connected")

	if err := issue(c, *create, *capacity, *join, *leave, *list); err != nil {
		log.Fatal().Err(err).Msg("Could not send request")
	}

	var timeout <-chan time.Time
	if *wait > 0 {
		timeout = time.After(*wait)
	}
	select {
	case <-timeout:
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Connection lost")
		}
	}
	printTable(c)
}

func issue(c *client.Client, create string, capacity int, join string, leave bool, list bool) error {
	gw := c.Gateway()
	if leave {
		if err := gw.LeaveRoom(); err != nil {
			return err
		}
	}
	if create != "" {
		if err := gw.CreateRoom(create, capacity); err != nil {
			return err
		}
	}
	if join != "" {
		if err := gw.JoinRoom(join); err != nil {
			return err
		}
	}
	if list {
		return gw.RequestRoomList()
	}
	return nil
}

func printTable(c *client.Client) {
	m := c.Mirror()
	self, _ := m.Self()
	rooms := m.ListRooms()
	if len(rooms) == 0 {
		fmt.Println("no rooms")
	}
	for _, r := range rooms {
		marker := " "
		if r.Has(self) {
			marker = "*"
		}
		fmt.Printf("%s %3d %-20s %d/%d [%s]\n", marker, r.ID, r.Name, len(r.Members), r.Capacity, members(r))
	}
	if current, ok := m.CurrentRoom(); ok {
		fmt.Printf("in %q at index %d\n", current.Name, m.MemberIndex(current.Name, self))
	}
}

func members(r room.Room) string {
	handles := make([]string, len(r.Members))
	for i, h := range r.Members {
		handles[i] = fmt.Sprint(h)
	}
	return strings.Join(handles, " ")
}
