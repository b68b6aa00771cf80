package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xenitV1/owl-chat/pkg/sdk"
)

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "chat server base URL")
	username := flag.String("username", "", "username to chat as")
	rooms := flag.String("rooms", "", "comma separated room ids to join")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}

	session, err := sdk.NewSession(*serverURL, *username)
	if err != nil {
		log.Fatal(err)
	}

	session.SetEventHandler(func(evt sdk.WSEvent) {
		printEvent(evt)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	go func() {
		if err := session.Listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("connection lost: %v", err)
			os.Exit(1)
		}
	}()

	currentRoom := ""
	if *rooms != "" {
		roomIDs := strings.Split(*rooms, ",")
		if err := session.JoinRooms(roomIDs...); err != nil {
			log.Fatal(err)
		}
		currentRoom = roomIDs[0]
	}

	fmt.Println("commands: /join <room...>, /room <room>, /who, /typing, /delete <messageId>, /quit")
	fmt.Println("anything else is sent to the current room")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case strings.HasPrefix(line, "/join "):
			roomIDs := strings.Fields(line)[1:]
			if err := session.JoinRooms(roomIDs...); err != nil {
				log.Printf("join failed: %v", err)
				continue
			}
			currentRoom = roomIDs[0]

		case strings.HasPrefix(line, "/room "):
			currentRoom = strings.TrimSpace(strings.TrimPrefix(line, "/room "))

		case line == "/who":
			if err := session.RequestOnlineUsers(currentRoom); err != nil {
				log.Printf("request failed: %v", err)
			}

		case line == "/typing":
			if err := session.StartTyping(currentRoom); err != nil {
				log.Printf("typing failed: %v", err)
			}

		case strings.HasPrefix(line, "/delete "):
			messageID := strings.TrimSpace(strings.TrimPrefix(line, "/delete "))
			if err := session.DeleteMessage(currentRoom, messageID); err != nil {
				log.Printf("delete failed: %v", err)
			}

		default:
			if currentRoom == "" {
				fmt.Println("join a room first: /join <room>")
				continue
			}
			_ = session.StopTyping(currentRoom)
			if err := session.SendMessage(currentRoom, line); err != nil {
				log.Printf("send failed: %v", err)
			}
		}
	}
}

func printEvent(evt sdk.WSEvent) {
	switch evt.Event {
	case sdk.NewMessage:
		var p sdk.MessagePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] %s: %s\n", p.ChatRoomID, p.User.Name, p.Content)
		}

	case sdk.MessageDeleted:
		var p sdk.MessageDeletedPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] message %s was deleted\n", evt.RoomID, p.MessageID)
		}

	case sdk.MessageBlocked:
		var p sdk.MessageBlockedPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] message blocked: %s\n", evt.RoomID, p.Reason)
		}

	case sdk.UserOnline:
		var p sdk.PresencePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] %s is online\n", evt.RoomID, p.Username)
		}

	case sdk.UserOffline:
		var p sdk.PresencePayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] %s went offline\n", evt.RoomID, p.UserID)
		}

	case sdk.UserTyping:
		var p sdk.TypingPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] %s is typing...\n", evt.RoomID, p.Username)
		}

	case sdk.OnlineUsersList:
		var p sdk.OnlineUsersPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] online: %s\n", evt.RoomID, strings.Join(p.UserIDs, ", "))
		}

	case sdk.ErrorEvent:
		var p sdk.ErrorPayload
		if json.Unmarshal(evt.Data, &p) == nil {
			fmt.Printf("[%s] error %s: %s\n", evt.RoomID, p.Code, p.Message)
		}
	}
}
