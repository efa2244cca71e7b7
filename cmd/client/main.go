package main

import (
	"bufio"
	"bytes"
	"chat-relay/ws"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Terminal chat client. Registers or logs in over REST, then joins the
// relay over websocket and mirrors the room to stdout.
func main() {
	server := flag.String("server", "localhost:5000", "relay host:port")
	username := flag.String("username", "", "account username")
	password := flag.String("password", "", "account password")
	register := flag.Bool("register", false, "create the account first")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: client -username NAME -password PASS [-register]")
		os.Exit(1)
	}

	token, err := authenticate(*server, *username, *password, *register)
	if err != nil {
		color.Red.Printf("auth failed: %v\n", err)
		os.Exit(1)
	}

	wsURL := url.URL{
		Scheme:   "ws",
		Host:     *server,
		Path:     "/ws",
		RawQuery: "token=" + url.QueryEscape(token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		color.Red.Printf("connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	color.Green.Printf("connected as %s — type to chat, Ctrl-D to quit\n", *username)

	go receive(conn)
	send(conn)
}

func authenticate(server, username, password string, register bool) (string, error) {
	endpoint := "/auth/login"
	if register {
		endpoint = "/auth/register"
	}

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := http.Post("http://"+server+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", fmt.Errorf("%s", payload.Error)
	}
	return payload.Token, nil
}

func receive(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			color.Red.Println("\nconnection closed")
			os.Exit(0)
		}

		frame, err := ws.DecodeFrame(raw)
		if err != nil {
			continue
		}

		switch frame.Event {
		case ws.EventChatMessage:
			var payload ws.ChatPayload
			if json.Unmarshal(frame.Data, &payload) == nil {
				color.Cyan.Printf("%s: ", payload.Username)
				fmt.Println(payload.Message)
			}
		case ws.EventUserConnected:
			var name string
			if json.Unmarshal(frame.Data, &name) == nil {
				color.Green.Printf("* %s joined\n", name)
			}
		case ws.EventUserDisconnected:
			var name string
			if json.Unmarshal(frame.Data, &name) == nil {
				color.Yellow.Printf("* %s left\n", name)
			}
		}
	}
}

func send(conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		data, _ := json.Marshal(text)
		frame, _ := json.Marshal(ws.Frame{Event: ws.EventSendChatMessage, Data: data})
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}
