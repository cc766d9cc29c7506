// Command simulator replays a ride's position fixes through the motion
// classifier against a live server: it creates an anonymous rider session,
// opens the websocket, boards, chats, and alights like a real client.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RyujiTanaka899/train-chat-app/internal/client"
	"github.com/RyujiTanaka899/train-chat-app/internal/line"
	"github.com/RyujiTanaka899/train-chat-app/internal/motion"
)

func main() {
	var (
		baseURL  = flag.String("server", "http://127.0.0.1:8080", "API base URL")
		wsURL    = flag.String("ws", "ws://127.0.0.1:8080/chat/ws", "chat websocket URL")
		nickname = flag.String("nickname", "simulated-rider", "display name")
		interval = flag.Duration("interval", 1*time.Second, "delay between fixes")
		trace    = flag.String("trace", "", "JSON file of fixes; empty uses a built-in ride")
		message  = flag.String("message", "hello from the simulator", "chat message sent while aboard")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fixes, err := loadFixes(*trace)
	if err != nil {
		log.Fatalf("load trace: %v", err)
	}

	token, err := createSession(*baseURL, *nickname)
	if err != nil {
		log.Fatalf("create rider session: %v", err)
	}

	classifier := motion.New(line.Default(), motion.DefaultThresholds())
	session, err := client.Dial(*wsURL, token, *nickname, classifier)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer session.Close()

	session.OnFrame = func(b []byte) {
		log.Printf("<- %s", b)
	}
	go func() {
		if err := session.Listen(ctx); err != nil && ctx.Err() == nil {
			log.Printf("listen ended: %v", err)
		}
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sentChat := false
	for _, fix := range fixes {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := session.ObserveFix(fix); err != nil {
			log.Fatalf("observe fix: %v", err)
		}
		log.Printf("state=%s speed=%.1fkm/h room=%q", classifier.State(), classifier.Speed(), session.RoomID())

		if !sentChat && session.RoomID() != "" {
			if err := session.SendChat(*message); err != nil {
				log.Printf("send chat: %v", err)
			}
			sentChat = true
		}
	}

	log.Printf("trace complete")
}

func createSession(baseURL, nickname string) (string, error) {
	body, _ := json.Marshal(map[string]string{"nickname": nickname})
	resp, err := http.Post(baseURL+"/riders/session", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", err
	}
	return session.Token, nil
}

func loadFixes(path string) ([]motion.Fix, error) {
	if path == "" {
		return builtinRide(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixes []motion.Fix
	if err := json.Unmarshal(b, &fixes); err != nil {
		return nil, err
	}
	return fixes, nil
}

// builtinRide walks to a Bogor Line station, rides for a few minutes, and
// alights: enough to exercise boarding, chatting, and eviction.
func builtinRide() []motion.Fix {
	const kmPerDegLat = 111.19493

	at := time.Now()
	lat, lng := -6.3, 106.82
	speeds := []float64{4, 10, 12, 35, 55, 60, 58, 62, 50, 40, 10, 8, 6}

	fixes := []motion.Fix{{Lat: lat, Lng: lng, RecordedAt: at}}
	for _, kmh := range speeds {
		at = at.Add(10 * time.Second)
		lat += kmh * (10.0 / 3600.0) / kmPerDegLat
		fixes = append(fixes, motion.Fix{Lat: lat, Lng: lng, RecordedAt: at})
	}
	return fixes
}
