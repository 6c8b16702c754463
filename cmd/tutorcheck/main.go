package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/WolfWhaleLMS/wolfwhale-lms-sub002/pkg/chessdto"
)

// tutorcheck plays a few hinted moves against a running tutor to confirm the
// HTTP API and the live socket both answer.
func main() {
	base := flag.String("url", getenv("TUTOR_URL", "http://localhost:8080"), "tutor base URL")
	student := flag.String("student", getenv("TUTOR_CHECK_STUDENT", "tutorcheck"), "student id")
	course := flag.String("course", getenv("TUTOR_CHECK_COURSE", "smoke"), "course id")
	difficulty := flag.String("difficulty", "easy", "difficulty for a new game")
	moves := flag.Int("moves", 3, "number of student moves to play")
	resign := flag.Bool("resign", true, "resign when done so the game is archived")
	flag.Parse()

	baseURL := strings.TrimRight(*base, "/")
	client := &fasthttp.Client{ReadTimeout: 8 * time.Second, WriteTimeout: 8 * time.Second}
	headers := map[string]string{
		"X-Student-Id":   *student,
		"X-Course-Id":    *course,
		"X-Student-Name": "tutorcheck",
	}

	status, body, err := doJSON(client, fasthttp.MethodGet, baseURL+"/healthz", nil, nil)
	if err != nil || status != fasthttp.StatusOK {
		log.Fatalf("/healthz failed: status=%d err=%v", status, err)
	}
	log.Printf("/healthz ok: %s", strings.TrimSpace(string(body)))

	status, body, err = doJSON(client, fasthttp.MethodPost, baseURL+"/v1/tutor/session", headers, chessdto.StartRequest{Difficulty: *difficulty})
	if err != nil {
		log.Fatalf("start failed: %v", err)
	}
	var started chessdto.StartResponse
	if status != fasthttp.StatusCreated && status != fasthttp.StatusOK {
		log.Fatalf("start failed: status=%d body=%s", status, body)
	}
	if err := json.Unmarshal(body, &started); err != nil {
		log.Fatalf("decode start: %v", err)
	}
	log.Printf("session %s (resumed=%t): %s", started.State.SessionUUID, started.Resumed, started.State.StatusText)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	q := url.Values{"student": {*student}, "course": {*course}}
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/v1/tutor/session/live?" + q.Encode()
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{CompressionMode: websocket.CompressionNoContextTakeover})
	if err != nil {
		log.Fatalf("ws dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	next := func() chessdto.Event {
		var ev chessdto.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			log.Fatalf("ws read failed: %v", err)
		}
		if ev.Type == chessdto.EventError && ev.Error != nil {
			log.Fatalf("tutor error %s: %s", ev.Error.Code, ev.Error.Message)
		}
		return ev
	}
	send := func(cmd chessdto.Command) {
		if err := wsjson.Write(ctx, conn, cmd); err != nil {
			log.Fatalf("ws write failed: %v", err)
		}
	}

	if ev := next(); ev.State != nil {
		log.Printf("live state: %s", ev.State.StatusText)
	}

	for i := 0; i < *moves; i++ {
		send(chessdto.Command{Type: chessdto.CommandHint})
		hint := next()
		if hint.Hint == nil {
			log.Fatalf("expected hint, got %s", hint.Type)
		}
		send(chessdto.Command{Type: chessdto.CommandMove, From: hint.Hint.From, To: hint.Hint.To})
		for {
			ev := next()
			if ev.Summary != nil {
				fmt.Println(ev.Summary.Text)
			}
			if ev.Type == chessdto.EventMove {
				if ev.Summary.Finished {
					log.Printf("game finished after %d moves", i+1)
					return
				}
				break
			}
		}
	}

	if *resign {
		send(chessdto.Command{Type: chessdto.CommandResign})
		if ev := next(); ev.State != nil {
			log.Printf("resigned: game #%d, %s", ev.State.GameID, ev.State.StatusText)
		}
	}
}

func doJSON(client *fasthttp.Client, method, uri string, headers map[string]string, in any) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.SetContentType("application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}
	if err := client.DoTimeout(req, resp, 8*time.Second); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
