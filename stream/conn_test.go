/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type received struct {
	path string
	req  request
}

// streamServer accepts websocket connections on any path, answers every
// request with {"success":true,"op":...} and reports requests on the channel.
// Closing kill drops all server side connections.
func streamServer(t *testing.T) (*httptest.Server, chan received, chan struct{}) {
	reqs := make(chan received, 100)
	kill := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		go func() {
			<-kill
			conn.Close()
		}()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req request
			if err := json.Unmarshal(msg, &req); err != nil {
				t.Errorf("unmarshal request: %v", err)
				return
			}
			reqs <- received{path: r.URL.Path, req: req}
			if err := conn.WriteJSON(map[string]any{"success": true, "op": req.Op}); err != nil {
				return
			}
		}
	}))
	return ts, reqs, kill
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestConnSubscribe(t *testing.T) {
	ts, reqs, _ := streamServer(t)
	defer ts.Close()

	msgs := make(chan string, 10)
	c, err := Dial(context.Background(), wsURL(ts, "/v5/public/spot"), 0, func(url string, data []byte) {
		msgs <- string(data)
	})
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.IsConnected())

	require.NoError(t, c.Subscribe("orderbook.50.BTCUSDT", "publicTrade.BTCUSDT"))
	got := <-reqs
	require.Equal(t, "/v5/public/spot", got.path)
	require.Equal(t, request{Op: "subscribe", Args: []string{"orderbook.50.BTCUSDT", "publicTrade.BTCUSDT"}}, got.req)
	require.JSONEq(t, `{"success":true,"op":"subscribe"}`, <-msgs)
	require.Equal(t, []string{"orderbook.50.BTCUSDT", "publicTrade.BTCUSDT"}, c.Topics())

	require.NoError(t, c.Subscribe())
}

func TestConnPing(t *testing.T) {
	ts, reqs, _ := streamServer(t)
	defer ts.Close()

	c, err := Dial(context.Background(), wsURL(ts, "/v5/public/linear"), 10*time.Millisecond, nil)
	require.NoError(t, err)
	defer c.Close()

	select {
	case got := <-reqs:
		require.Equal(t, "ping", got.req.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received")
	}
}

func TestConnClose(t *testing.T) {
	ts, _, _ := streamServer(t)
	defer ts.Close()

	c, err := Dial(context.Background(), wsURL(ts, "/v5/public/spot"), 0, nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.False(t, c.IsConnected())
	require.ErrorIs(t, c.Subscribe("tickers.BTCUSDT"), errNotConnected)
	// second close is a no-op
	require.NoError(t, c.Close())
}

func TestConnServerGone(t *testing.T) {
	ts, _, kill := streamServer(t)
	defer ts.Close()

	c, err := Dial(context.Background(), wsURL(ts, "/v5/public/spot"), 0, nil)
	require.NoError(t, err)
	defer c.Close()

	close(kill)
	require.Eventually(t, func() bool { return !c.IsConnected() }, 2*time.Second, 10*time.Millisecond)
}

func TestDialFailure(t *testing.T) {
	ts, _, _ := streamServer(t)
	url := wsURL(ts, "/v5/public/spot")
	ts.Close()

	_, err := Dial(context.Background(), url, 0, nil)
	require.Error(t, err)
}
