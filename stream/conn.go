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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

var errNotConnected = errors.New("not connected")

// MessageHandler receives every frame read from a stream, along with the stream URL
type MessageHandler func(url string, data []byte)

// request is an operation sent to the stream server
type request struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// Conn is a websocket connection to one stream endpoint
type Conn struct {
	url          string
	pingInterval time.Duration
	handler      MessageHandler

	conn      *websocket.Conn
	writeMu   sync.Mutex
	connected atomic.Bool

	topicsMu sync.Mutex
	topics   []string

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to url and starts reading frames into handler.
// A ping is sent every pingInterval, zero disables pings.
func Dial(ctx context.Context, url string, pingInterval time.Duration, handler MessageHandler) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	c := &Conn{
		url:          url,
		pingInterval: pingInterval,
		handler:      handler,
		conn:         ws,
		done:         make(chan struct{}),
	}
	c.connected.Store(true)
	log.Infof("connected to %s", url)

	c.wg.Add(1)
	go c.readLoop()
	if pingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}
	return c, nil
}

// URL returns the URL this connection was dialed with
func (c *Conn) URL() string {
	return c.url
}

// IsConnected returns connection status
func (c *Conn) IsConnected() bool {
	return c.connected.Load()
}

// Topics returns topics subscribed so far
func (c *Conn) Topics() []string {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()
	return append([]string(nil), c.topics...)
}

func (c *Conn) send(r request) error {
	if !c.IsConnected() {
		return fmt.Errorf("%s: %w", c.url, errNotConnected)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(r)
}

// Subscribe asks the server to start sending given topics
func (c *Conn) Subscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	if err := c.send(request{Op: "subscribe", Args: topics}); err != nil {
		return fmt.Errorf("subscribing to %v: %w", topics, err)
	}
	c.topicsMu.Lock()
	c.topics = append(c.topics, topics...)
	c.topicsMu.Unlock()
	log.Debugf("subscribed to %v on %s", topics, c.url)
	return nil
}

func (c *Conn) readLoop() {
	defer c.wg.Done()
	defer c.connected.Store(false)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Errorf("read from %s: %v", c.url, err)
			}
			return
		}
		if c.handler != nil {
			c.handler(c.url, data)
		}
	}
}

func (c *Conn) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.send(request{Op: "ping"}); err != nil {
				log.Warningf("ping %s: %v", c.url, err)
				if !c.IsConnected() {
					return
				}
			}
		}
	}
}

// Close closes the connection and waits for background loops to exit
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.connected.Store(false)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
		c.wg.Wait()
		log.Infof("connection to %s closed", c.url)
	})
	return err
}
