package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"e2e_relay/internal/cryptographic/box"
	"e2e_relay/internal/model"
	"e2e_relay/internal/utils/log"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

type (
	App struct {
		app     *tview.Application
		chatbox *tview.TextView
		input   *tview.InputField

		host    string
		keysDir string

		name  string
		token string
		priv  [32]byte
		pub   [32]byte

		peerName string
		peerPub  [32]byte

		connMu sync.Mutex
		conn   *websocket.Conn
	}
)

func NewApp(host, keysDir string) *App {
	return &App{
		app:     tview.NewApplication(),
		host:    host,
		keysDir: keysDir,
	}
}

func (c *App) Run(ctx context.Context, name string) {
	priv, pub, err := loadOrCreateKeyPair(c.keysDir, name)
	if err != nil {
		log.Fatal("load local key pair failed", zap.Error(err))
	}
	c.name = name
	c.priv = priv
	c.pub = pub

	if err := c.ensureAccount(ctx); err != nil {
		log.Fatal("ensure account failed", zap.Error(err))
	}

	token, err := c.login(ctx, c.name)
	if err != nil {
		log.Fatal("login failed", zap.Error(err))
	}
	c.token = token

	var toName string
	fmt.Print("Enter recipient's name: ")
	_, err = fmt.Scan(&toName) // reads until whitespace
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	c.peerName = toName

	peer, err := c.getPublicKey(ctx, c.peerName)
	if err != nil {
		log.Fatal("fetch recipient key failed", zap.Error(err))
	}
	if peer == nil {
		log.Fatal("recipient does not exist", zap.String("name", c.peerName))
	}
	if len(peer.PublicKey) != 32 {
		log.Fatal("recipient published an unusable key", zap.Int("len", len(peer.PublicKey)))
	}
	copy(c.peerPub[:], peer.PublicKey)

	c.conn, err = c.initWebhook(c.token)
	if err != nil {
		log.Fatal("init webhook to server failed", zap.Error(err))
	}

	go c.listenOnWebhook()
	c.renderUI(ctx)
}

func (c *App) Stop() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// ensureAccount publishes the local public key at signup, or verifies that an
// existing account still matches it. Private keys never leave this process.
func (c *App) ensureAccount(ctx context.Context) error {
	existing, err := c.getPublicKey(ctx, c.name)
	if err != nil {
		return err
	}

	if existing == nil {
		return c.signup(ctx, c.name, c.pub[:])
	}

	if !bytes.Equal(existing.PublicKey, c.pub[:]) {
		return fmt.Errorf("published key for %s does not match the local key", c.name)
	}
	return nil
}

// blocking function
func (c *App) renderUI(ctx context.Context) {
	c.chatbox = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	c.chatbox.SetBorder(true).SetTitle(fmt.Sprintf(" Chat with %s ", c.peerName))

	c.input = tview.NewInputField().
		SetLabel("Message: ").
		SetFieldWidth(0)
	c.input.SetBorder(true).SetTitle(" New Message ")

	c.showHistory(ctx)

	c.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			text := c.input.GetText()
			if text == "" {
				return
			}

			go func(msg string) {
				err := c.SendMessage(msg)
				if err != nil {
					c.app.Suspend(func() {
						log.Error("Send message failed", zap.Error(err))
					})
				}
			}(text)
		}
	})

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.chatbox, 0, 1, false).
		AddItem(c.input, 3, 0, true)

	if err := c.app.SetRoot(layout, true).SetFocus(c.input).Run(); err != nil {
		log.Fatal("cannot init app", zap.Error(err))
	}
}

func (c *App) showHistory(ctx context.Context) {
	msgs, err := c.fetchHistory(ctx, c.peerName, 0)
	if err != nil {
		log.Error("fetch history failed", zap.Error(err))
		return
	}

	for _, m := range msgs {
		c.printMessage(m)
	}
	c.chatbox.ScrollToEnd()
}

func (c *App) listenOnWebhook() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug("worker web socket closed", zap.Error(err))
			c.conn.Close()
			break
		}

		var env struct {
			Type    string          `json:"type"`
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Error("Unmarshal frame failed", zap.Error(err))
			continue
		}

		switch env.Type {
		case model.FrameNewMessage:
			var m model.Message
			if err := json.Unmarshal(env.Message, &m); err != nil {
				log.Error("Unmarshal message failed", zap.Error(err))
				continue
			}
			c.app.QueueUpdateDraw(func() {
				c.printMessage(&m)
				c.chatbox.ScrollToEnd()
			})

		case model.FrameMessageSent:
			c.app.QueueUpdateDraw(func() {
				fmt.Fprintf(c.chatbox, "[gray]delivered[-]\n")
				c.chatbox.ScrollToEnd()
			})

		case model.FrameError:
			var reason string
			if err := json.Unmarshal(env.Message, &reason); err != nil {
				reason = string(env.Message)
			}
			c.app.QueueUpdateDraw(func() {
				fmt.Fprintf(c.chatbox, "[red]error:[-] %s\n", reason)
				c.chatbox.ScrollToEnd()
			})
		}
	}
}

func (c *App) SendMessage(msg string) error {
	ct, err := box.Seal(c.priv, c.peerPub, []byte(msg))
	if err != nil {
		return err
	}

	err = c.writeFrame(&model.SendFrame{
		Type:       model.FrameSendMessage,
		ReceiverID: c.peerName,
		Content:    base64.StdEncoding.EncodeToString(ct),
	})
	if err != nil {
		return err
	}

	c.app.QueueUpdateDraw(func() {
		fmt.Fprintf(c.chatbox, "[yellow]You:[-] %s\n", msg)
		c.input.SetText("")
		c.chatbox.ScrollToEnd()
	})
	return nil
}

func (c *App) writeFrame(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn.WriteJSON(v)
}

// printMessage decrypts and renders one record. Both directions use the same
// derived key, so sent history decrypts with the local private key too.
func (c *App) printMessage(m *model.Message) {
	text, err := c.decrypt(m.Content)
	if err != nil {
		fmt.Fprintf(c.chatbox, "[red]<undecryptable message>[-]\n")
		return
	}

	if m.SenderID == c.name {
		fmt.Fprintf(c.chatbox, "[yellow]You:[-] %s\n", text)
	} else {
		fmt.Fprintf(c.chatbox, "[green]%s:[-] %s\n", m.SenderID, text)
	}
}

func (c *App) decrypt(content string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return "", err
	}

	plain, err := box.Open(c.priv, c.peerPub, ct)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
