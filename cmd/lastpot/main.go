package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lastpot/lastpot/internal/server"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"ws://localhost:9090/ws" help:"Daemon websocket URL"`
	LogLevel string `short:"l" long:"log-level" default:"warn" help:"Log level"`

	Status        StatusCmd        `cmd:"" help:"Show the current round status"`
	Bet           BetCmd           `cmd:"" help:"Place a bet"`
	Claim         ClaimCmd         `cmd:"" help:"Trigger the prize payout"`
	StartRound    StartRoundCmd    `cmd:"" name:"start-round" help:"Open a new round (admin only)"`
	TransferAdmin TransferAdminCmd `cmd:"" name:"transfer-admin" help:"Hand the admin capability to a new identity"`
	Watch         WatchCmd         `cmd:"" help:"Stream round events"`
}

type cmdContext struct {
	serverURL string
	logger    *log.Logger
}

func main() {
	kctx := kong.Parse(&CLI)

	logger := log.New(os.Stderr)
	switch CLI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}

	err := kctx.Run(&cmdContext{serverURL: CLI.Server, logger: logger})
	kctx.FatalIfErrorf(err)
}

func dial(ctx *cmdContext) (*websocket.Conn, error) {
	ctx.logger.Debug("dialing", "url", ctx.serverURL)
	conn, _, err := websocket.DefaultDialer.Dial(ctx.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", ctx.serverURL, err)
	}
	return conn, nil
}

// request sends one operation and waits for the matching reply, skipping
// any broadcast events that arrive in between.
func request(ctx *cmdContext, msgType server.MessageType, data interface{}) (*server.Message, error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return nil, err
	}
	msg.RequestID = uuid.NewString()

	if err := conn.WriteJSON(msg); err != nil {
		return nil, fmt.Errorf("send %s: %w", msgType, err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		var reply server.Message
		if err := conn.ReadJSON(&reply); err != nil {
			return nil, fmt.Errorf("read reply: %w", err)
		}
		if reply.Type == server.MessageTypeRoundEvent {
			continue
		}
		if reply.RequestID != msg.RequestID {
			ctx.logger.Debug("skipping unrelated reply", "type", reply.Type)
			continue
		}
		return &reply, nil
	}
}

// printReply renders a reply, returning an error for error replies so the
// process exit code reflects the outcome.
func printReply(reply *server.Message) error {
	if reply.Type == server.MessageTypeError {
		var errData server.ErrorData
		if err := json.Unmarshal(reply.Data, &errData); err != nil {
			return fmt.Errorf("server error (undecodable): %s", string(reply.Data))
		}
		return fmt.Errorf("%s: %s", errData.Code, errData.Message)
	}

	if len(reply.Data) == 0 {
		fmt.Println(reply.Type)
		return nil
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(reply.Data, &pretty); err != nil {
		fmt.Println(string(reply.Data))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cmdContext) error {
	reply, err := request(ctx, server.MessageTypeStatus, nil)
	if err != nil {
		return err
	}
	return printReply(reply)
}

type BetCmd struct {
	Bettor string `arg:"" help:"Identity placing the bet"`
}

func (c *BetCmd) Run(ctx *cmdContext) error {
	reply, err := request(ctx, server.MessageTypePlaceBet, server.PlaceBetData{Bettor: c.Bettor})
	if err != nil {
		return err
	}
	return printReply(reply)
}

type ClaimCmd struct {
	Caller string `arg:"" help:"Identity triggering the payout"`
}

func (c *ClaimCmd) Run(ctx *cmdContext) error {
	reply, err := request(ctx, server.MessageTypeClaimPrize, server.ClaimPrizeData{Caller: c.Caller})
	if err != nil {
		return err
	}
	return printReply(reply)
}

type StartRoundCmd struct {
	Admin   string        `arg:"" help:"Admin identity"`
	Stake   int64         `required:"" help:"Stake per bet"`
	Delay   time.Duration `required:"" help:"Close time extension per bet (e.g. 300s)"`
	OpenFor time.Duration `default:"1h" name:"open-for" help:"How long the round stays open without bets"`
}

func (c *StartRoundCmd) Run(ctx *cmdContext) error {
	reply, err := request(ctx, server.MessageTypeStartRound, server.StartRoundData{
		Admin:        c.Admin,
		CloseTime:    time.Now().Add(c.OpenFor),
		Stake:        c.Stake,
		DelaySeconds: int64(c.Delay / time.Second),
	})
	if err != nil {
		return err
	}
	return printReply(reply)
}

type TransferAdminCmd struct {
	Caller   string `arg:"" help:"Current admin identity"`
	NewAdmin string `arg:"" help:"New admin identity"`
}

func (c *TransferAdminCmd) Run(ctx *cmdContext) error {
	reply, err := request(ctx, server.MessageTypeTransferAdmin, server.TransferAdminData{
		Caller:   c.Caller,
		NewAdmin: c.NewAdmin,
	})
	if err != nil {
		return err
	}
	return printReply(reply)
}

type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *cmdContext) error {
	conn, err := dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	fmt.Println("watching round events (ctrl-c to stop)")
	for {
		var msg server.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("event stream closed: %w", err)
		}
		if msg.Type != server.MessageTypeRoundEvent {
			continue
		}
		var event server.RoundEventData
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			ctx.logger.Warn("undecodable event", "error", err)
			continue
		}
		fmt.Printf("%s %s identity=%s amount=%d fund=%d\n",
			event.Timestamp.Format(time.RFC3339), event.Event, event.Identity, event.Amount, event.Fund)
	}
}
