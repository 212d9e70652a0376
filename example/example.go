package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/myeof/gomllp"
	"github.com/myeof/gomllp/hl7"
	"github.com/myeof/gomllp/pkg/logger"
)

var (
	port uint = 2575
	seq  hl7.ControlIDSequence
)

func main() {
	var s bool
	var file string
	flag.BoolVar(&s, "s", s, "server")
	flag.StringVar(&file, "f", "example/example.go", "document to send")
	flag.UintVar(&port, "p", port, "port")
	flag.Parse()

	logger.SetLogger(logger.NewLogger(&logger.Options{Level: "debug", Mode: logger.ModeConsole}))
	defer func() { _ = logger.Sync() }()

	if s {
		ServerExample()
	} else {
		ClientExample(file)
	}
}

// examples

func ServerExample() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := mllp.NewRouter()
	r.Use(LogHandler)
	r.Register("MDM^T02", Document)
	r.NoRoute(Reject)
	if err := mllp.ListenAndServe(ctx, fmt.Sprintf("127.0.0.1:%d", port), r); err != nil {
		fatal("serve", "error", err)
	}
}

func ClientExample(file string) {
	data, err := os.ReadFile(file)
	if err != nil {
		fatal("read document", "error", err)
	}

	now := time.Now()
	var id string
	id, seq = hl7.NextControlID(seq, now)
	msg, err := hl7.Build(data, hl7.Header{
		Timestamp: now,
		ControlID: id,
		FileName:  file,
	})
	if err != nil {
		fatal("build", "error", err)
	}

	resp, err := mllp.Send(context.Background(), "127.0.0.1", uint16(port), msg.Bytes(), 10*time.Second)
	if err != nil {
		fatal("send", "error", err)
	}
	ack, err := hl7.ParseACK(resp)
	if err != nil {
		fatal("ack", "error", err)
	}
	logger.Infow("ack", "code", string(ack.Code), "control_id", ack.ControlID)
}

func fatal(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
	_ = logger.Sync()
	os.Exit(1)
}

// handlers

func LogHandler(c *mllp.Context) {
	startTime := time.Now()
	c.Next()
	logger.Infof("| %15s | %-10s | %20s | %8d | %10s",
		c.Remote(),
		c.Type(),
		c.ControlID(),
		len(c.Message().Bytes()),
		time.Since(startTime),
	)
}

func Document(c *mllp.Context) {
	obx := c.Message().Segment("OBX")
	if len(obx) > 3 {
		logger.Infof("%s: %s", c.Remote(), strings.SplitN(obx[3], "^", 2)[0])
	}
	_ = c.Reply(hl7.NewACK(c.Message(), hl7.AckAccept, "ACK"+c.ControlID(), time.Now()))
}

func Reject(c *mllp.Context) {
	_ = c.Reply(hl7.NewACK(c.Message(), hl7.AckReject, "NAK"+c.ControlID(), time.Now()))
	c.Abort()
}
