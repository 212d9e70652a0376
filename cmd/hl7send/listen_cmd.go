package main

import (
	"context"
	"encoding/base64"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/myeof/gomllp"
	"github.com/myeof/gomllp/hl7"
	"github.com/myeof/gomllp/pkg/config"
	"github.com/myeof/gomllp/pkg/logger"
	"github.com/spf13/cobra"
)

func newListenCmd(listener *config.ListenerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run an MLLP receiver that acknowledges every message",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runListen(ctx, listener)
		},
	}
	f := cmd.Flags()
	f.StringVar(&listener.Addr, "addr", listener.Addr, "Listen address")
	f.IntVar(&listener.CPS, "cps", listener.CPS, "Accepted connections per second (0 = unlimited)")
	f.DurationVar(&listener.IdleTimeout, "idle-timeout", listener.IdleTimeout, "Close connections idle for this long (0 = never)")
	return cmd
}

func runListen(ctx context.Context, opts *config.ListenerOptions) error {
	s := mllp.NewServer()
	s.SetCPS(opts.CPS)
	s.SetIdleTimeout(opts.IdleTimeout)
	ln, err := s.Listen(opts.Addr)
	if err != nil {
		return withCode(exitConnection, err)
	}
	logger.Infow("mllp listen", "addr", ln.Addr().String())
	return s.Serve(ctx, newAckRouter())
}

func newAckRouter() *mllp.Router {
	r := mllp.NewRouter()
	r.Use(logMessage)
	r.Register("MDM^T02", acceptDocument)
	r.NoRoute(acknowledge(hl7.AckAccept))
	return r
}

func logMessage(c *mllp.Context) {
	start := time.Now()
	c.Next()
	logger.Infow("message received",
		"remote", c.Remote(),
		"type", c.Type(),
		"control_id", c.ControlID(),
		"bytes", len(c.Message().Bytes()),
		"replied", c.Replied(),
		"elapsed", time.Since(start))
}

// acceptDocument rejects MDM messages whose OBX-5 is not valid Base64.
func acceptDocument(c *mllp.Context) {
	obx := c.Message().Segment("OBX")
	if len(obx) <= 5 {
		acknowledge(hl7.AckError)(c)
		return
	}
	doc, err := base64.StdEncoding.DecodeString(obx[5])
	if err != nil {
		logger.Warnw("document not decoded", "control_id", c.ControlID(), "error", err)
		acknowledge(hl7.AckError)(c)
		return
	}
	logger.Debugw("document decoded", "control_id", c.ControlID(), "document_bytes", len(doc))
	acknowledge(hl7.AckAccept)(c)
}

func acknowledge(code hl7.AckCode) mllp.HandlerFunc {
	return func(c *mllp.Context) {
		if err := c.Reply(hl7.NewACK(c.Message(), code, ackControlID(), time.Now())); err != nil {
			logger.Warnw("reply failed", "remote", c.Remote(), "error", err)
		}
	}
}

// ackControlID fits a random id into the 20 characters of MSH-10.
func ackControlID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}
