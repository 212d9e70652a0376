package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/myeof/gomllp"
	"github.com/myeof/gomllp/hl7"
	"github.com/myeof/gomllp/pkg/config"
	"github.com/myeof/gomllp/pkg/logger"
	"github.com/myeof/gomllp/worker"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	sender      *config.SenderOptions
	file        string
	controlID   string
	contentType string
	targets     []string
	parallel    int
}

type target struct {
	host string
	port uint16
}

func (t target) String() string {
	return net.JoinHostPort(t.host, strconv.Itoa(int(t.port)))
}

func newSendCmd(sender *config.SenderOptions) *cobra.Command {
	opts := sendOptions{sender: sender}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one document and wait for the acknowledgment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&sender.Host, "host", "H", sender.Host, "Host address of the HL7 server")
	f.Uint16VarP(&sender.Port, "port", "p", sender.Port, "Port number of the HL7 server")
	f.IntVarP(&sender.TimeoutSeconds, "timeout", "t", sender.TimeoutSeconds, "Timeout in seconds for connect, write and read together")
	f.StringVarP(&opts.file, "file", "f", "", "Path of the document to send (required)")
	f.StringVar(&sender.SendingApp, "sending-app", sender.SendingApp, "MSH-3 sending application")
	f.StringVar(&sender.SendingFacility, "sending-facility", sender.SendingFacility, "MSH-4 sending facility")
	f.StringVar(&sender.ReceivingApp, "receiving-app", sender.ReceivingApp, "MSH-5 receiving application")
	f.StringVar(&sender.ReceivingFacility, "receiving-facility", sender.ReceivingFacility, "MSH-6 receiving facility")
	f.StringVar(&sender.ProcessingID, "processing-id", sender.ProcessingID, "MSH-11 processing ID (P, D, T)")
	f.IntVar(&sender.RateLimit, "rate", sender.RateLimit, "Write rate limit in bytes per second (0 = unlimited)")
	f.StringVar(&opts.controlID, "control-id", "", "MSH-10 control ID (generated when empty)")
	f.StringVar(&opts.contentType, "content-type", "", "MIME type of the document (detected when empty)")
	f.StringSliceVar(&opts.targets, "target", nil, "Additional host:port receivers; the document is sent to each")
	f.IntVar(&opts.parallel, "parallel", 4, "Concurrent sends when several targets are given")

	return cmd
}

func runSend(ctx context.Context, out io.Writer, opts sendOptions) error {
	if opts.file == "" {
		return withCode(exitUsage, errors.New("--file is required"))
	}
	timeout, err := opts.sender.Timeout()
	if err != nil {
		return withCode(exitUsage, err)
	}
	targets, err := resolveTargets(opts)
	if err != nil {
		return withCode(exitUsage, err)
	}

	payload, err := readPayload(opts.file)
	if err != nil {
		return err
	}

	now := time.Now()
	controlID := opts.controlID
	if controlID == "" {
		controlID, _ = hl7.NextControlID(hl7.ControlIDSequence{}, now)
	}
	msg, err := hl7.Build(payload, hl7.Header{
		SendingApplication:   opts.sender.SendingApp,
		SendingFacility:      opts.sender.SendingFacility,
		ReceivingApplication: opts.sender.ReceivingApp,
		ReceivingFacility:    opts.sender.ReceivingFacility,
		ProcessingID:         opts.sender.ProcessingID,
		Timestamp:            now,
		ControlID:            controlID,
		FileName:             filepath.Base(opts.file),
		ContentType:          opts.contentType,
	})
	if err != nil {
		return errors.Wrap(err, "build message")
	}
	logger.Debugw("message built",
		"control_id", msg.ControlID(),
		"payload_bytes", msg.PayloadLen(),
		"message_bytes", len(msg.Bytes()))

	client := mllp.NewClient(mllp.WithRateLimit(opts.sender.RateLimit))
	results := sendAll(ctx, client, targets, msg.Bytes(), timeout, opts.parallel)

	var first error
	for i, res := range results {
		if res.err != nil {
			logger.Errorw("send failed", "target", targets[i].String(), "error", res.err)
			if first == nil {
				first = errors.Wrapf(res.err, "send to %s", targets[i])
			}
			continue
		}
		report(out, targets[i], msg.ControlID(), res.resp)
	}
	return first
}

type sendResult struct {
	resp []byte
	err  error
}

// sendAll sends message to every target; each send has its own socket and
// its own deadline.
func sendAll(ctx context.Context, client *mllp.Client, targets []target, message []byte, timeout time.Duration, parallel int) []sendResult {
	results := make([]sendResult, len(targets))
	if len(targets) == 1 {
		resp, err := client.Send(ctx, targets[0].host, targets[0].port, message, timeout)
		results[0] = sendResult{resp: resp, err: err}
		return results
	}

	w := worker.NewWorker(parallel, len(targets))
	for i, t := range targets {
		i, t := i, t
		w.StartJob(func() {
			resp, err := client.Send(ctx, t.host, t.port, message, timeout)
			results[i] = sendResult{resp: resp, err: err}
		})
	}
	<-w.Shutdown()
	return results
}

func report(out io.Writer, t target, controlID string, resp []byte) {
	logger.Infow("HL7 message sent", "target", t.String(), "control_id", controlID, "response_bytes", len(resp))

	ack, err := hl7.ParseACK(resp)
	switch {
	case err != nil:
		logger.Warnw("acknowledgment not parsed", "target", t.String(), "error", err)
	case !ack.Accepted():
		logger.Warnw("acknowledgment is not an accept",
			"target", t.String(), "code", string(ack.Code), "text", ack.Text)
	case ack.ControlID != controlID:
		logger.Warnw("acknowledgment references another message",
			"target", t.String(), "expected", controlID, "got", ack.ControlID)
	}

	fmt.Fprintf(out, "Response from %s:\n", t)
	fmt.Fprintln(out, strings.ReplaceAll(string(mllp.Unwrap(resp)), "\r", "\n"))
}

func resolveTargets(opts sendOptions) ([]target, error) {
	var targets []target
	if len(opts.targets) == 0 || opts.sender.Port != 0 {
		if opts.sender.Port == 0 {
			return nil, errors.New("--port is required")
		}
		if strings.TrimSpace(opts.sender.Host) == "" {
			return nil, errors.New("--host must not be empty")
		}
		targets = append(targets, target{host: opts.sender.Host, port: opts.sender.Port})
	}
	for _, raw := range opts.targets {
		host, p, err := net.SplitHostPort(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid --target %q", raw)
		}
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil || port == 0 {
			return nil, errors.Errorf("invalid --target %q: bad port", raw)
		}
		targets = append(targets, target{host: host, port: uint16(port)})
	}
	return targets, nil
}

// readPayload refuses oversized files before reading them.
func readPayload(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, withCode(exitUsage, errors.Wrap(err, "failed to open message file"))
	}
	if info.IsDir() {
		return nil, withCode(exitUsage, errors.Errorf("failed to open message file: %s is a directory", path))
	}
	if info.Size() > hl7.MaxPayloadSize {
		return nil, &hl7.BuildError{Kind: hl7.KindPayloadTooLarge, Size: info.Size(), Limit: hl7.MaxPayloadSize}
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, withCode(exitUsage, errors.Wrap(err, "failed to read message file"))
	}
	return payload, nil
}
