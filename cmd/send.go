package cmd

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/poselink/poselink/internal/logging"
)

type wireBone struct {
	Name     string     `json:"Name"`
	Parent   int        `json:"Parent"`
	Location [3]float64 `json:"Location"`
	Rotation [4]float64 `json:"Rotation"`
	Scale    [3]float64 `json:"Scale"`
}

type wireParameter struct {
	Name  string  `json:"Name"`
	Value float64 `json:"Value"`
}

type wireSubject struct {
	Bone      []wireBone      `json:"Bone"`
	Parameter []wireParameter `json:"Parameter"`
}

// CreateSendCmd creates the send command, a synthetic pose sender for
// testing a running bridge without a real capture rig.
func CreateSendCmd() *cobra.Command {
	var target string
	var subject string
	var rate int
	var count int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send synthetic pose datagrams",
		Long: `Transmits JSON pose datagrams with a small animated skeleton to a running ` +
			`bridge. Useful for smoke-testing the listener, decoder, and republish path end to end.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("send").With("subject", subject)

			addr, err := net.ResolveUDPAddr("udp4", target)
			if err != nil {
				logger.Error("Invalid target endpoint", "target", target, "error", err)
				os.Exit(1)
			}
			conn, err := net.DialUDP("udp4", nil, addr)
			if err != nil {
				logger.Error("Failed to open socket", "error", err)
				os.Exit(1)
			}
			defer conn.Close()

			logger.Info("Sending pose datagrams", "target", target, "rate", rate, "count", count)

			interval := time.Second / time.Duration(rate)
			sent := 0
			for count <= 0 || sent < count {
				payload, err := buildDatagram(subject, sent, rate)
				if err != nil {
					logger.Error("Failed to build datagram", "error", err)
					os.Exit(1)
				}
				if _, err := conn.Write(payload); err != nil {
					logger.Error("Send failed", "error", err)
					os.Exit(1)
				}
				sent++
				time.Sleep(interval)
			}

			logger.Info("Done", "sent", sent)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", fmt.Sprintf("127.0.0.1:%d", 54321), "Bridge endpoint to send to")
	cmd.Flags().StringVarP(&subject, "subject", "s", "TestSubject", "Subject name to transmit")
	cmd.Flags().IntVarP(&rate, "rate", "r", 30, "Datagrams per second")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of datagrams to send (0 = until interrupted)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")

	return cmd
}

// buildDatagram produces one frame of a three-bone skeleton with the head
// nodding over time.
func buildDatagram(subject string, frame, rate int) ([]byte, error) {
	t := float64(frame) / float64(rate)
	// Pitch oscillates ±0.3 rad around the X axis.
	half := 0.3 * math.Sin(t*2*math.Pi*0.5) / 2
	headRot := [4]float64{math.Sin(half), 0, 0, math.Cos(half)}

	payload := map[string]wireSubject{
		subject: {
			Bone: []wireBone{
				{Name: "root", Parent: -1, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}},
				{Name: "spine", Parent: 0, Location: [3]float64{0, 0, 0.5}, Rotation: [4]float64{0, 0, 0, 1}, Scale: [3]float64{1, 1, 1}},
				{Name: "head", Parent: 1, Location: [3]float64{0, 0, 0.3}, Rotation: headRot, Scale: [3]float64{1, 1, 1}},
			},
			Parameter: []wireParameter{
				{Name: "smile", Value: 0.5 + 0.5*math.Sin(t)},
				{Name: "blink", Value: math.Abs(math.Sin(t * 3))},
			},
		},
	}

	return json.Marshal(payload)
}
