package backup

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/gymstats-backend/internal/telemetry/metrics"
	"github.com/2beens/gymstats-backend/pkg"

	log "github.com/sirupsen/logrus"
)

// SessionsBackupUnixSocketListenerSetup - a deliberately overengineered way for the backup cmd
// to report its numbers to the main service, mostly so there is a piece of code here using
// UNIX socket interprocess communication, and to avoid running a Prometheus push gateway
func SessionsBackupUnixSocketListenerSetup(
	ctx context.Context,
	socketAddrDir, socketFileName string,
	metricsManager *metrics.Manager,
) (net.Addr, error) {
	socket := filepath.Join(socketAddrDir, socketFileName)
	listener, err := net.Listen("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("binding to unix socket %s: %w", socket, err)
	}

	if err := os.Chmod(socket, os.ModeSocket|0666); err != nil {
		return nil, err
	}

	go func() {
		go func() {
			<-ctx.Done()
			log.Debugln("sessions backup unix socket listener context done, closing listener")
			_ = listener.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				// Otherwise, continue accepting new connections.
			}

			conn, err := listener.Accept()
			if err != nil {
				log.Errorf("sessions backup unix socket listener conn accept: %s", err)
				return
			}
			log.Debugf("sessions backup unix socket got new conn: %s", conn.RemoteAddr().String())

			// if it takes over 5 minutes to transfer all backup stats, then something is probably not right
			if err := conn.SetDeadline(time.Now().Add(5 * time.Minute)); err != nil {
				log.Errorf("failed to set conn timeout: %s", err)
				return
			}

			go func() {
				defer func() { _ = conn.Close() }()

				buf := make([]byte, 1024)
				n, err := conn.Read(buf)
				if err != nil {
					return
				}

				messageReceived := pkg.BytesToString(buf[:n])
				log.Infof("sessions backup unix socket received: %s", messageReceived)

				msgParts := strings.Split(messageReceived, "||")
				if len(msgParts) != 2 {
					log.Errorf("sessions backup conn, invalid message received: %s", messageReceived)
					return
				}

				durationInfo := msgParts[1]
				sendSessionsBackupDurationInfo(durationInfo, metricsManager)

				sessionsCountInfo := msgParts[0]
				sendSessionsBackupCount(sessionsCountInfo, metricsManager)

				_, err = conn.Write([]byte("ok"))
				if err != nil {
					log.Errorf("sessions backup conn, send response: %s", err)
				}
			}()
		}
	}()

	return listener.Addr(), nil
}

func sendSessionsBackupDurationInfo(durationInfoMsg string, metrics *metrics.Manager) {
	durationInfoParts := strings.Split(durationInfoMsg, "::")
	if len(durationInfoParts) != 2 {
		log.Errorf("sessions backup conn, invalid duration info received: %s", durationInfoMsg)
		return
	}

	durationInSec, err := strconv.ParseFloat(durationInfoParts[1], 64)
	if err != nil {
		log.Errorf("sessions backup conn, invalid duration info received: %s", err)
		return
	}

	metrics.HistSessionsBackupDuration.Observe(durationInSec)
}

func sendSessionsBackupCount(sessionsCountInfoMsg string, metrics *metrics.Manager) {
	sessionsCountInfoParts := strings.Split(sessionsCountInfoMsg, "::")
	if len(sessionsCountInfoParts) != 2 {
		log.Errorf("sessions backup conn, invalid sessions info received: %s", sessionsCountInfoMsg)
		return
	}

	sessionsCount, err := strconv.Atoi(sessionsCountInfoParts[1])
	if err != nil {
		log.Errorf("sessions backup conn, invalid sessions counter: %s", err)
		return
	}

	metrics.CounterSessionsBackups.Add(float64(sessionsCount))
}
