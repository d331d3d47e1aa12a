// Command ninactl exercises the driver end to end: reset the
// coprocessor, print firmware version and connection state, resolve the
// target address on the host, open a TCP client, and do a one-shot
// write/read.
package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/coprocnet/ninawire"
	"github.com/coprocnet/ninawire/bus"
)

func main() {
	var (
		devPath  = flag.String("spi-dev", "/dev/spidev0.0", "spidev character device path")
		speedHz  = flag.Uint32("spi-speed", 8_000_000, "SPI clock speed in Hz")
		csPin    = flag.Int("cs-pin", 5, "chip-select GPIO line number")
		busyPin  = flag.Int("busy-pin", 6, "busy GPIO line number")
		resetPin = flag.Int("reset-pin", 7, "reset GPIO line number")
		target   = flag.String("target", "", "host:port to connect to after bringup")
		message  = flag.String("message", "ping", "payload to write to the target")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{})
	log.SetLevel(logrus.InfoLevel)

	ctx := context.Background()

	b, handles, err := bus.OpenLinux(bus.LinuxConfig{
		SPIDevPath:    *devPath,
		SPISpeedHz:    *speedHz,
		SPIBits:       8,
		ChipSelectPin: *csPin,
		BusyPin:       *busyPin,
		ResetPin:      *resetPin,
		Reset:         bus.DefaultConfig(),
	})
	if err != nil {
		log.WithError(err).Fatal("open bus")
	}
	defer handles.Close()

	engine := ninawire.NewCommandEngine(b, ninawire.WithLogger(log))
	station := ninawire.NewStation(engine)

	log.Info("resetting coprocessor")
	if err := station.Reset(ctx); err != nil {
		log.WithError(err).Fatal("reset")
	}

	version, err := station.Handler().GetFwVersion(ctx)
	if err != nil {
		log.WithError(err).Fatal("get firmware version")
	}
	log.Infof("firmware version: %s", version)

	state, err := station.Handler().GetConnStatus(ctx)
	if err != nil {
		log.WithError(err).Fatal("get connection status")
	}
	log.Infof("connection state: %s", state)

	if *target == "" {
		return
	}

	addr, err := net.ResolveTCPAddr("tcp4", *target)
	if err != nil {
		log.WithError(err).Fatal("resolve target")
	}

	log.Infof("awaiting connection before dialing %s", addr)
	if err := station.AwaitConnectionState(ctx, ninawire.ConnectionStateConnected, 250*time.Millisecond); err != nil {
		log.WithError(err).Fatal("await connection")
	}

	sock, err := station.Dial(ctx, addr)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer sock.Close()

	if _, err := sock.Write([]byte(*message)); err != nil {
		log.WithError(err).Fatal("write")
	}
	if err := sock.Flush(ctx); err != nil {
		log.WithError(err).Fatal("flush")
	}

	reply := make([]byte, 256)
	n, err := sock.Read(reply)
	if err != nil {
		log.WithError(err).Fatal("read")
	}
	log.Infof("received %d bytes: %q", n, reply[:n])

	os.Exit(0)
}
