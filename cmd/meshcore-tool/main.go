// Command meshcore-tool is the thinnest possible host application over
// the session package: attach a transport, configure the radio, print the
// event stream, optionally send one text message. It plays the role the
// teacher's cmd/direwolf and cmd/samoyed-appserver play for their own
// libraries, down to the pflag.Usage override style (appserver.go).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/n5hq/meshcore/bus"
	"github.com/n5hq/meshcore/deviceconf"
	"github.com/n5hq/meshcore/pb"
	"github.com/n5hq/meshcore/position"
	"github.com/n5hq/meshcore/session"
	"github.com/n5hq/meshcore/transport/httptransport"
	"github.com/n5hq/meshcore/transport/serial"
)

func main() {
	var (
		serialDev   = pflag.String("serial", "", "Serial device path, e.g. /dev/ttyUSB0.")
		baud        = pflag.Int("baud", 921600, "Serial baud rate.")
		httpHost    = pflag.String("http", "", "HTTP base URL, e.g. http://meshtastic.local.")
		sendText    = pflag.String("send", "", "Text to send once the session is configured.")
		dest        = pflag.Uint32("dest", 0, "Destination node number for --send (0 means broadcast).")
		channel     = pflag.Uint32("channel", 0, "Channel index for --send.")
		list        = pflag.Bool("list", false, "List USB-serial radio candidates and exit.")
		profileName = pflag.String("profile", "", "Load connection settings from a saved deviceconf profile.")
		saveProfile = pflag.String("save-profile", "", "Save the resolved connection settings under this profile name and exit.")
		setPos      = pflag.String("setpos", "", "Set the radio's fixed position as lat,lon[,altM] once configured.")
		help        = pflag.Bool("help", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - exercise a meshcore session against a real radio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [--serial DEVICE | --http URL | --profile NAME] [--send TEXT]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *list {
		radios, err := serial.ListRadios()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list radios: %v\n", err)
			os.Exit(1)
		}
		for _, r := range radios {
			fmt.Printf("%s\t%s %s\n", r.DevPath, r.Vendor, r.Product)
		}
		os.Exit(0)
	}

	if *profileName != "" {
		store, err := deviceconf.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "load profiles: %v\n", err)
			os.Exit(1)
		}
		p, ok := store.Find(*profileName)
		if !ok {
			fmt.Fprintf(os.Stderr, "no profile named %q\n", *profileName)
			os.Exit(1)
		}
		applyProfile(p, serialDev, baud, httpHost, channel)
	}

	if *saveProfile != "" {
		if err := saveResolvedProfile(*saveProfile, *serialDev, *baud, *httpHost, *channel); err != nil {
			fmt.Fprintf(os.Stderr, "save profile: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("saved profile %q\n", *saveProfile)
		os.Exit(0)
	}

	if (*serialDev == "") == (*httpHost == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --serial or --http is required (directly or via --profile)")
		pflag.Usage()
		os.Exit(1)
	}

	sess := session.New(session.Options{})
	subscribeAll(sess)

	if *serialDev != "" {
		sess.SetTransport(serial.New(*serialDev, *baud, sess.IngestStream))
	} else {
		sess.SetTransport(httptransport.New(*httpHost, sess.IngestMessage))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := sess.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer sess.Disconnect()

	if err := sess.Configure(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "configure: %v\n", err)
		os.Exit(1)
	}

	if *setPos != "" {
		waitForConfigured(ctx, sess)

		fix, err := parseLatLon(*setPos)
		if err != nil {
			fmt.Fprintf(os.Stderr, "setpos: %v\n", err)
			os.Exit(1)
		}
		latI, lonI := position.ToFixed(fix)
		pos := &pb.Position{LatitudeI: latI, LongitudeI: lonI, Altitude: fix.AltitudeM}
		fut, err := sess.SetPosition(ctx, pos)
		if err != nil {
			fmt.Fprintf(os.Stderr, "setpos: %v\n", err)
			os.Exit(1)
		}
		if _, err := fut.Wait(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "setpos: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("position set to %s\n", fix.String())
	}

	if *sendText != "" {
		waitForConfigured(ctx, sess)

		d := session.ToBroadcast()
		if *dest != 0 {
			d = session.ToNode(*dest)
		}
		fut, err := sess.SendText(ctx, *sendText, d, *channel, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send text: %v\n", err)
			os.Exit(1)
		}
		id, err := fut.Wait(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "send text %d: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("text message %d acked\n", id)
		return
	}

	<-ctx.Done()
}

// waitForConfigured blocks until the session reaches StatusConfigured or
// the context is done, polling at a coarse interval since Status has no
// dedicated "wait for" primitive (spec.md never requires one; OnStatus
// subscription is the typed alternative subscribeAll already uses).
func waitForConfigured(ctx context.Context, sess *session.Session) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		if sess.Status() == bus.StatusConfigured {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// subscribeAll wires a log line to every topic on the bus, the spirit of
// the teacher's callbacks.go registering one handler per AGW event kind.
func subscribeAll(sess *session.Session) {
	sess.Bus.OnStatus.Subscribe(func(e bus.StatusEvent) {
		fmt.Printf("status: %s\n", e.Status)
	})
	sess.Bus.OnMyInfo.Subscribe(func(e bus.MyInfoEvent) {
		fmt.Printf("my node: %d (reboot count %d)\n", e.MyInfo.MyNodeNum, e.MyInfo.RebootCount)
	})
	sess.Bus.OnNodeInfo.Subscribe(func(e bus.NodeInfoEvent) {
		fmt.Printf("node: %d %q\n", e.NodeInfo.Num, userName(e.NodeInfo.User))
	})
	sess.Bus.OnTextMessage.Subscribe(func(e bus.TextMessageEvent) {
		fmt.Printf("text from %d: %s\n", e.Meta.From, e.Text)
	})
	sess.Bus.OnPosition.Subscribe(func(e bus.PositionEvent) {
		fix := position.FromFixed(e.Position.LatitudeI, e.Position.LongitudeI, e.Position.Altitude, e.Position.Altitude != 0)
		if !fix.Valid() {
			fmt.Printf("position from %d: no fix\n", e.Meta.From)
			return
		}
		if utm, err := fix.UTMString(); err == nil {
			fmt.Printf("position from %d: %s (%s)\n", e.Meta.From, fix.String(), utm)
		} else {
			fmt.Printf("position from %d: %s\n", e.Meta.From, fix.String())
		}
	})
	sess.Bus.OnTelemetry.Subscribe(func(e bus.TelemetryEvent) {
		fmt.Printf("telemetry from %d: battery=%d%%\n", e.Meta.From, e.Telemetry.BatteryLevel)
	})
	sess.Bus.OnRouting.Subscribe(func(e bus.RoutingEvent) {
		fmt.Printf("routing ack for request %d: error=%d\n", e.Meta.ID, e.Routing.ErrorReason)
	})
	sess.Bus.OnLogRecord.Subscribe(func(e bus.LogRecordEvent) {
		if e.LogRecord != nil {
			fmt.Printf("device log: %s\n", e.LogRecord.Message)
		}
	})
	sess.Bus.OnRebooted.Subscribe(func(bus.RebootedEvent) {
		fmt.Println("device rebooted, reconfiguring")
	})
	sess.Bus.OnMetadata.Subscribe(func(e bus.MetadataEvent) {
		if e.Metadata != nil {
			fmt.Printf("metadata: firmware=%s role=%d\n", e.Metadata.FirmwareVersion, e.Metadata.Role)
		}
	})
}

func userName(u *pb.User) string {
	if u == nil {
		return ""
	}
	return u.LongName
}

// applyProfile fills in any connection flag the caller didn't set explicitly
// from a saved deviceconf.Profile, letting --profile stand in for --serial,
// --http, --baud, and --channel together.
func applyProfile(p deviceconf.Profile, serialDev *string, baud *int, httpHost *string, channel *uint32) {
	if !pflag.CommandLine.Changed("serial") && !pflag.CommandLine.Changed("http") {
		switch p.Kind {
		case deviceconf.TransportSerial:
			*serialDev = p.Device
		case deviceconf.TransportHTTP:
			*httpHost = p.Address
		}
	}
	if p.Baud != 0 && !pflag.CommandLine.Changed("baud") {
		*baud = p.Baud
	}
	if !pflag.CommandLine.Changed("channel") {
		*channel = p.Channel
	}
}

// saveResolvedProfile persists the flags the caller resolved this run (by
// hand or via --profile) under name, the write side of applyProfile.
func saveResolvedProfile(name, serialDev string, baud int, httpHost string, channel uint32) error {
	store, err := deviceconf.Load()
	if err != nil {
		return err
	}
	p := deviceconf.Profile{Name: name, Channel: channel}
	if serialDev != "" {
		p.Kind, p.Device, p.Baud = deviceconf.TransportSerial, serialDev, baud
	} else {
		p.Kind, p.Address = deviceconf.TransportHTTP, httpHost
	}
	store.Upsert(p)
	return store.Save("meshcore.yaml")
}

// parseLatLon parses a "--setpos" argument of the form "lat,lon" or
// "lat,lon,altM" into a position.Fix.
func parseLatLon(s string) (position.Fix, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return position.Fix{}, fmt.Errorf("expected lat,lon[,altM], got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return position.Fix{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return position.Fix{}, fmt.Errorf("longitude: %w", err)
	}
	var alt int64
	hasAlt := len(parts) == 3
	if hasAlt {
		alt, err = strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 32)
		if err != nil {
			return position.Fix{}, fmt.Errorf("altitude: %w", err)
		}
	}
	latI := int32(lat * position.FixedPointScale)
	lonI := int32(lon * position.FixedPointScale)
	return position.FromFixed(latI, lonI, int32(alt), hasAlt), nil
}
