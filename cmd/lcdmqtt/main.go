// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcdmqtt shows messages published on an MQTT topic on a character display.
//
// Every payload is one screenful, rows separated by newlines:
//
//	lcdmqtt -broker 192.168.1.10:1883 -topic lcd/kitchen -addr 0x27
//	mosquitto_pub -t lcd/kitchen -m "$(printf 'Dinner\nat 7')"
//
// The connection is retried until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/GermanBionicSystems/charlcd/hd44780"
	"github.com/GermanBionicSystems/charlcd/lcdsim"
	"github.com/GermanBionicSystems/charlcd/msgboard"
	"github.com/sirupsen/logrus"
	mqtt "github.com/soypat/natiu-mqtt"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type options struct {
	broker   string
	topic    string
	id       string
	user     string
	password string
	timeout  time.Duration
	retry    time.Duration

	bus  string
	addr uint
	cols int
	rows int
	sim  bool
}

// display returns the board and, for -sim, the terminal to redraw.
func display(o *options) (*hd44780.Dev, *lcdsim.Terminal, error) {
	if o.sim {
		sim, err := lcdsim.New(&lcdsim.Opts{Cols: o.cols, Rows: o.rows, DataLines: 4})
		if err != nil {
			return nil, nil, err
		}
		dev, err := hd44780.New(&hd44780.Opts{
			Data:      sim.DataPins(),
			RS:        sim.RS(),
			E:         sim.E(),
			Backlight: hd44780.NewBacklight(sim.Backlight()),
			Sleep:     sim.Sleep,
		})
		if err != nil {
			return nil, nil, err
		}
		if err = dev.Begin(o.cols, o.rows, hd44780.Font5x8); err != nil {
			return nil, nil, err
		}
		return dev, lcdsim.NewTerminal(sim, nil), dev.Backlight(0xff)
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	b, err := i2creg.Open(o.bus)
	if err != nil {
		return nil, nil, err
	}
	dev, err := hd44780.NewPCF857xBackpack(b, uint16(o.addr), o.cols, o.rows, hd44780.Font5x8)
	return dev, nil, err
}

// refresh redraws the emulated display until ctx is done.
func refresh(ctx context.Context, term *lcdsim.Terminal) {
	t := time.NewTicker(200 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = term.Halt()
			return
		case <-t.C:
			if err := term.Refresh(); err != nil {
				logrus.WithError(err).Warn("terminal refresh failed")
			}
		}
	}
}

// session connects to the broker, subscribes, and forwards publications to
// msgs until the connection drops or ctx is done.
func session(ctx context.Context, o *options, msgs chan<- msgboard.Message) error {
	log := logrus.WithField("broker", o.broker)
	d := net.Dialer{Timeout: o.timeout}
	conn, err := d.DialContext(ctx, "tcp", o.broker)
	if err != nil {
		return err
	}
	defer conn.Close()
	// Unblock HandleNext on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			payload, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			text := strings.TrimRight(string(payload), "\n")
			log.WithFields(logrus.Fields{"topic": string(varPub.TopicName), "bytes": len(payload)}).Debug("received")
			if !msgboard.Send(msgs, strings.Split(text, "\n")...) {
				log.Warn("display busy, message dropped")
			}
			return nil
		},
	})

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(o.id))
	// No keepalive: the session only listens, and HandleNext blocks until
	// the broker sends something.
	varconn.KeepAlive = 0
	if o.user != "" {
		varconn.Username = []byte(o.user)
		varconn.Password = []byte(o.password)
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err = conn.SetDeadline(time.Now().Add(o.timeout)); err != nil {
		return err
	}
	if err = client.Connect(cctx, conn, &varconn); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	log.Info("connected")
	err = client.Subscribe(cctx, mqtt.VariablesSubscribe{
		PacketIdentifier: 1,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(o.topic), QoS: mqtt.QoS0},
		},
	})
	if err != nil {
		return fmt.Errorf("subscribe %q: %w", o.topic, err)
	}
	log.WithField("topic", o.topic).Info("subscribed")
	msgboard.Send(msgs, "Listening on", o.topic)

	if err = conn.SetDeadline(time.Time{}); err != nil {
		return err
	}
	for client.IsConnected() {
		if err = client.HandleNext(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
	return client.Err()
}

func run(ctx context.Context, o *options) error {
	dev, term, err := display(o)
	if err != nil {
		return err
	}
	defer dev.Halt()
	logrus.WithField("display", dev.String()).Info("display ready")
	if term != nil {
		go refresh(ctx, term)
	}

	msgs := make(chan msgboard.Message, 10)
	board := msgboard.NewHandler(dev, msgs)
	done := make(chan error, 1)
	go func() { done <- board.Run(ctx) }()

	for ctx.Err() == nil {
		msgboard.Send(msgs, "Connecting...", o.broker)
		err := session(ctx, o, msgs)
		if ctx.Err() != nil {
			break
		}
		logrus.WithError(err).WithField("retry", o.retry).Error("session ended")
		msgboard.Send(msgs, "Disconnected", "Reconnecting...")
		select {
		case <-ctx.Done():
		case <-time.After(o.retry):
		}
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func mainImpl() error {
	o := &options{}
	hostname, _ := os.Hostname()
	flag.StringVar(&o.broker, "broker", "localhost:1883", "MQTT broker host:port")
	flag.StringVar(&o.topic, "topic", "lcd/text", "topic filter to subscribe to")
	flag.StringVar(&o.id, "id", "lcdmqtt-"+hostname, "MQTT client identifier")
	flag.StringVar(&o.user, "user", "", "MQTT user name")
	flag.StringVar(&o.password, "password", "", "MQTT password")
	flag.DurationVar(&o.timeout, "timeout", 10*time.Second, "dial, connect and subscribe timeout")
	flag.DurationVar(&o.retry, "retry", 5*time.Second, "delay before reconnecting")
	flag.StringVar(&o.bus, "bus", "", "I²C bus of the PCF8574 backpack")
	flag.UintVar(&o.addr, "addr", 0x27, "I²C address of the PCF8574 backpack")
	flag.IntVar(&o.cols, "cols", 16, "columns")
	flag.IntVar(&o.rows, "rows", 2, "rows")
	flag.BoolVar(&o.sim, "sim", false, "draw an emulated display on the terminal")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, o)
}

func main() {
	if err := mainImpl(); err != nil {
		logrus.WithError(err).Fatal("lcdmqtt")
	}
}
