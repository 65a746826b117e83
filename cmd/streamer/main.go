package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/audio"
	"github.com/Vasu1712/scenyx-live/internal/auth"
	"github.com/Vasu1712/scenyx-live/internal/logging"
	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/streamer"
)

func main() {
	hubURL := flag.String("url", "ws://localhost:8080/ws", "Hub WebSocket URL")
	token := flag.String("token", "", "Credential for the hub (JWT or userId:streamKey)")
	tokenParam := flag.String("token-param", "token", "Query parameter the hub reads the credential from")
	secret := flag.String("secret", "", "Mint a short-lived JWT with this secret instead of passing -token")
	user := flag.String("user", "streamer", "User id to mint a token for when -secret is set")
	room := flag.String("room", "", "Room to join")
	fps := flag.Float64("fps", 60, "Frames extracted per second")
	input := flag.String("input", "synthetic", `Audio input: "-" for s16le mono PCM on stdin, "synthetic", or a file path`)
	sampleRate := flag.Float64("sample-rate", audio.DefaultSampleRate, "Sample rate of the PCM input")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logging.Setup(*logLevel, "text")
	log := logging.Component("streamer")

	if *room == "" {
		log.Fatal("-room is required")
	}
	if *fps <= 0 {
		log.Fatal("-fps must be positive")
	}

	credential := *token
	if *secret != "" {
		minted, err := auth.IssueToken(*secret, models.Identity{UserID: *user, Username: *user, Role: auth.StreamerRole}, 12*time.Hour)
		if err != nil {
			log.WithError(err).Fatal("Failed to mint token")
		}
		credential = minted
	}
	if credential == "" {
		log.Fatal("-token or -secret is required")
	}

	source, closeInput, err := openSource(*input, *sampleRate)
	if err != nil {
		log.WithError(err).Fatal("Failed to open audio input")
	}
	defer closeInput()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := streamer.New(streamer.Config{URL: *hubURL, Token: credential, TokenParam: *tokenParam, RoomID: *room}, streamer.LogRenderer(log))
	if err := client.Connect(ctx); err != nil {
		log.WithError(err).Fatal("Failed to connect to hub")
	}

	extractor := audio.NewExtractor(source, audio.NewFrameScheduler(*fps), audio.WithLogger(log))
	extractor.OnFrame(func(frame models.FeatureFrame) { client.Send(frame) })
	extractor.OnError(func(err error) {
		log.WithError(err).Error("Audio source failed")
		stop()
	})
	if err := extractor.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start extractor")
	}
	defer extractor.Stop()

	log.WithFields(logrus.Fields{
		"room_id": *room,
		"fps":     *fps,
		"input":   *input,
	}).Info("Streaming")

	if err := client.Run(ctx); err != nil {
		log.WithError(err).Error("Connection to hub lost")
	}
	log.WithFields(logrus.Fields{
		"sent":    client.Sent(),
		"dropped": client.Dropped(),
	}).Info("Streamer stopped")
}

func openSource(input string, sampleRate float64) (audio.Source, func(), error) {
	switch input {
	case "synthetic":
		return audio.NewSyntheticSource(sampleRate, 220, 120), func() {}, nil
	case "-":
		src, err := audio.NewPCMSource(os.Stdin, sampleRate, audio.DefaultFFTSize)
		return src, func() {}, err
	default:
		f, err := os.Open(input)
		if err != nil {
			return nil, nil, err
		}
		src, err := audio.NewPCMSource(f, sampleRate, audio.DefaultFFTSize)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return src, func() { f.Close() }, nil
	}
}
