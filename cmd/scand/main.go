// main.go - Scanner daemon.
//
// Runs periodic discovery passes against a persisted client state. The daemon
// is a stand-in driver for environments where the real external client invokes
// the pipeline directly.
//
// Usage:
//
//	scand -config scand.json
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"notescan/internal/logcipher"
	"notescan/internal/logger"
	"notescan/internal/protocol"
	"notescan/internal/pxe"
	"notescan/internal/scanner"
)

func main() {
	configPath := flag.String("config", "scand.json", "path to the configuration file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scand: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)
	log := logger.Logger().With().Str("component", "scand").Logger()

	var contract, recipient protocol.Field
	if _, err := contract.SetString(cfg.ContractAddress); err != nil {
		log.Fatal().Err(err).Msg("invalid contract_address")
	}
	if _, err := recipient.SetString(cfg.RecipientAddress); err != nil {
		log.Fatal().Err(err).Msg("invalid recipient_address")
	}
	keys, err := loadOrCreateKeys(cfg.KeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("loading recipient keys")
	}

	client, err := loadOrCreateState(cfg.StatePath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading client state")
	}

	scan := scanner.New(client, contract, keys, recipient, nil)
	ticker := time.NewTicker(time.Duration(cfg.ScanIntervalSeconds) * time.Second)
	defer ticker.Stop()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Str("contract", contract.String()).Int("interval_s", cfg.ScanIntervalSeconds).Msg("scand started")
	for {
		select {
		case <-ticker.C:
			stats, err := scan.Sync()
			if err != nil {
				log.Error().Err(err).Msg("discovery pass failed")
				continue
			}
			if stats.Processed > 0 {
				log.Info().
					Int("processed", stats.Processed).
					Int("delivered", stats.NotesDelivered).
					Int("events", stats.EventsStored).
					Int("pending_partials", stats.PartialsPending).
					Msg("discovery pass done")
			}
			if err := client.SaveToFile(cfg.StatePath); err != nil {
				log.Error().Err(err).Msg("persisting client state")
			}
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			if err := client.SaveToFile(cfg.StatePath); err != nil {
				log.Error().Err(err).Msg("persisting client state")
			}
			return
		}
	}
}

func setupLogging(level string) {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	logger.Set(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
}

// loadOrCreateKeys reads the recipient's private scalar from keyFile, creating
// a fresh keypair on first run.
func loadOrCreateKeys(keyFile string) (*logcipher.KeyPair, error) {
	data, err := os.ReadFile(keyFile)
	if os.IsNotExist(err) {
		kp, err := logcipher.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyFile, []byte(kp.Sk.String()), 0600); err != nil {
			return nil, err
		}
		return kp, nil
	}
	if err != nil {
		return nil, err
	}
	return logcipher.KeyPairFromScalar(string(data))
}

func loadOrCreateState(path string) (*pxe.Memory, error) {
	client, err := pxe.LoadFromFile(path)
	if os.IsNotExist(err) {
		return pxe.NewMemory(), nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
