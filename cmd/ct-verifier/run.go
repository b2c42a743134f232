// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/cli"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/ctverify"
	"github.com/H0llyW00dzZ/tls-ct-verifier/src/logger"
	verpkg "github.com/H0llyW00dzZ/tls-ct-verifier/src/version"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = verpkg.Version
	}
}

func main() {
	log := logger.NewCLILogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute(ctx, version, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Printf("ct-verifier: %v", err)
			os.Exit(exitCode(err))
		}
		if cli.OperationPerformed {
			log.Println("Certificate transparency check completed successfully.")
		}
	case <-ctx.Done():
		log.Println("Operation cancelled by signal. Exiting...")
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
		os.Exit(130)
	}
}

// exitCode separates a rejected host from a failure to check it.
func exitCode(err error) int {
	var verr *ctverify.VerificationError
	if errors.As(err, &verr) {
		return 2
	}
	return 1
}
