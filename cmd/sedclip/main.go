// SPDX-License-Identifier: EPL-2.0

// Command sedclip plans, inspects and exports sound event detection clips.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		err = xerrors.New(err)
		logrus.WithError(err).Error("sedclip failed")
		logrus.Debug(xerrors.Sprint(err))
		stop()
		os.Exit(1)
	}
}
