// Package shutdown provides graceful process shutdown with connection
// draining for teamarrd's health/metrics HTTP server and cron
// scheduler. Adapted from the teacher's package of the same name.
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// GracefulServe starts srv and blocks until SIGTERM or SIGINT. On
// signal: stops accepting new connections, drains active connections up
// to drainTimeout, then shuts down.
func GracefulServe(srv *http.Server, drainTimeout time.Duration, logger *logrus.Entry) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	logger.WithField("timeout", drainTimeout.String()).Info("draining connections")
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// WaitForSignal blocks until SIGTERM or SIGINT, then returns it.
func WaitForSignal(logger *logrus.Entry) os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	logger.WithField("signal", sig.String()).Info("shutdown signal received")
	return sig
}

// Run blocks until SIGTERM or SIGINT, then drains srv (if non-nil) and
// calls stop (e.g. the lifecycle scheduler's Stop) within drainTimeout.
// This is teamarrd's top-level bootstrap shape: the health/metrics
// server and the cron scheduler wind down together on one signal.
func Run(srv *http.Server, stop func(context.Context), drainTimeout time.Duration, logger *logrus.Entry) error {
	serverErr := make(chan error, 1)
	if srv != nil {
		go func() {
			logger.WithField("addr", srv.Addr).Info("server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if stop != nil {
		logger.Info("stopping scheduler")
		stop(ctx)
	}

	if srv != nil {
		logger.WithField("timeout", drainTimeout.String()).Info("draining connections")
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("graceful shutdown failed")
			return err
		}
	}

	logger.Info("teamarrd stopped cleanly")
	return nil
}
