package integration

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// ctx lives for the whole suite; AfterSuite cancels it
var (
	ctx    context.Context
	cancel context.CancelFunc
)

func TestShowSyncIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "showsync integration suite")
}

var _ = BeforeSuite(func() {
	// Application logs only show up for failed specs or with -v
	handler := slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(handler))

	ctx, cancel = context.WithCancel(context.Background())
	DeferCleanup(cancel)
})
