package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/rollover"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/utils"
)

// RolloverCmd runs the daily rollover once.
type RolloverCmd struct{}

func (c *RolloverCmd) Run(ctx *cli.Context) error {
	res, err := rollover.NewJob(ctx.Store, ctx.Clock).Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Rollover for %s: %d missed, %d created\n", utils.FormatDay(res.Day), res.Missed, res.Created)
	return nil
}

// ServeCmd keeps the rollover running on a schedule until interrupted.
type ServeCmd struct {
	Schedule string `help:"Cron schedule for the rollover (UTC)." default:"${rollover_schedule}"`
	HTTPAddr string `name:"http-addr" help:"Address for /metrics, /healthz and /rollover (e.g. :9090). Disabled when empty." env:"HABITUAL_HTTP_ADDR"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := rollover.NewScheduler(rollover.NewJob(ctx.Store, ctx.Clock), c.Schedule)

	var srv *server.Server
	if c.HTTPAddr != "" {
		srv = server.New(c.HTTPAddr, scheduler)
		srv.Start(stop)
	}

	err := scheduler.Run(runCtx)

	if srv != nil {
		if serr := srv.Shutdown(); serr != nil {
			logger.Warn("HTTP server shutdown failed", "error", serr)
		}
	}
	return err
}
