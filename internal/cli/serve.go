package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/pc-builder/internal/delivery/httpapi"
	"github.com/yourusername/pc-builder/internal/delivery/telegram"
	"github.com/yourusername/pc-builder/internal/infrastructure/cache"
	"github.com/yourusername/pc-builder/internal/usecase"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background jobs and the optional Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, rootOpts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()

			cache.StartSweeper(ctx, a.priceCache, a.cfg.PriceSweepInterval, a.logger)
			usecase.StartReverifier(ctx, a.catalog, a.cfg.ReverifyInterval, a.logger)

			if a.cfg.TelegramToken != "" {
				bot, err := telegram.NewBotHandler(a.cfg.TelegramToken, a.compatibility, a.pricing, a.catalog, a.cfg.IsAdmin, a.logger)
				if err != nil {
					return err
				}
				go func() {
					if err := bot.Start(ctx); err != nil && ctx.Err() == nil {
						a.logger.Error("telegram bot stopped", "error", err)
					}
				}()
			}

			server := httpapi.NewServer(httpapi.DefaultConfig(a.cfg.HTTPAddr), a.compatibility, a.pricing, a.logger)
			return server.Run(ctx)
		},
	}
}
