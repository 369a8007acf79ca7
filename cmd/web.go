package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cpu-hotplug-manager/internal/activity"
	"cpu-hotplug-manager/internal/web"
)

var webPort int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Run the governor with the HTTP API",
	Long: `Sobe o governor em modo headless junto com a API HTTP:
status, tunáveis, histórico de transições, controle (disable, boost,
suspend/resume) e métricas Prometheus em /metrics.

Autenticação: defina CPU_HOTPLUG_WEB_TOKEN para exigir
"Authorization: Bearer <token>" nas rotas /api/v1. Sem a variável a
API fica aberta (modo local).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		gov, persist, err := buildGovernor()
		if err != nil {
			return err
		}
		defer func() {
			if persist != nil {
				persist.Close()
			}
		}()

		if err := gov.Start(); err != nil {
			return fmt.Errorf("failed to start governor: %w", err)
		}
		defer gov.Stop()

		stop := watchSignals(gov)
		defer close(stop)

		// Fonte de atividade alimentada pela API (POST /control/boost)
		src := activity.NewChannelSource()
		defer src.Close()
		go activity.Pump(src, gov.Boost)

		server := web.NewServer(web.ServerConfig{
			Port:  webPort,
			Token: os.Getenv("CPU_HOTPLUG_WEB_TOKEN"),
			Debug: debug,
		}, gov, persist, src)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("Shutdown signal received")
		}

		if err := server.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Web server shutdown failed")
		}
		return nil
	},
}

func init() {
	webCmd.Flags().IntVar(&webPort, "port", 8080, "HTTP port for the API")
	rootCmd.AddCommand(webCmd)
}
