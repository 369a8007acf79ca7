package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cpu-hotplug-manager/internal/config"
	"cpu-hotplug-manager/internal/cpu"
	"cpu-hotplug-manager/internal/governor"
	"cpu-hotplug-manager/internal/sampler"
	"cpu-hotplug-manager/internal/storage"
	"cpu-hotplug-manager/internal/tui"
)

var (
	debug     bool
	headless  bool
	fakePool  bool
	fakeCPUs  int
	sysfsRoot string
	dbPath    string
	noPersist bool
)

var rootCmd = &cobra.Command{
	Use:   "cpu-hotplug-manager",
	Short: "Feedback-driven CPU hotplug governor",
	Long: `Governor de CPU hotplug dirigido por carga: amostra o número de
tarefas executáveis, mantém uma média móvel e liga/desliga CPUs
secundárias conforme thresholds com histerese.

Modos de operação:
- padrão: governor + dashboard interativo no terminal
- --headless: apenas o governor, logs no stderr
- web: governor + API HTTP (status, tunáveis, controle, /metrics)

Sinais:
- SIGUSR1: suspend (força estado mínimo e congela o loop)
- SIGUSR2: resume (re-arma o loop)
- SIGINT/SIGTERM: shutdown graceful

Controles do dashboard:
- d: disable/enable   - b: boost
- s: suspend/resume   - q: sair`,
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

		if headless {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			log.Info().Msg("Shutdown signal received")
			return nil
		}

		app := tui.NewApp(gov, persist)
		return app.Run()
	},
}

// buildGovernor monta pool, sampler, persistência e o governor a
// partir das flags
func buildGovernor() (*governor.Governor, *storage.Persistence, error) {
	var pool cpu.Pool
	var smp sampler.Sampler

	if fakePool {
		pool = cpu.NewFakePool(fakeCPUs)
		smp = sampler.NewFakeSampler(0)
		log.Info().Int("cpus", fakeCPUs).Msg("Using fake CPU pool (no hotplug)")
	} else {
		p, err := cpu.NewSysfsPool(sysfsRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open CPU pool: %w", err)
		}
		pool = p
		smp = sampler.NewProcStatSampler("")
	}

	var persist *storage.Persistence
	if !noPersist {
		pcfg := storage.DefaultPersistenceConfig()
		if dbPath != "" {
			pcfg.DBPath = dbPath
		}
		p, err := storage.NewPersistence(pcfg)
		if err != nil {
			// persistência é opcional; o governor roda sem histórico
			log.Warn().Err(err).Msg("Persistence unavailable, continuing without history")
		} else {
			persist = p
		}
	}

	gov, err := governor.New(governor.Config{
		Pool:        pool,
		Sampler:     smp,
		Params:      config.NewStore(),
		Persistence: persist,
	})
	if err != nil {
		if persist != nil {
			persist.Close()
		}
		return nil, nil, err
	}

	return gov, persist, nil
}

// watchSignals liga SIGUSR1/SIGUSR2 aos hooks de suspend/resume.
// Retorna um canal que, fechado, encerra a goroutine.
func watchSignals(gov *governor.Governor) chan struct{} {
	stop := make(chan struct{})
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)

	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case s := <-sig:
				switch s {
				case syscall.SIGUSR1:
					log.Info().Msg("SIGUSR1: suspend")
					gov.OnSuspend()
				case syscall.SIGUSR2:
					log.Info().Msg("SIGUSR2: resume")
					gov.OnResume()
				}
			case <-stop:
				return
			}
		}
	}()

	return stop
}

// Execute executa o comando raiz
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fakePool, "fake", false, "Use an in-memory CPU pool (no real hotplug)")
	rootCmd.PersistentFlags().IntVar(&fakeCPUs, "cpus", 4, "CPU count for the fake pool")
	rootCmd.PersistentFlags().StringVar(&sysfsRoot, "sysfs-root", cpu.DefaultSysfsRoot, "Root of the CPU sysfs tree")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite path for the transition history (default: ~/.cpu-hotplug-manager/events.db)")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "Disable the transition history database")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Run without the terminal dashboard")
}
